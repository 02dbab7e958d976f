package handlers

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/mdminegoub-netizen/qaher-bot/internal/models"
	"github.com/mdminegoub-netizen/qaher-bot/internal/telegram"
)

// Summary is the aggregate shown by /stats.
type Summary struct {
	Total          int
	ActiveToday    int
	RemindersOn    int
	RunningStreaks int
}

// Summarize counts users; "today" is the UTC calendar day of now.
func Summarize(recs []*models.UserRecord, now time.Time) Summary {
	today := now.UTC().Format(models.DayLayout)
	var s Summary
	for _, r := range recs {
		s.Total++
		if !r.LastActiveAt.IsZero() && r.LastActiveAt.UTC().Format(models.DayLayout) == today {
			s.ActiveToday++
		}
		if r.DailyReminderEnabled {
			s.RemindersOn++
		}
		if r.Started() {
			s.RunningStreaks++
		}
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("📊 إحصائيات البوت:\n\n"+
		"- إجمالي المستخدمين: %d 👥\n"+
		"- المستخدمون النشطون اليوم: %d ✅\n"+
		"- التذكير اليومي مفعّل: %d ⏰\n"+
		"- عدّادات جارية: %d 🚀",
		s.Total, s.ActiveToday, s.RemindersOn, s.RunningStreaks)
}

func displayName(r *models.UserRecord) string {
	if r.DisplayName == "" {
		return "بدون اسم"
	}
	return r.DisplayName
}

// listUsers loads every record, replying with an error message on failure.
func (h *Handler) listUsers(ctx context.Context, in telegram.Inbound) ([]*models.UserRecord, bool) {
	recs, err := h.DB.List(ctx)
	if err != nil {
		log.Println("list users:", err)
		h.replyMenu(ctx, in, txtStorageError)
		return nil, false
	}
	return recs, true
}

func (h *Handler) users(ctx context.Context, in telegram.Inbound, _ *models.UserRecord) {
	recs, ok := h.listUsers(ctx, in)
	if !ok {
		return
	}
	if len(recs) == 0 {
		h.replyMenu(ctx, in, txtNoUsers)
		return
	}
	var b strings.Builder
	b.WriteString("📋 قائمة المستخدمين الذين استخدموا البوت:\n\n")
	for _, r := range recs {
		fmt.Fprintf(&b, "• %s — ID: %d\n", displayName(r), r.UserID)
	}
	fmt.Fprintf(&b, "\nإجمالي المستخدمين: %d 👥", len(recs))
	h.replyMenu(ctx, in, b.String())
}

func (h *Handler) lastActive(ctx context.Context, in telegram.Inbound, _ *models.UserRecord) {
	recs, ok := h.listUsers(ctx, in)
	if !ok {
		return
	}
	active := recs[:0]
	for _, r := range recs {
		if !r.LastActiveAt.IsZero() {
			active = append(active, r)
		}
	}
	if len(active) == 0 {
		h.replyMenu(ctx, in, txtNoActivity)
		return
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].LastActiveAt.After(active[j].LastActiveAt)
	})
	if len(active) > lastActiveLimit {
		active = active[:lastActiveLimit]
	}

	lines := []string{fmt.Sprintf("🕒 آخر %d مستخدمين تفاعلوا:\n", len(active))}
	for _, r := range active {
		lines = append(lines, fmt.Sprintf("• %s — ID: %d — آخر نشاط: %s",
			displayName(r), r.UserID, r.LastActiveAt.UTC().Format(activityTimeLayout)))
	}
	h.replyMenu(ctx, in, strings.Join(lines, "\n"))
}

func (h *Handler) stats(ctx context.Context, in telegram.Inbound, _ *models.UserRecord) {
	recs, ok := h.listUsers(ctx, in)
	if !ok {
		return
	}
	h.replyMenu(ctx, in, Summarize(recs, h.Session.Now()).String())
}

func (h *Handler) broadcast(ctx context.Context, in telegram.Inbound, _ *models.UserRecord) {
	h.arm(ctx, in, models.PendingMode{Kind: models.PendingBroadcast}, txtAskBroadcast)
}
