package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/mdminegoub-netizen/qaher-bot/internal/models"
	"github.com/mdminegoub-netizen/qaher-bot/internal/session"
	"github.com/mdminegoub-netizen/qaher-bot/internal/telegram"
)

func (h *Handler) status(rec *models.UserRecord) string {
	elapsed, started := h.Session.Elapsed(rec)
	return h.Messages.StreakStatus(rec, elapsed, started)
}

// ---------------- /start --------------------
func (h *Handler) start(ctx context.Context, in telegram.Inbound, _ *models.UserRecord) {
	rec, err := h.update(ctx, in, func(r *models.UserRecord) error {
		h.Session.StartJourney(r)
		return nil
	})
	if err != nil {
		return
	}
	h.send(ctx, telegram.Outgoing{
		ChatID:    in.ChatID,
		Text:      h.Messages.WelcomeText(rec.DisplayName) + "\n\n" + h.status(rec),
		ParseMode: telegram.ModeMarkdown,
		Keyboard:  h.menu(in.UserID),
	})
}

func (h *Handler) startJourney(ctx context.Context, in telegram.Inbound, _ *models.UserRecord) {
	var started bool
	rec, err := h.update(ctx, in, func(r *models.UserRecord) error {
		started = h.Session.StartJourney(r)
		return nil
	})
	if err != nil {
		return
	}
	head := txtJourneyRunning
	if started {
		head = txtJourneyStarted
	}
	h.replyMenu(ctx, in, head+"\n\n"+h.status(rec))
}

func (h *Handler) streak(ctx context.Context, in telegram.Inbound, rec *models.UserRecord) {
	h.replyMenu(ctx, in, h.status(rec))
}

func (h *Handler) reset(ctx context.Context, in telegram.Inbound, _ *models.UserRecord) {
	rec, err := h.DB.Update(ctx, in.UserID, func(r *models.UserRecord) error {
		return h.Session.ResetCounter(r)
	})
	if errors.Is(err, session.ErrNotStarted) {
		h.replyMenu(ctx, in, txtNothingToReset)
		return
	}
	if err != nil {
		log.Printf("reset %d: %v", in.UserID, err)
		h.replyMenu(ctx, in, txtStorageError)
		return
	}
	h.replyMenu(ctx, in, txtResetDone+"\n\n"+h.status(rec))
}

func (h *Handler) setStart(ctx context.Context, in telegram.Inbound, _ *models.UserRecord) {
	h.arm(ctx, in, models.PendingMode{Kind: models.PendingCustomStart}, txtAskStart)
}

func (h *Handler) rate(ctx context.Context, in telegram.Inbound, _ *models.UserRecord) {
	h.arm(ctx, in, models.PendingMode{Kind: models.PendingRating}, txtAskRating)
}

// history summarises relapses and recent ratings.
func (h *Handler) history(ctx context.Context, in telegram.Inbound, rec *models.UserRecord) {
	var b strings.Builder
	b.WriteString("📊 سجلّك:\n\n")
	fmt.Fprintf(&b, "- عدد الانتكاسات المسجّلة: %d\n", len(rec.RelapseLog))
	if n := len(rec.RelapseLog); n > 0 {
		fmt.Fprintf(&b, "- آخر انتكاسة: %s\n", rec.RelapseLog[n-1].UTC().Format(activityTimeLayout))
	}
	if avg, n := session.AverageRating(rec, historyRatingsWindow); n > 0 {
		fmt.Fprintf(&b, "- متوسط تقييمك لآخر %d أيام: %.1f/10 (%d تقييم)\n", historyRatingsWindow, avg, n)
	} else {
		b.WriteString("- لا توجد تقييمات بعد، استخدم (⭐️ تقييم اليوم).\n")
	}
	b.WriteString("\n")
	b.WriteString(h.status(rec))
	h.replyMenu(ctx, in, b.String())
}
