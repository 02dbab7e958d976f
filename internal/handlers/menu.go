package handlers

import (
	"context"

	"github.com/mdminegoub-netizen/qaher-bot/internal/models"
	"github.com/mdminegoub-netizen/qaher-bot/internal/telegram"
)

func (h *Handler) buildRoutes() map[string]action {
	return map[string]action{
		"/start":        h.start,
		"/help":         h.text(func() string { return h.Messages.Help }),
		"/streak":       h.streak,
		"/reset":        h.reset,
		"/note":         h.addNote,
		"/rate":         h.rate,
		"/setstart":     h.setStart,
		"/support":      h.support,
		"/history":      h.history,
		"/users":        h.adminOnly(h.users),
		"/last_active":  h.adminOnly(h.lastActive),
		"/stats":        h.adminOnly(h.stats),
		"/broadcast":    h.adminOnly(h.broadcast),
		btnStartJourney: h.startJourney,
		btnCounter:      h.streak,
		btnTip:          h.tip,
		btnEmergency:    h.text(func() string { return h.Messages.Emergency }),
		btnReasons:      h.text(func() string { return h.Messages.Reasons }),
		btnAdhkar:       h.text(func() string { return h.Messages.Adhkar }),
		btnNotes:        h.showNotes,
		btnAddNote:      h.addNote,
		btnEditNote:     h.pickNote(models.PendingNoteEditTarget, txtAskEditIndex),
		btnDeleteNote:   h.pickNote(models.PendingNoteDeleteTarget, txtAskDeleteIndex),
		btnReset:        h.reset,
		btnSetStart:     h.setStart,
		btnRate:         h.rate,
		btnHistory:      h.history,
		btnSupport:      h.support,
		btnDailyOn:      h.setDaily(true),
		btnDailyOff:     h.setDaily(false),
		btnBroadcast:    h.adminOnly(h.broadcast),
		btnStats:        h.adminOnly(h.stats),
	}
}

// menu is the main reply keyboard. The admin gets an extra row.
func (h *Handler) menu(userID int64) [][]string {
	kb := [][]string{
		{btnStartJourney, btnCounter},
		{btnTip, btnEmergency},
		{btnReasons, btnAdhkar},
		{btnNotes, btnAddNote},
		{btnEditNote, btnDeleteNote},
		{btnRate, btnHistory},
		{btnSetStart, btnReset},
		{btnDailyOn, btnDailyOff},
		{btnSupport},
	}
	if h.Relay.IsAdmin(userID) {
		kb = append(kb, []string{btnBroadcast, btnStats})
	}
	return kb
}

// Commands is the command list registered with Telegram.
func Commands() []telegram.Command {
	return []telegram.Command{
		{Name: "start", Description: "القائمة الرئيسية وبدء الرحلة"},
		{Name: "streak", Description: "مدّة الإقلاع الحالية"},
		{Name: "reset", Description: "إعادة ضبط العدّاد"},
		{Name: "setstart", Description: "تحديد تاريخ البداية"},
		{Name: "note", Description: "إضافة ملاحظة"},
		{Name: "rate", Description: "تقييم اليوم"},
		{Name: "history", Description: "سجلّ الانتكاسات والتقييمات"},
		{Name: "support", Description: "مراسلة المشرف"},
		{Name: "cancel", Description: "إلغاء العملية الحالية"},
		{Name: "help", Description: "المساعدة"},
	}
}

func (h *Handler) text(body func() string) action {
	return func(ctx context.Context, in telegram.Inbound, _ *models.UserRecord) {
		h.replyMenu(ctx, in, body())
	}
}

func (h *Handler) adminOnly(act action) action {
	return func(ctx context.Context, in telegram.Inbound, rec *models.UserRecord) {
		if !h.Relay.IsAdmin(in.UserID) {
			h.replyMenu(ctx, in, txtAdminOnly)
			return
		}
		act(ctx, in, rec)
	}
}

// arm sets the pending mode and asks for the input.
func (h *Handler) arm(ctx context.Context, in telegram.Inbound, mode models.PendingMode, ask string) {
	_, err := h.update(ctx, in, func(r *models.UserRecord) error {
		h.Session.SetPending(r, mode)
		return nil
	})
	if err != nil {
		return
	}
	h.prompt(ctx, in, ask)
}

func (h *Handler) tip(ctx context.Context, in telegram.Inbound, _ *models.UserRecord) {
	h.replyMenu(ctx, in, h.Messages.Tip(h.Session.Now()))
}

func (h *Handler) setDaily(enabled bool) action {
	return func(ctx context.Context, in telegram.Inbound, _ *models.UserRecord) {
		_, err := h.update(ctx, in, func(r *models.UserRecord) error {
			r.DailyReminderEnabled = enabled
			return nil
		})
		if err != nil {
			return
		}
		if enabled {
			h.replyMenu(ctx, in, txtDailyOn)
			return
		}
		h.replyMenu(ctx, in, txtDailyOff)
	}
}

func (h *Handler) support(ctx context.Context, in telegram.Inbound, _ *models.UserRecord) {
	if !h.Relay.HasAdmin() {
		h.replyMenu(ctx, in, txtSupportOff)
		return
	}
	h.arm(ctx, in, models.PendingMode{Kind: models.PendingSupport}, txtAskSupport)
}
