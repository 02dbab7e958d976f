package handlers

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/mdminegoub-netizen/qaher-bot/internal/messages"
	"github.com/mdminegoub-netizen/qaher-bot/internal/models"
	"github.com/mdminegoub-netizen/qaher-bot/internal/relay"
	"github.com/mdminegoub-netizen/qaher-bot/internal/session"
	"github.com/mdminegoub-netizen/qaher-bot/internal/storage"
	"github.com/mdminegoub-netizen/qaher-bot/internal/telegram"
)

const defaultNotesShown = 10

type Handler struct {
	Bot        telegram.Sender
	DB         storage.Store
	Session    *session.Machine
	Relay      *relay.Relay
	Messages   *messages.Catalog
	NotesShown int

	routes map[string]action
}

type action func(ctx context.Context, in telegram.Inbound, rec *models.UserRecord)

func NewHandler(bot telegram.Sender, db storage.Store, sm *session.Machine, r *relay.Relay, msgs *messages.Catalog, notesShown int) *Handler {
	if notesShown <= 0 {
		notesShown = defaultNotesShown
	}
	h := &Handler{
		Bot:        bot,
		DB:         db,
		Session:    sm,
		Relay:      r,
		Messages:   msgs,
		NotesShown: notesShown,
	}
	h.routes = h.buildRoutes()
	return h
}

// HandleMessage routes one inbound text message. Priority: cancel, admin
// reply to a forwarded support message, pending input, menu, note.
func (h *Handler) HandleMessage(ctx context.Context, in telegram.Inbound) {
	rec, err := h.DB.Update(ctx, in.UserID, func(r *models.UserRecord) error {
		h.Session.Touch(r, models.Profile{FirstName: in.FirstName, UserName: in.UserName})
		return nil
	})
	if err != nil {
		log.Printf("touch %d: %v", in.UserID, err)
		h.reply(ctx, in, txtStorageError, nil)
		return
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return
	}
	in.Text = text

	if text == btnCancel || text == "/cancel" {
		h.cancel(ctx, in)
		return
	}

	if in.ReplyToMessageID != 0 && h.Relay.IsAdmin(in.UserID) && h.adminReply(ctx, in) {
		return
	}

	if rec.Pending.Active() && h.handlePending(ctx, in, rec.Pending.Kind) {
		return
	}

	h.route(ctx, in, rec)
}

func (h *Handler) route(ctx context.Context, in telegram.Inbound, rec *models.UserRecord) {
	if act, ok := h.routes[in.Text]; ok {
		act(ctx, in, rec)
		return
	}
	h.saveFallbackNote(ctx, in)
}

func (h *Handler) cancel(ctx context.Context, in telegram.Inbound) {
	var had bool
	_, err := h.DB.Update(ctx, in.UserID, func(r *models.UserRecord) error {
		had = h.Session.ClearPending(r)
		return nil
	})
	if err != nil {
		log.Printf("cancel %d: %v", in.UserID, err)
		h.replyMenu(ctx, in, txtStorageError)
		return
	}
	if had {
		h.replyMenu(ctx, in, txtCancelled)
		return
	}
	h.replyMenu(ctx, in, txtNothingCancel)
}

// adminReply relays the admin's reply to the user behind the replied-to
// message. It returns false when the message is not a reply to a forward.
func (h *Handler) adminReply(ctx context.Context, in telegram.Inbound) bool {
	target, ok, err := h.Relay.ReplyTarget(ctx, in.ReplyToMessageID)
	if err != nil {
		log.Printf("reply target %d: %v", in.ReplyToMessageID, err)
		return false
	}
	if !ok {
		return false
	}
	if err := h.Relay.DeliverReply(ctx, target, in.Text); err != nil {
		log.Println(err)
		h.replyMenu(ctx, in, txtAdminReplyFailed)
		return true
	}
	h.replyMenu(ctx, in, txtAdminReplySent)
	return true
}

// update runs fn inside a store update and reports storage failures to the
// user. Recoverable input errors are returned for the caller to re-prompt.
func (h *Handler) update(ctx context.Context, in telegram.Inbound, fn func(*models.UserRecord) error) (*models.UserRecord, error) {
	rec, err := h.DB.Update(ctx, in.UserID, fn)
	if err != nil && inputErrorText(err) == "" {
		log.Printf("update %d: %v", in.UserID, err)
		h.replyMenu(ctx, in, txtStorageError)
	}
	return rec, err
}

// inputErrorText maps recoverable input errors to a corrective prompt.
func inputErrorText(err error) string {
	switch {
	case errors.Is(err, session.ErrInvalidStart):
		return txtInvalidStart
	case errors.Is(err, session.ErrFutureStart):
		return txtFutureStart
	case errors.Is(err, session.ErrInvalidRating):
		return txtInvalidRating
	case errors.Is(err, session.ErrInvalidNoteIndex):
		return txtInvalidIndex
	}
	return ""
}

// ------------- replies --------------------

func (h *Handler) reply(ctx context.Context, in telegram.Inbound, text string, kb [][]string) {
	h.send(ctx, telegram.Outgoing{ChatID: in.ChatID, Text: text, Keyboard: kb})
}

func (h *Handler) replyMenu(ctx context.Context, in telegram.Inbound, text string) {
	h.reply(ctx, in, text, h.menu(in.UserID))
}

func (h *Handler) prompt(ctx context.Context, in telegram.Inbound, text string) {
	h.reply(ctx, in, text, [][]string{{btnCancel}})
}

// send splits long texts; the keyboard goes with the last part.
func (h *Handler) send(ctx context.Context, msg telegram.Outgoing) {
	parts := telegram.SplitText(msg.Text, telegram.MaxMessageLength)
	for i, p := range parts {
		out := msg
		out.Text = p
		if i < len(parts)-1 {
			out.Keyboard = nil
			out.RemoveKeyboard = false
		}
		if _, err := h.Bot.Send(ctx, out); err != nil {
			log.Printf("send to %d: %v", msg.ChatID, err)
			return
		}
	}
}
