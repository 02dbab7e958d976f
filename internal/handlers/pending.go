package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/mdminegoub-netizen/qaher-bot/internal/models"
	"github.com/mdminegoub-netizen/qaher-bot/internal/relay"
	"github.com/mdminegoub-netizen/qaher-bot/internal/session"
	"github.com/mdminegoub-netizen/qaher-bot/internal/telegram"
)

var errModeChanged = errors.New("pending mode changed")

// handlePending feeds the message to the handler of the pending kind. It
// returns false when the mode is gone and the message should be routed as
// usual.
func (h *Handler) handlePending(ctx context.Context, in telegram.Inbound, kind models.PendingKind) bool {
	switch kind {
	case models.PendingNote:
		return h.pendingNote(ctx, in)
	case models.PendingSupport:
		return h.pendingSupport(ctx, in)
	case models.PendingBroadcast:
		return h.pendingBroadcast(ctx, in)
	case models.PendingCustomStart:
		return h.pendingCustomStart(ctx, in)
	case models.PendingRating:
		return h.pendingRating(ctx, in)
	case models.PendingNoteEditTarget:
		return h.pendingNoteEditTarget(ctx, in)
	case models.PendingNoteEditText:
		return h.pendingNoteEditText(ctx, in)
	case models.PendingNoteDeleteTarget:
		return h.pendingNoteDeleteTarget(ctx, in)
	}
	log.Printf("warning: user %d: unknown pending mode %q dropped", in.UserID, kind)
	_, _ = h.consume(ctx, in, kind, nil)
	return false
}

// consume applies fn if kind is still the pending mode. The mode is cleared
// unless fn sets another one. When fn fails nothing is stored, so the mode
// stays armed for another try.
func (h *Handler) consume(ctx context.Context, in telegram.Inbound, kind models.PendingKind,
	fn func(r *models.UserRecord, mode models.PendingMode) error) (*models.UserRecord, error) {
	return h.DB.Update(ctx, in.UserID, func(r *models.UserRecord) error {
		if r.Pending.Kind != kind {
			return errModeChanged
		}
		mode := r.Pending
		h.Session.ClearPending(r)
		if fn == nil {
			return nil
		}
		return fn(r, mode)
	})
}

// settle reports a consume error to the user. ok is true when the action
// was applied; handled is false when routing should continue.
func (h *Handler) settle(ctx context.Context, in telegram.Inbound, err error) (handled, ok bool) {
	if err == nil {
		return true, true
	}
	if errors.Is(err, errModeChanged) {
		return false, false
	}
	if txt := inputErrorText(err); txt != "" {
		h.prompt(ctx, in, txt)
		return true, false
	}
	log.Printf("pending input from %d: %v", in.UserID, err)
	h.replyMenu(ctx, in, txtStorageError)
	return true, false
}

func (h *Handler) pendingNote(ctx context.Context, in telegram.Inbound) bool {
	_, err := h.consume(ctx, in, models.PendingNote, func(r *models.UserRecord, _ models.PendingMode) error {
		_, err := h.Session.AddNote(r, in.Text)
		return err
	})
	handled, ok := h.settle(ctx, in, err)
	if ok {
		h.replyMenu(ctx, in, txtNoteSaved)
	}
	return handled
}

func (h *Handler) pendingSupport(ctx context.Context, in telegram.Inbound) bool {
	rec, err := h.consume(ctx, in, models.PendingSupport, nil)
	handled, ok := h.settle(ctx, in, err)
	if !ok {
		return handled
	}
	if err := h.Relay.ForwardToAdmin(ctx, rec, in.Text); err != nil {
		if errors.Is(err, relay.ErrNoAdmin) {
			h.replyMenu(ctx, in, txtSupportOff)
			return true
		}
		log.Println(err)
		h.replyMenu(ctx, in, txtSupportFailed)
		return true
	}
	h.replyMenu(ctx, in, txtSupportSent)
	return true
}

func (h *Handler) pendingBroadcast(ctx context.Context, in telegram.Inbound) bool {
	_, err := h.consume(ctx, in, models.PendingBroadcast, nil)
	handled, ok := h.settle(ctx, in, err)
	if !ok {
		return handled
	}
	if !h.Relay.IsAdmin(in.UserID) {
		h.replyMenu(ctx, in, txtAdminOnly)
		return true
	}
	res, err := h.Relay.Broadcast(ctx, in.Text)
	if err != nil {
		log.Println(err)
		h.replyMenu(ctx, in, txtBroadcastFailed)
		return true
	}
	h.replyMenu(ctx, in, fmt.Sprintf(txtBroadcastDone, res.Sent, res.Attempted, res.Failed))
	return true
}

func (h *Handler) pendingCustomStart(ctx context.Context, in telegram.Inbound) bool {
	rec, err := h.consume(ctx, in, models.PendingCustomStart, func(r *models.UserRecord, _ models.PendingMode) error {
		return h.Session.SetCustomStart(r, in.Text)
	})
	handled, ok := h.settle(ctx, in, err)
	if ok {
		h.replyMenu(ctx, in, txtStartSet+"\n\n"+h.status(rec))
	}
	return handled
}

func (h *Handler) pendingRating(ctx context.Context, in telegram.Inbound) bool {
	var score int
	_, err := h.consume(ctx, in, models.PendingRating, func(r *models.UserRecord, _ models.PendingMode) error {
		var err error
		score, err = h.Session.Rate(r, in.Text)
		return err
	})
	handled, ok := h.settle(ctx, in, err)
	if ok {
		h.replyMenu(ctx, in, fmt.Sprintf(txtRated, score))
	}
	return handled
}

func (h *Handler) pendingNoteEditTarget(ctx context.Context, in telegram.Inbound) bool {
	var gone bool
	_, err := h.consume(ctx, in, models.PendingNoteEditTarget, func(r *models.UserRecord, mode models.PendingMode) error {
		id, err := session.ResolveNoteIndex(mode, in.Text)
		if err != nil {
			return err
		}
		if !hasNote(r, id) {
			gone = true
			return nil
		}
		h.Session.SetPending(r, models.PendingMode{Kind: models.PendingNoteEditText, NoteID: id})
		return nil
	})
	handled, ok := h.settle(ctx, in, err)
	if !ok {
		return handled
	}
	if gone {
		h.replyMenu(ctx, in, txtNoteGone)
		return true
	}
	pos, _ := strconv.Atoi(strings.TrimSpace(in.Text))
	h.prompt(ctx, in, fmt.Sprintf(txtAskEditText, pos))
	return true
}

func (h *Handler) pendingNoteEditText(ctx context.Context, in telegram.Inbound) bool {
	var gone bool
	_, err := h.consume(ctx, in, models.PendingNoteEditText, func(r *models.UserRecord, mode models.PendingMode) error {
		err := h.Session.EditNote(r, mode.NoteID, in.Text)
		if errors.Is(err, session.ErrNoteNotFound) {
			gone = true
			return nil
		}
		return err
	})
	handled, ok := h.settle(ctx, in, err)
	if !ok {
		return handled
	}
	if gone {
		h.replyMenu(ctx, in, txtNoteGone)
		return true
	}
	h.replyMenu(ctx, in, txtNoteEdited)
	return true
}

func (h *Handler) pendingNoteDeleteTarget(ctx context.Context, in telegram.Inbound) bool {
	var gone bool
	_, err := h.consume(ctx, in, models.PendingNoteDeleteTarget, func(r *models.UserRecord, mode models.PendingMode) error {
		id, err := session.ResolveNoteIndex(mode, in.Text)
		if err != nil {
			return err
		}
		if err := h.Session.DeleteNote(r, id); errors.Is(err, session.ErrNoteNotFound) {
			gone = true
		}
		return nil
	})
	handled, ok := h.settle(ctx, in, err)
	if !ok {
		return handled
	}
	if gone {
		h.replyMenu(ctx, in, txtNoteGone)
		return true
	}
	h.replyMenu(ctx, in, txtNoteDeleted)
	return true
}

func hasNote(r *models.UserRecord, id string) bool {
	for _, n := range r.Notes {
		if n.ID == id {
			return true
		}
	}
	return false
}
