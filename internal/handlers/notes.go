package handlers

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/mdminegoub-netizen/qaher-bot/internal/models"
	"github.com/mdminegoub-netizen/qaher-bot/internal/session"
	"github.com/mdminegoub-netizen/qaher-bot/internal/telegram"
)

// formatNotes numbers notes from 1 in display order.
func formatNotes(notes []models.Note, total int) string {
	var b strings.Builder
	b.WriteString(txtNotesHeader)
	for i, n := range notes {
		fmt.Fprintf(&b, "%d. %s\n", i+1, n.Text)
	}
	if total > len(notes) {
		fmt.Fprintf(&b, "\n(آخر %d من %d ملاحظة)", len(notes), total)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (h *Handler) showNotes(ctx context.Context, in telegram.Inbound, rec *models.UserRecord) {
	if len(rec.Notes) == 0 {
		h.replyMenu(ctx, in, txtNoNotes)
		return
	}
	h.replyMenu(ctx, in, formatNotes(session.RecentNotes(rec, h.NotesShown), len(rec.Notes)))
}

func (h *Handler) addNote(ctx context.Context, in telegram.Inbound, _ *models.UserRecord) {
	h.arm(ctx, in, models.PendingMode{Kind: models.PendingNote}, txtAskNote)
}

// pickNote shows the listing and arms kind with the ids it shows, so the
// number the user sends maps to the note they saw.
func (h *Handler) pickNote(kind models.PendingKind, ask string) action {
	return func(ctx context.Context, in telegram.Inbound, _ *models.UserRecord) {
		var listing string
		_, err := h.update(ctx, in, func(r *models.UserRecord) error {
			if len(r.Notes) == 0 {
				return nil
			}
			shown := session.RecentNotes(r, h.NotesShown)
			listing = formatNotes(shown, len(r.Notes))
			h.Session.SetPending(r, models.PendingMode{Kind: kind, NoteIDs: session.NoteIDs(shown)})
			return nil
		})
		if err != nil {
			return
		}
		if listing == "" {
			h.replyMenu(ctx, in, txtNoNotes)
			return
		}
		h.prompt(ctx, in, listing+"\n\n"+ask)
	}
}

// saveFallbackNote stores unmatched text as a note.
func (h *Handler) saveFallbackNote(ctx context.Context, in telegram.Inbound) {
	_, err := h.DB.Update(ctx, in.UserID, func(r *models.UserRecord) error {
		_, err := h.Session.AddNote(r, in.Text)
		return err
	})
	if err != nil {
		log.Printf("note from %d: %v", in.UserID, err)
		h.replyMenu(ctx, in, txtStorageError)
		return
	}
	h.replyMenu(ctx, in, txtFallbackNoteAck)
}
