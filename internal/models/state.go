package models

import "time"

// PendingKind tags what the next free-text message from a user means.
type PendingKind string

const (
	PendingNone             PendingKind = ""
	PendingNote             PendingKind = "awaiting_note"
	PendingSupport          PendingKind = "awaiting_support"
	PendingBroadcast        PendingKind = "awaiting_broadcast"
	PendingCustomStart      PendingKind = "awaiting_custom_start"
	PendingRating           PendingKind = "awaiting_rating"
	PendingNoteEditTarget   PendingKind = "awaiting_note_edit_target"
	PendingNoteEditText     PendingKind = "awaiting_note_edit_text"
	PendingNoteDeleteTarget PendingKind = "awaiting_note_delete_target"
)

// PendingMode is the single pending-input slot of a user. At most one mode
// can be active because there is only one field to hold it.
type PendingMode struct {
	Kind PendingKind `json:"kind,omitempty"`
	// NoteID is the note being edited (PendingNoteEditText).
	NoteID string `json:"note_id,omitempty"`
	// NoteIDs is the listing the user picks a position from.
	NoteIDs []string  `json:"note_ids,omitempty"`
	SetAt   time.Time `json:"set_at,omitempty"`
}

// Active reports whether a mode is set.
func (m PendingMode) Active() bool {
	return m.Kind != PendingNone
}
