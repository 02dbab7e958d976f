// Package session owns the streak lifecycle and the per-user pending-input
// slot. All operations mutate a *models.UserRecord in place and never touch
// storage; callers run them inside storage.Store.Update.
package session

import (
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/mdminegoub-netizen/qaher-bot/internal/duration"
	"github.com/mdminegoub-netizen/qaher-bot/internal/models"
)

// Recoverable input errors. The caller re-prompts and keeps the pending mode.
var (
	ErrNotStarted       = errors.New("session: streak not started")
	ErrAlreadyStarted   = errors.New("session: streak already running")
	ErrInvalidStart     = errors.New("session: invalid start date")
	ErrFutureStart      = errors.New("session: start date in the future")
	ErrInvalidRating    = errors.New("session: rating out of range")
	ErrNoteNotFound     = errors.New("session: note not found")
	ErrInvalidNoteIndex = errors.New("session: invalid note index")
	ErrEmptyNote        = errors.New("session: empty note")
)

// Custom start input layouts, interpreted in UTC.
const (
	StartDateLayout     = "2006-01-02"
	StartDateTimeLayout = "2006-01-02 15:04"
)

const (
	MinRating = 1
	MaxRating = 10

	maxBackdateDays = 100 * 365
)

// Machine applies session transitions using its clock.
type Machine struct {
	clock      clockwork.Clock
	pendingTTL time.Duration
}

// New creates a Machine. A zero pendingTTL keeps pending modes forever.
func New(clock clockwork.Clock, pendingTTL time.Duration) *Machine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Machine{clock: clock, pendingTTL: pendingTTL}
}

// Now is the current instant in UTC.
func (m *Machine) Now() time.Time {
	return m.clock.Now().UTC()
}

// Touch records an inbound message: first-contact time, profile cache,
// last activity and pending-mode expiry.
func (m *Machine) Touch(rec *models.UserRecord, p models.Profile) {
	now := m.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if now.After(rec.LastActiveAt) {
		rec.LastActiveAt = now
	}
	if p.FirstName != "" {
		rec.DisplayName = p.FirstName
	}
	rec.Handle = p.UserName

	if m.pendingTTL > 0 && rec.Pending.Active() && !rec.Pending.SetAt.IsZero() &&
		now.Sub(rec.Pending.SetAt) > m.pendingTTL {
		log.Printf("user %d: pending mode %s expired", rec.UserID, rec.Pending.Kind)
		rec.Pending = models.PendingMode{}
	}
}

// StartJourney starts the streak now. Starting a running streak is a no-op
// and returns false.
func (m *Machine) StartJourney(rec *models.UserRecord) bool {
	if err := fire(rec, eventStart); err != nil {
		return false
	}
	now := m.Now()
	rec.StreakStart = &now
	rec.StreakCorrupt, rec.StreakStartRaw = false, ""
	return true
}

// ResetCounter logs a relapse and restarts the streak at the same instant.
func (m *Machine) ResetCounter(rec *models.UserRecord) error {
	if err := fire(rec, eventReset); err != nil {
		return err
	}
	now := m.Now()
	if n := len(rec.RelapseLog); n > 0 && now.Before(rec.RelapseLog[n-1]) {
		now = rec.RelapseLog[n-1]
	}
	rec.RelapseLog = append(rec.RelapseLog, now)
	rec.StreakStart = &now
	return nil
}

// SetCustomStart backdates the streak. input is either a whole number of
// days ago or a date / date-time in UTC. The relapse log is left alone.
func (m *Machine) SetCustomStart(rec *models.UserRecord, input string) error {
	start, err := m.ParseStart(input)
	if err != nil {
		return err
	}
	if err := fire(rec, eventBackdate); err != nil {
		return err
	}
	rec.StreakStart = &start
	rec.StreakCorrupt, rec.StreakStartRaw = false, ""
	return nil
}

// ParseStart resolves custom start input to an instant not after now.
func (m *Machine) ParseStart(input string) (time.Time, error) {
	input = strings.TrimSpace(input)
	now := m.Now()

	if days, err := strconv.Atoi(input); err == nil {
		if days < 0 || days > maxBackdateDays {
			return time.Time{}, ErrInvalidStart
		}
		return now.Add(-time.Duration(days) * duration.Day), nil
	}

	for _, layout := range []string{StartDateTimeLayout, StartDateLayout} {
		t, err := time.ParseInLocation(layout, input, time.UTC)
		if err != nil {
			continue
		}
		if t.After(now) {
			return time.Time{}, ErrFutureStart
		}
		return t, nil
	}
	return time.Time{}, ErrInvalidStart
}

// Elapsed returns the streak length, clamped at zero. ok is false when the
// journey has not started.
func (m *Machine) Elapsed(rec *models.UserRecord) (time.Duration, bool) {
	d, ok := duration.Elapsed(rec.StreakStart, m.Now())
	if !ok {
		return 0, false
	}
	if d < 0 {
		log.Printf("warning: user %d: streak start %s is in the future", rec.UserID, rec.StreakStart.Format(time.RFC3339))
		return 0, true
	}
	return d, true
}

// SetPending replaces whatever mode was pending.
func (m *Machine) SetPending(rec *models.UserRecord, mode models.PendingMode) {
	mode.SetAt = m.Now()
	rec.Pending = mode
}

// ClearPending drops the pending mode and reports whether one was set.
func (m *Machine) ClearPending(rec *models.UserRecord) bool {
	had := rec.Pending.Active()
	rec.Pending = models.PendingMode{}
	return had
}

// Rate stores today's rating, replacing an earlier rating of the same day.
func (m *Machine) Rate(rec *models.UserRecord, input string) (int, error) {
	score, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || score < MinRating || score > MaxRating {
		return 0, ErrInvalidRating
	}
	day := m.Now().Format(models.DayLayout)
	for i := range rec.DailyRatings {
		if rec.DailyRatings[i].Day == day {
			rec.DailyRatings[i].Score = score
			return score, nil
		}
	}
	rec.DailyRatings = append(rec.DailyRatings, models.Rating{Day: day, Score: score})
	return score, nil
}

// AddNote appends a note with a fresh id.
func (m *Machine) AddNote(rec *models.UserRecord, text string) (models.Note, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Note{}, ErrEmptyNote
	}
	now := m.Now()
	n := models.Note{ID: uuid.NewString(), Text: text, CreatedAt: now, UpdatedAt: now}
	rec.Notes = append(rec.Notes, n)
	return n, nil
}

// EditNote replaces the text of the note with the given id.
func (m *Machine) EditNote(rec *models.UserRecord, id, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyNote
	}
	for i := range rec.Notes {
		if rec.Notes[i].ID == id {
			rec.Notes[i].Text = text
			rec.Notes[i].UpdatedAt = m.Now()
			return nil
		}
	}
	return ErrNoteNotFound
}

// DeleteNote removes the note with the given id.
func (m *Machine) DeleteNote(rec *models.UserRecord, id string) error {
	for i := range rec.Notes {
		if rec.Notes[i].ID == id {
			rec.Notes = append(rec.Notes[:i], rec.Notes[i+1:]...)
			return nil
		}
	}
	return ErrNoteNotFound
}

// RecentNotes returns the last n notes, oldest first.
func RecentNotes(rec *models.UserRecord, n int) []models.Note {
	if n <= 0 || len(rec.Notes) <= n {
		return rec.Notes
	}
	return rec.Notes[len(rec.Notes)-n:]
}

// NoteIDs lists the ids of notes in display order.
func NoteIDs(notes []models.Note) []string {
	ids := make([]string, len(notes))
	for i, n := range notes {
		ids[i] = n.ID
	}
	return ids
}

// ResolveNoteIndex maps a 1-based position in the listing captured by mode
// to the stable note id. Notes added after the listing do not shift it.
func ResolveNoteIndex(mode models.PendingMode, input string) (string, error) {
	idx, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || idx < 1 || idx > len(mode.NoteIDs) {
		return "", ErrInvalidNoteIndex
	}
	return mode.NoteIDs[idx-1], nil
}

// AverageRating returns the mean of the last n ratings and how many were used.
func AverageRating(rec *models.UserRecord, n int) (float64, int) {
	ratings := rec.DailyRatings
	if n > 0 && len(ratings) > n {
		ratings = ratings[len(ratings)-n:]
	}
	if len(ratings) == 0 {
		return 0, 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r.Score
	}
	return float64(sum) / float64(len(ratings)), len(ratings)
}
