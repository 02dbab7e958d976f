package storage

import (
	"encoding/json"
	"log"
	"time"

	"github.com/mdminegoub-netizen/qaher-bot/internal/models"
)

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

// parseTime never fails: corrupt values are logged and read as absent.
func parseTime(userID int64, field, s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		log.Printf("warning: user %d: unreadable %s %q: %v", userID, field, s, err)
		return time.Time{}, false
	}
	return t.UTC(), true
}

// storedRecord is the on-disk shape of a record. Timestamps stay strings so
// a corrupt value can be detected per field instead of failing the decode.
type storedRecord struct {
	UserID       int64              `json:"user_id"`
	DisplayName  string             `json:"display_name"`
	Handle       string             `json:"handle"`
	CreatedAt    string             `json:"created_at"`
	LastActiveAt string             `json:"last_active_at"`
	StreakStart  *string            `json:"streak_start"`
	Notes        []storedNote       `json:"notes"`
	RelapseLog   []string           `json:"relapse_log"`
	DailyRatings []models.Rating    `json:"daily_ratings"`
	DailyEnabled *bool              `json:"daily_reminder_enabled"` // nil -> enabled
	Pending      models.PendingMode `json:"pending"`
}

type storedNote struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toStored(r *models.UserRecord) storedRecord {
	s := storedRecord{
		UserID:       r.UserID,
		DisplayName:  r.DisplayName,
		Handle:       r.Handle,
		CreatedAt:    formatTime(r.CreatedAt),
		LastActiveAt: formatTime(r.LastActiveAt),
		DailyRatings: append([]models.Rating(nil), r.DailyRatings...),
		Pending:      r.Pending,
	}
	enabled := r.DailyReminderEnabled
	s.DailyEnabled = &enabled
	if v, ok := streakValue(r); ok {
		s.StreakStart = &v
	}
	for _, n := range r.Notes {
		s.Notes = append(s.Notes, storedNote{
			ID:        n.ID,
			Text:      n.Text,
			CreatedAt: formatTime(n.CreatedAt),
			UpdatedAt: formatTime(n.UpdatedAt),
		})
	}
	for _, t := range r.RelapseLog {
		s.RelapseLog = append(s.RelapseLog, formatTime(t))
	}
	return s
}

func fromStored(s storedRecord) *models.UserRecord {
	r := models.NewUserRecord(s.UserID)
	r.DisplayName = s.DisplayName
	r.Handle = s.Handle
	r.CreatedAt, _ = parseTime(s.UserID, "created_at", s.CreatedAt)
	r.LastActiveAt, _ = parseTime(s.UserID, "last_active_at", s.LastActiveAt)
	if s.StreakStart != nil && *s.StreakStart != "" {
		if t, ok := parseTime(s.UserID, "streak_start", *s.StreakStart); ok {
			r.StreakStart = &t
		} else {
			r.StreakCorrupt, r.StreakStartRaw = true, *s.StreakStart
		}
	}
	for _, n := range s.Notes {
		created, _ := parseTime(s.UserID, "note created_at", n.CreatedAt)
		updated, _ := parseTime(s.UserID, "note updated_at", n.UpdatedAt)
		r.Notes = append(r.Notes, models.Note{ID: n.ID, Text: n.Text, CreatedAt: created, UpdatedAt: updated})
	}
	for _, v := range s.RelapseLog {
		if t, ok := parseTime(s.UserID, "relapse", v); ok {
			r.RelapseLog = append(r.RelapseLog, t)
		}
	}
	r.DailyRatings = append(r.DailyRatings, s.DailyRatings...)
	if s.DailyEnabled != nil {
		r.DailyReminderEnabled = *s.DailyEnabled
	}
	r.Pending = s.Pending
	return r
}

// streakValue is the streak_start to store: the start itself, or the raw
// value of a corrupt record so an operator can still recover it.
func streakValue(r *models.UserRecord) (string, bool) {
	switch {
	case r.StreakStart != nil:
		return formatTime(*r.StreakStart), true
	case r.StreakCorrupt && r.StreakStartRaw != "":
		return r.StreakStartRaw, true
	}
	return "", false
}

func encodePending(p models.PendingMode) (string, error) {
	if !p.Active() {
		return "", nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodePending drops unreadable pending state; it is transient anyway.
func decodePending(userID int64, s string) models.PendingMode {
	var p models.PendingMode
	if s == "" {
		return p
	}
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		log.Printf("warning: user %d: unreadable pending mode: %v", userID, err)
		return models.PendingMode{}
	}
	return p
}
