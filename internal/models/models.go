package models

import "time"

// DayLayout is the calendar-day key used for ratings (UTC).
const DayLayout = "2006-01-02"

// Profile is the sender identity delivered with every inbound message.
type Profile struct {
	FirstName string
	UserName  string
}

// UserRecord is everything the bot keeps about one telegram user.
type UserRecord struct {
	UserID       int64      `json:"user_id"`
	DisplayName  string     `json:"display_name"`
	Handle       string     `json:"handle"`
	CreatedAt    time.Time  `json:"created_at"`
	LastActiveAt time.Time  `json:"last_active_at"`
	StreakStart  *time.Time `json:"streak_start"` // nil -> journey not started

	Notes        []Note      `json:"notes"`
	RelapseLog   []time.Time `json:"relapse_log"` // append-only
	DailyRatings []Rating    `json:"daily_ratings"`

	DailyReminderEnabled bool        `json:"daily_reminder_enabled"`
	Pending              PendingMode `json:"pending"`

	// StreakCorrupt is set by the store when streak_start could not be parsed.
	// StreakStartRaw keeps the unreadable value; it is written back unchanged
	// until a new start replaces it.
	StreakCorrupt  bool   `json:"-"`
	StreakStartRaw string `json:"-"`
}

// Note is a free-form user note with a stable id.
type Note struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Rating is a single "how was your day" score, one per UTC day.
type Rating struct {
	Day   string `json:"day"` // YYYY-MM-DD
	Score int    `json:"score"`
}

// NewUserRecord returns an empty record with defaults applied.
func NewUserRecord(userID int64) *UserRecord {
	return &UserRecord{
		UserID:               userID,
		DailyReminderEnabled: true,
	}
}

// Started reports whether the streak timer is running.
func (r *UserRecord) Started() bool {
	return r.StreakStart != nil
}

// LatestNote returns the most recently added note text, or "".
func (r *UserRecord) LatestNote() string {
	if len(r.Notes) == 0 {
		return ""
	}
	return r.Notes[len(r.Notes)-1].Text
}

// Clone returns a deep copy so callers never share slices with the store.
func (r *UserRecord) Clone() *UserRecord {
	if r == nil {
		return nil
	}
	c := *r
	if r.StreakStart != nil {
		t := *r.StreakStart
		c.StreakStart = &t
	}
	c.Notes = append([]Note(nil), r.Notes...)
	c.RelapseLog = append([]time.Time(nil), r.RelapseLog...)
	c.DailyRatings = append([]Rating(nil), r.DailyRatings...)
	c.Pending.NoteIDs = append([]string(nil), r.Pending.NoteIDs...)
	return &c
}
