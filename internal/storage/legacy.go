package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// legacyTimeLayout is a naive ISO timestamp (Python isoformat of utcnow);
// fractional seconds are accepted when parsing.
const legacyTimeLayout = "2006-01-02T15:04:05"

// legacyRecord is one user of the first bot's user_data.json, which keys
// records by user id at the top level.
type legacyRecord struct {
	Name         *string  `json:"name"`
	CreatedAt    *string  `json:"created_at"`
	LastActive   *string  `json:"last_active"`
	StreakStart  *string  `json:"streak_start"`
	Relapses     []string `json:"relapses"`
	Notes        *string  `json:"notes"` // one free-text note
	DailyEnabled *bool    `json:"daily_enabled"`
}

var errUnknownDocument = errors.New("neither a qaher document nor a legacy user_data.json")

// decodeDocument accepts the current {"users":…,"relay_refs":…} document or
// the legacy top-level map of user id to record.
func decodeDocument(b []byte) (doc fileDocument, legacy bool, err error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(b, &top); err != nil {
		return doc, false, err
	}
	_, hasUsers := top["users"]
	_, hasRefs := top["relay_refs"]
	if hasUsers || hasRefs || len(top) == 0 {
		err := json.Unmarshal(b, &doc)
		return doc, false, err
	}

	doc.Users = make(map[string]storedRecord, len(top))
	for key, raw := range top {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return doc, false, fmt.Errorf("%w: top-level key %q", errUnknownDocument, key)
		}
		var lr legacyRecord
		if err := json.Unmarshal(raw, &lr); err != nil {
			return doc, false, fmt.Errorf("legacy user %d: %w", id, err)
		}
		doc.Users[key] = lr.toStored(id)
	}
	return doc, true, nil
}

// toStored maps the legacy fields onto the current record shape. Timestamps
// are re-encoded so that fromStored applies the usual corruption handling.
func (lr legacyRecord) toStored(userID int64) storedRecord {
	s := storedRecord{
		UserID:       userID,
		CreatedAt:    legacyTime(userID, "created_at", lr.CreatedAt),
		LastActiveAt: legacyTime(userID, "last_active", lr.LastActive),
		DailyEnabled: lr.DailyEnabled,
	}
	if lr.Name != nil {
		s.DisplayName = *lr.Name
	}
	if lr.StreakStart != nil && *lr.StreakStart != "" {
		v := legacyTime(userID, "streak_start", lr.StreakStart)
		if v == "" {
			v = *lr.StreakStart // unreadable: keep it so the record is flagged corrupt
		}
		s.StreakStart = &v
	}
	for _, r := range lr.Relapses {
		if v := legacyTime(userID, "relapse", &r); v != "" {
			s.RelapseLog = append(s.RelapseLog, v)
		}
	}
	if lr.Notes != nil && *lr.Notes != "" {
		at := s.LastActiveAt
		if at == "" {
			at = s.CreatedAt
		}
		s.Notes = []storedNote{{ID: uuid.NewString(), Text: *lr.Notes, CreatedAt: at, UpdatedAt: at}}
	}
	return s
}

// legacyTime converts a naive UTC or RFC 3339 timestamp to the stored form.
// Unreadable values are logged and returned as "".
func legacyTime(userID int64, field string, v *string) string {
	if v == nil || *v == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339Nano, *v); err == nil {
		return formatTime(t)
	}
	t, err := time.ParseInLocation(legacyTimeLayout, *v, time.UTC)
	if err != nil {
		log.Printf("warning: legacy user %d: unreadable %s %q: %v", userID, field, *v, err)
		return ""
	}
	return formatTime(t)
}

// backupLegacy keeps the original legacy file next to path before the first
// write replaces it with the current document.
func backupLegacy(path string, b []byte) error {
	backup := path + ".legacy"
	if _, err := os.Stat(backup); err == nil {
		return nil
	}
	if err := os.WriteFile(backup, b, 0o600); err != nil {
		return fmt.Errorf("back up legacy %s: %w", path, err)
	}
	log.Printf("converted legacy %s, original kept at %s", path, backup)
	return nil
}
