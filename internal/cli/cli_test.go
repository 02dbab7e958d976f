package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mdminegoub-netizen/qaher-bot/internal/models"
	"github.com/mdminegoub-netizen/qaher-bot/internal/storage"
)

var now = time.Date(2025, 5, 8, 9, 30, 0, 0, time.UTC)

func seed(t *testing.T, s storage.Store) {
	t.Helper()
	ctx := context.Background()
	start := now.Add(-72 * time.Hour)
	for _, id := range []int64{1, 2, 3} {
		id := id
		if _, err := s.Update(ctx, id, func(r *models.UserRecord) error {
			r.DisplayName = "user"
			r.LastActiveAt = now.Add(-time.Duration(id-1) * 24 * time.Hour)
			r.DailyReminderEnabled = id != 3
			if id == 1 {
				r.StreakStart = &start
				r.Notes = []models.Note{{ID: "n1", Text: "keep going", CreatedAt: start, UpdatedAt: start}}
			}
			return nil
		}); err != nil {
			t.Fatalf("seed %d: %v", id, err)
		}
	}
}

func TestPrintStats(t *testing.T) {
	s := storage.NewMemoryStore()
	seed(t, s)

	var out bytes.Buffer
	if err := printStats(context.Background(), &out, s, now); err != nil {
		t.Fatalf("stats: %v", err)
	}
	for _, want := range []string{"users:           3", "active today:    1", "reminders on:    2", "running streaks: 1"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("missing %q in:\n%s", want, out.String())
		}
	}
}

func TestCopyRecords_JSONToSQLite(t *testing.T) {
	ctx := context.Background()
	src, err := storage.Open(storage.DriverJSON, filepath.Join(t.TempDir(), "user_data.json"))
	if err != nil {
		t.Fatalf("open src: %v", err)
	}
	defer src.Close()
	seed(t, src)

	dst, err := storage.Open(storage.DriverSQLite, filepath.Join(t.TempDir(), "bot.db"))
	if err != nil {
		t.Fatalf("open dst: %v", err)
	}
	defer dst.Close()

	n, err := copyRecords(ctx, src, dst)
	if err != nil {
		t.Fatalf("copy: %v", err)
	}
	if n != 3 {
		t.Fatalf("copied %d records", n)
	}

	got, err := dst.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Started() || !got.StreakStart.Equal(now.Add(-72*time.Hour)) {
		t.Fatalf("streak start = %v", got.StreakStart)
	}
	if got.LatestNote() != "keep going" {
		t.Fatalf("notes = %+v", got.Notes)
	}
	at := now.Add(-time.Hour)
	if err := src.PutRelayRef(ctx, storage.RelayRef{MessageID: 501, UserID: 1, CreatedAt: at}); err != nil {
		t.Fatalf("put ref: %v", err)
	}
	if n, err := copyRelayRefs(ctx, src, dst); err != nil || n != 1 {
		t.Fatalf("copy refs = %d, %v", n, err)
	}
	if id, err := dst.RelayTarget(ctx, 501); err != nil || id != 1 {
		t.Fatalf("relay target after migrate = %d, %v", id, err)
	}

	third, err := dst.Get(ctx, 3)
	if err != nil {
		t.Fatalf("get 3: %v", err)
	}
	if third.DailyReminderEnabled {
		t.Fatalf("reminder flag not copied")
	}
}

func TestCopyRecords_LegacyFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "user_data.json")
	legacy := `{"123":{"name":"Ali","notes":"remember why","streak_start":"2024-03-01T10:00:00.123456","relapses":[],"daily_enabled":true,"last_active":"2024-03-02T12:30:00","chat_id":123}}`
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	src, err := storage.Open(storage.DriverJSON, path)
	if err != nil {
		t.Fatalf("open src: %v", err)
	}
	defer src.Close()
	dst, err := storage.Open(storage.DriverSQLite, filepath.Join(t.TempDir(), "bot.db"))
	if err != nil {
		t.Fatalf("open dst: %v", err)
	}
	defer dst.Close()

	n, err := copyRecords(ctx, src, dst)
	if err != nil || n != 1 {
		t.Fatalf("copy = %d, %v", n, err)
	}
	got, err := dst.Get(ctx, 123)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.DisplayName != "Ali" || got.LatestNote() != "remember why" || !got.Started() {
		t.Fatalf("legacy user not migrated: %+v", got)
	}
}
