package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mdminegoub-netizen/qaher-bot/internal/models"
)

var t0 = time.Date(2025, 5, 8, 9, 30, 0, 0, time.UTC)

func openSQLite(t *testing.T) *DB {
	t.Helper()
	db, err := New(DriverSQLite, filepath.Join(t.TempDir(), "bot.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sampleRecord(id int64) *models.UserRecord {
	start := t0.Add(-48 * time.Hour)
	rec := models.NewUserRecord(id)
	rec.DisplayName = "Sami"
	rec.Handle = "sami"
	rec.CreatedAt = t0.Add(-72 * time.Hour)
	rec.LastActiveAt = t0
	rec.StreakStart = &start
	rec.Notes = []models.Note{
		{ID: "n1", Text: "first", CreatedAt: t0, UpdatedAt: t0},
		{ID: "n2", Text: "second", CreatedAt: t0, UpdatedAt: t0},
	}
	rec.RelapseLog = []time.Time{t0.Add(-60 * time.Hour), start}
	rec.DailyRatings = []models.Rating{{Day: "2025-05-07", Score: 6}, {Day: "2025-05-08", Score: 8}}
	rec.DailyReminderEnabled = false
	rec.Pending = models.PendingMode{Kind: models.PendingNoteEditTarget, NoteIDs: []string{"n1", "n2"}, SetAt: t0}
	return rec
}

func assertSameRecord(t *testing.T, got, want *models.UserRecord) {
	t.Helper()
	if got.UserID != want.UserID || got.DisplayName != want.DisplayName || got.Handle != want.Handle {
		t.Fatalf("identity mismatch: %+v", got)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) || !got.LastActiveAt.Equal(want.LastActiveAt) {
		t.Fatalf("timestamps mismatch: %v %v", got.CreatedAt, got.LastActiveAt)
	}
	if got.StreakStart == nil || !got.StreakStart.Equal(*want.StreakStart) {
		t.Fatalf("streak start = %v", got.StreakStart)
	}
	if len(got.Notes) != len(want.Notes) || got.Notes[1].ID != "n2" || got.Notes[1].Text != "second" {
		t.Fatalf("notes = %+v", got.Notes)
	}
	if len(got.RelapseLog) != 2 || !got.RelapseLog[1].Equal(want.RelapseLog[1]) {
		t.Fatalf("relapse log = %v", got.RelapseLog)
	}
	if len(got.DailyRatings) != 2 || got.DailyRatings[1] != want.DailyRatings[1] {
		t.Fatalf("ratings = %+v", got.DailyRatings)
	}
	if got.DailyReminderEnabled != want.DailyReminderEnabled {
		t.Fatalf("daily reminder flag lost")
	}
	if got.Pending.Kind != want.Pending.Kind || len(got.Pending.NoteIDs) != 2 {
		t.Fatalf("pending = %+v", got.Pending)
	}
}

func TestDB_UpdateAndGet(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	if _, err := db.Get(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	want := sampleRecord(1)
	_, err := db.Update(ctx, 1, func(r *models.UserRecord) error {
		*r = *want.Clone()
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := db.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	assertSameRecord(t, got, want)
}

func TestDB_UpdateErrorWritesNothing(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	boom := errors.New("boom")

	if _, err := db.Update(ctx, 1, func(r *models.UserRecord) error {
		r.DisplayName = "ghost"
		return boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := db.Get(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("record should not exist, got %v", err)
	}
}

func TestDB_CorruptStreakStartReadsAsAbsent(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	if _, err := db.Exec(`INSERT INTO users (user_id, created_at, last_active_at, streak_start) VALUES (?,?,?,?)`,
		int64(5), "not-a-time", formatTime(t0), "2025-13-99T99:99"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	rec, err := db.Get(ctx, 5)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.StreakStart != nil || !rec.StreakCorrupt {
		t.Fatalf("corrupt streak start should read as absent, got %+v", rec)
	}
	if !rec.CreatedAt.IsZero() {
		t.Fatalf("corrupt created_at should read as zero")
	}
	if !rec.DailyReminderEnabled {
		t.Fatalf("daily reminder should default to enabled")
	}
}

func TestDB_CorruptStreakStartSurvivesWrites(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	const raw = "2025-13-99T99:99"

	if _, err := db.Exec(`INSERT INTO users (user_id, created_at, last_active_at, streak_start) VALUES (?,?,?,?)`,
		int64(5), formatTime(t0), formatTime(t0), raw); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := db.Update(ctx, 5, func(r *models.UserRecord) error {
		r.LastActiveAt = t0.Add(time.Hour)
		return nil
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	var stored string
	if err := db.QueryRow(`SELECT streak_start FROM users WHERE user_id=5`).Scan(&stored); err != nil {
		t.Fatalf("select: %v", err)
	}
	if stored != raw {
		t.Fatalf("raw streak start overwritten with %q", stored)
	}
	rec, _ := db.Get(ctx, 5)
	if !rec.StreakCorrupt || rec.StreakStartRaw != raw {
		t.Fatalf("corrupt flag lost after a write: %+v", rec)
	}

	fixed := t0.Add(-24 * time.Hour)
	if _, err := db.Update(ctx, 5, func(r *models.UserRecord) error {
		r.StreakStart, r.StreakCorrupt, r.StreakStartRaw = &fixed, false, ""
		return nil
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	rec, _ = db.Get(ctx, 5)
	if rec.StreakCorrupt || rec.StreakStart == nil || !rec.StreakStart.Equal(fixed) {
		t.Fatalf("new start not stored: %+v", rec)
	}
}

func TestDB_ListAndSaveAll(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	err := db.SaveAll(ctx, map[int64]*models.UserRecord{
		1: sampleRecord(1),
		2: models.NewUserRecord(2),
	})
	if err != nil {
		t.Fatalf("save all: %v", err)
	}
	all, err := db.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 users, got %d", len(all))
	}
	assertSameRecord(t, all[1], sampleRecord(1))
	if all[2].Started() {
		t.Fatalf("user 2 should not be started")
	}
}

func TestDB_RelayRefs(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	if _, err := db.RelayTarget(ctx, 77); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	at := time.Date(2025, 5, 8, 9, 30, 0, 0, time.UTC)
	if err := db.PutRelayRef(ctx, RelayRef{MessageID: 77, UserID: 42, CreatedAt: at}); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := db.RelayTarget(ctx, 77)
	if err != nil || got != 42 {
		t.Fatalf("relay target = %d, %v", got, err)
	}

	refs, err := db.RelayRefs(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(refs) != 1 || refs[0].MessageID != 77 || !refs[0].CreatedAt.Equal(at) {
		t.Fatalf("refs = %+v", refs)
	}
}

func TestDB_MigrateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.db")
	db, err := New(DriverSQLite, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_ = db.Close()

	db, err = New(DriverSQLite, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one migration row, got %d", n)
	}
}

func TestRebind(t *testing.T) {
	d := &DB{driver: DriverPostgres}
	if got := d.rebind(`SELECT a FROM t WHERE x=? AND y=?`); got != `SELECT a FROM t WHERE x=$1 AND y=$2` {
		t.Fatalf("rebind = %q", got)
	}
	d.driver = DriverSQLite
	if got := d.rebind(`x=?`); got != `x=?` {
		t.Fatalf("sqlite rebind changed query: %q", got)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open("mongo", "x"); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
