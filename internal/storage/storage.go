package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/mdminegoub-netizen/qaher-bot/internal/models"
)

//go:embed schema.sql
var ddl embed.FS

// SchemaVersion is the schema version applied by migrate.
const SchemaVersion = 1

// SQL dialects understood by New.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DB is the SQL-backed Store (SQLite file or PostgreSQL).
type DB struct {
	*sql.DB
	driver string
	locks  *userLocks
}

var _ Store = (*DB)(nil)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New opens the database and applies migrations. For sqlite dsn is a file
// path; for postgres it is a connection string.
func New(driver, dsn string) (*DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch driver {
	case DriverSQLite:
		if dsn == "" {
			return nil, errors.New("open: empty db path")
		}
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("open: create db dir: %w", err)
		}
		db, err = sql.Open("sqlite", "file:"+dsn+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
		if err != nil {
			return nil, fmt.Errorf("open: sql open: %w", err)
		}
		// one writer; Update holds a transaction for the whole cycle
		db.SetMaxOpenConns(1)
	case DriverPostgres:
		db, err = sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("open: sql open: %w", err)
		}
	default:
		return nil, fmt.Errorf("open: unknown driver %q", driver)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open: ping: %w", err)
	}
	d := &DB{DB: db, driver: driver, locks: newUserLocks()}
	if err := d.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open: migrate: %w", err)
	}
	return d, nil
}

func (d *DB) migrate() error {
	if _, err := d.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	var current int
	if err := d.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("read current version: %w", err)
	}
	if current >= SchemaVersion {
		return nil
	}

	b, err := ddl.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	tx, err := d.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range strings.Split(string(b), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", firstLine(stmt), err)
		}
	}
	if _, err := tx.Exec(d.rebind(`INSERT INTO schema_migrations(version) VALUES (?)`), SchemaVersion); err != nil {
		return fmt.Errorf("record version: %w", err)
	}
	return tx.Commit()
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// rebind turns ? placeholders into $n for postgres.
func (d *DB) rebind(query string) string {
	if d.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ---------- users -----------------------------------------------------------

func (d *DB) Get(ctx context.Context, userID int64) (*models.UserRecord, error) {
	return d.load(ctx, d.DB, userID)
}

func (d *DB) Update(ctx context.Context, userID int64, fn func(*models.UserRecord) error) (*models.UserRecord, error) {
	unlock := d.locks.lock(userID)
	defer unlock()

	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("update %d: begin: %w", userID, err)
	}
	defer func() { _ = tx.Rollback() }()

	rec, err := d.load(ctx, tx, userID)
	if errors.Is(err, ErrNotFound) {
		rec = models.NewUserRecord(userID)
	} else if err != nil {
		return nil, err
	}
	if err := fn(rec); err != nil {
		return nil, err
	}
	if err := d.write(ctx, tx, rec); err != nil {
		return nil, fmt.Errorf("update %d: %w", userID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("update %d: commit: %w", userID, err)
	}
	return rec.Clone(), nil
}

func (d *DB) List(ctx context.Context) ([]*models.UserRecord, error) {
	ids, err := d.userIDs(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]*models.UserRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := d.load(ctx, d.DB, id)
		if err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, nil
}

// userIDs reads all ids before any record is loaded: with a single sqlite
// connection, nested queries would block on the open rows.
func (d *DB) userIDs(ctx context.Context) ([]int64, error) {
	rows, err := d.QueryContext(ctx, `SELECT user_id FROM users ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (d *DB) LoadAll(ctx context.Context) (map[int64]*models.UserRecord, error) {
	list, err := d.List(ctx)
	if err != nil {
		return nil, err
	}
	res := make(map[int64]*models.UserRecord, len(list))
	for _, r := range list {
		res[r.UserID] = r
	}
	return res, nil
}

// SaveAll replaces every given record in one transaction.
func (d *DB) SaveAll(ctx context.Context, records map[int64]*models.UserRecord) error {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for id, rec := range records {
		c := rec.Clone()
		c.UserID = id
		if err := d.write(ctx, tx, c); err != nil {
			return fmt.Errorf("save %d: %w", id, err)
		}
	}
	return tx.Commit()
}

func (d *DB) load(ctx context.Context, q querier, userID int64) (*models.UserRecord, error) {
	rec := models.NewUserRecord(userID)
	var (
		created, lastActive string
		streak              sql.NullString
		dailyEnabled        int64
		pending             string
	)
	err := q.QueryRowContext(ctx, d.rebind(`
        SELECT display_name, handle, created_at, last_active_at, streak_start, daily_enabled, pending
        FROM users WHERE user_id=?`), userID,
	).Scan(&rec.DisplayName, &rec.Handle, &created, &lastActive, &streak, &dailyEnabled, &pending)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load %d: %w", userID, err)
	}

	rec.CreatedAt, _ = parseTime(userID, "created_at", created)
	rec.LastActiveAt, _ = parseTime(userID, "last_active_at", lastActive)
	if streak.Valid && streak.String != "" {
		if t, ok := parseTime(userID, "streak_start", streak.String); ok {
			rec.StreakStart = &t
		} else {
			rec.StreakCorrupt, rec.StreakStartRaw = true, streak.String
		}
	}
	rec.DailyReminderEnabled = dailyEnabled != 0
	rec.Pending = decodePending(userID, pending)

	if rec.Notes, err = d.loadNotes(ctx, q, userID); err != nil {
		return nil, err
	}
	if rec.RelapseLog, err = d.loadRelapses(ctx, q, userID); err != nil {
		return nil, err
	}
	if rec.DailyRatings, err = d.loadRatings(ctx, q, userID); err != nil {
		return nil, err
	}
	return rec, nil
}

func (d *DB) loadNotes(ctx context.Context, q querier, userID int64) ([]models.Note, error) {
	rows, err := q.QueryContext(ctx, d.rebind(`
        SELECT id, body, created_at, updated_at FROM notes
        WHERE user_id=? ORDER BY position`), userID)
	if err != nil {
		return nil, fmt.Errorf("load notes %d: %w", userID, err)
	}
	defer rows.Close()
	var res []models.Note
	for rows.Next() {
		var n models.Note
		var created, updated string
		if err := rows.Scan(&n.ID, &n.Text, &created, &updated); err != nil {
			return nil, err
		}
		n.CreatedAt, _ = parseTime(userID, "note created_at", created)
		n.UpdatedAt, _ = parseTime(userID, "note updated_at", updated)
		res = append(res, n)
	}
	return res, rows.Err()
}

func (d *DB) loadRelapses(ctx context.Context, q querier, userID int64) ([]time.Time, error) {
	rows, err := q.QueryContext(ctx, d.rebind(`SELECT at FROM relapses WHERE user_id=? ORDER BY position`), userID)
	if err != nil {
		return nil, fmt.Errorf("load relapses %d: %w", userID, err)
	}
	defer rows.Close()
	var res []time.Time
	for rows.Next() {
		var at string
		if err := rows.Scan(&at); err != nil {
			return nil, err
		}
		if t, ok := parseTime(userID, "relapse", at); ok {
			res = append(res, t)
		}
	}
	return res, rows.Err()
}

func (d *DB) loadRatings(ctx context.Context, q querier, userID int64) ([]models.Rating, error) {
	rows, err := q.QueryContext(ctx, d.rebind(`SELECT day, score FROM daily_ratings WHERE user_id=? ORDER BY day`), userID)
	if err != nil {
		return nil, fmt.Errorf("load ratings %d: %w", userID, err)
	}
	defer rows.Close()
	var res []models.Rating
	for rows.Next() {
		var r models.Rating
		if err := rows.Scan(&r.Day, &r.Score); err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	return res, rows.Err()
}

// write replaces the user row and all of its child rows.
func (d *DB) write(ctx context.Context, q querier, rec *models.UserRecord) error {
	pending, err := encodePending(rec.Pending)
	if err != nil {
		return err
	}
	var streak sql.NullString
	if v, ok := streakValue(rec); ok {
		streak = sql.NullString{String: v, Valid: true}
	}
	enabled := 0
	if rec.DailyReminderEnabled {
		enabled = 1
	}

	if _, err := q.ExecContext(ctx, d.rebind(`
        INSERT INTO users (user_id, display_name, handle, created_at, last_active_at, streak_start, daily_enabled, pending)
        VALUES (?,?,?,?,?,?,?,?)
        ON CONFLICT(user_id) DO UPDATE SET display_name=excluded.display_name,
            handle=excluded.handle,
            created_at=excluded.created_at,
            last_active_at=excluded.last_active_at,
            streak_start=excluded.streak_start,
            daily_enabled=excluded.daily_enabled,
            pending=excluded.pending
    `), rec.UserID, rec.DisplayName, rec.Handle, formatTime(rec.CreatedAt), formatTime(rec.LastActiveAt),
		streak, enabled, pending); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}

	for _, tbl := range []string{"notes", "relapses", "daily_ratings"} {
		if _, err := q.ExecContext(ctx, d.rebind(fmt.Sprintf("DELETE FROM %s WHERE user_id = ?", tbl)), rec.UserID); err != nil {
			return fmt.Errorf("clear %s: %w", tbl, err)
		}
	}
	for i, n := range rec.Notes {
		if _, err := q.ExecContext(ctx, d.rebind(`
            INSERT INTO notes (id, user_id, position, body, created_at, updated_at) VALUES (?,?,?,?,?,?)`),
			n.ID, rec.UserID, i, n.Text, formatTime(n.CreatedAt), formatTime(n.UpdatedAt)); err != nil {
			return fmt.Errorf("insert note: %w", err)
		}
	}
	for i, at := range rec.RelapseLog {
		if _, err := q.ExecContext(ctx, d.rebind(`INSERT INTO relapses (user_id, position, at) VALUES (?,?,?)`),
			rec.UserID, i, formatTime(at)); err != nil {
			return fmt.Errorf("insert relapse: %w", err)
		}
	}
	for _, r := range rec.DailyRatings {
		if _, err := q.ExecContext(ctx, d.rebind(`INSERT INTO daily_ratings (user_id, day, score) VALUES (?,?,?)`),
			rec.UserID, r.Day, r.Score); err != nil {
			return fmt.Errorf("insert rating: %w", err)
		}
	}
	return nil
}

// ---------- relay references -----------------------------------------------

func (d *DB) PutRelayRef(ctx context.Context, ref RelayRef) error {
	_, err := d.ExecContext(ctx, d.rebind(`
        INSERT INTO relay_refs (message_id, user_id, created_at) VALUES (?,?,?)
        ON CONFLICT(message_id) DO UPDATE SET user_id=excluded.user_id, created_at=excluded.created_at
    `), int64(ref.MessageID), ref.UserID, formatTime(ref.CreatedAt))
	return err
}

func (d *DB) RelayTarget(ctx context.Context, messageID int) (int64, error) {
	var userID int64
	err := d.QueryRowContext(ctx, d.rebind(`SELECT user_id FROM relay_refs WHERE message_id=?`), int64(messageID)).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return userID, err
}

func (d *DB) RelayRefs(ctx context.Context) ([]RelayRef, error) {
	rows, err := d.QueryContext(ctx, `SELECT message_id, user_id, created_at FROM relay_refs ORDER BY message_id`)
	if err != nil {
		return nil, fmt.Errorf("list relay refs: %w", err)
	}
	defer rows.Close()
	var refs []RelayRef
	for rows.Next() {
		var (
			msgID   int64
			ref     RelayRef
			created string
		)
		if err := rows.Scan(&msgID, &ref.UserID, &created); err != nil {
			return nil, err
		}
		ref.MessageID = int(msgID)
		ref.CreatedAt, _ = parseTime(ref.UserID, "relay ref created_at", created)
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
