package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mdminegoub-netizen/qaher-bot/internal/models"
)

// ErrNotFound is returned for unknown users and relay references.
var ErrNotFound = errors.New("storage: not found")

// Store is the durable mapping from user id to UserRecord, plus the side
// table that maps relayed admin messages back to their users.
type Store interface {
	Get(ctx context.Context, userID int64) (*models.UserRecord, error)
	// Update loads the record (or a fresh one), applies fn and saves the
	// result atomically for that user. If fn fails nothing is written.
	Update(ctx context.Context, userID int64, fn func(*models.UserRecord) error) (*models.UserRecord, error)
	List(ctx context.Context) ([]*models.UserRecord, error)
	LoadAll(ctx context.Context) (map[int64]*models.UserRecord, error)
	SaveAll(ctx context.Context, records map[int64]*models.UserRecord) error

	PutRelayRef(ctx context.Context, ref RelayRef) error
	RelayTarget(ctx context.Context, messageID int) (int64, error)
	// RelayRefs lists the side table ordered by message id.
	RelayRefs(ctx context.Context) ([]RelayRef, error)

	Close() error
}

// RelayRef maps a message forwarded to the admin back to its sender.
type RelayRef struct {
	MessageID int
	UserID    int64
	CreatedAt time.Time
}

// userLocks serialises read-modify-write cycles per user id.
type userLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: map[int64]*sync.Mutex{}}
}

func (l *userLocks) lock(userID int64) func() {
	l.mu.Lock()
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// DriverJSON selects the FileStore backend in Open.
const DriverJSON = "json"

// Open returns the backend for driver: sqlite or postgres (DB) or json
// (FileStore). dsn is the file path or connection string.
func Open(driver, dsn string) (Store, error) {
	if driver == DriverJSON {
		s, err := NewFileStore(dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	d, err := New(driver, dsn)
	if err != nil {
		return nil, err
	}
	return d, nil
}
