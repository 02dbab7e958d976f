package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/mdminegoub-netizen/qaher-bot/internal/models"
)

// FileStore keeps every record in memory and rewrites one JSON document on
// each write. An empty path keeps it in memory only.
type FileStore struct {
	path string
	mu   sync.Mutex
	data map[int64]*models.UserRecord
	refs map[int]RelayRef
}

var _ Store = (*FileStore)(nil)

type fileDocument struct {
	Users     map[string]storedRecord `json:"users"`
	RelayRefs map[string]storedRef    `json:"relay_refs"`
}

type storedRef struct {
	UserID    int64  `json:"user_id"`
	CreatedAt string `json:"created_at"`
}

// NewFileStore loads the document at path or starts empty if it is missing.
// A legacy user_data.json is converted on load and backed up to path+".legacy".
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, data: map[int64]*models.UserRecord{}, refs: map[int]RelayRef{}}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewMemoryStore returns a FileStore that never touches disk.
func NewMemoryStore() *FileStore {
	s, _ := NewFileStore("")
	return s
}

func (s *FileStore) load() error {
	if s.path == "" {
		return nil
	}
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	doc, legacy, err := decodeDocument(b)
	if err != nil {
		return fmt.Errorf("decode %s: %w", s.path, err)
	}
	if legacy {
		if err := backupLegacy(s.path, b); err != nil {
			return err
		}
	}
	for key, sr := range doc.Users {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return fmt.Errorf("decode %s: bad user key %q", s.path, key)
		}
		sr.UserID = id
		s.data[id] = fromStored(sr)
	}
	for key, ref := range doc.RelayRefs {
		msgID, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		at, _ := parseTime(ref.UserID, "relay ref created_at", ref.CreatedAt)
		s.refs[msgID] = RelayRef{MessageID: msgID, UserID: ref.UserID, CreatedAt: at}
	}
	return nil
}

// saveLocked writes the whole document through a temp file and rename.
func (s *FileStore) saveLocked() error {
	if s.path == "" {
		return nil
	}
	doc := fileDocument{
		Users:     make(map[string]storedRecord, len(s.data)),
		RelayRefs: make(map[string]storedRef, len(s.refs)),
	}
	for id, r := range s.data {
		doc.Users[strconv.FormatInt(id, 10)] = toStored(r)
	}
	for msgID, ref := range s.refs {
		doc.RelayRefs[strconv.Itoa(msgID)] = storedRef{UserID: ref.UserID, CreatedAt: formatTime(ref.CreatedAt)}
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".qaher-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *FileStore) Get(ctx context.Context, userID int64) (*models.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.data[userID]; ok {
		return r.Clone(), nil
	}
	return nil, ErrNotFound
}

func (s *FileStore) Update(ctx context.Context, userID int64, fn func(*models.UserRecord) error) (*models.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rec *models.UserRecord
	if r, ok := s.data[userID]; ok {
		rec = r.Clone()
	} else {
		rec = models.NewUserRecord(userID)
	}
	if err := fn(rec); err != nil {
		return nil, err
	}

	prev, had := s.data[userID]
	s.data[userID] = rec
	if err := s.saveLocked(); err != nil {
		if had {
			s.data[userID] = prev
		} else {
			delete(s.data, userID)
		}
		return nil, fmt.Errorf("update %d: %w", userID, err)
	}
	return rec.Clone(), nil
}

func (s *FileStore) List(ctx context.Context) ([]*models.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]*models.UserRecord, 0, len(s.data))
	for _, r := range s.data {
		res = append(res, r.Clone())
	}
	sort.Slice(res, func(i, j int) bool { return res[i].UserID < res[j].UserID })
	return res, nil
}

func (s *FileStore) LoadAll(ctx context.Context) (map[int64]*models.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make(map[int64]*models.UserRecord, len(s.data))
	for id, r := range s.data {
		res[id] = r.Clone()
	}
	return res, nil
}

// SaveAll replaces every given record and rewrites the document once.
func (s *FileStore) SaveAll(ctx context.Context, records map[int64]*models.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.data
	s.data = make(map[int64]*models.UserRecord, len(prev)+len(records))
	for id, r := range prev {
		s.data[id] = r
	}
	for id, r := range records {
		c := r.Clone()
		c.UserID = id
		s.data[id] = c
	}
	if err := s.saveLocked(); err != nil {
		s.data = prev
		return err
	}
	return nil
}

func (s *FileStore) PutRelayRef(ctx context.Context, ref RelayRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.refs[ref.MessageID]
	s.refs[ref.MessageID] = ref
	if err := s.saveLocked(); err != nil {
		if had {
			s.refs[ref.MessageID] = prev
		} else {
			delete(s.refs, ref.MessageID)
		}
		return err
	}
	return nil
}

func (s *FileStore) RelayTarget(ctx context.Context, messageID int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ref, ok := s.refs[messageID]; ok {
		return ref.UserID, nil
	}
	return 0, ErrNotFound
}

func (s *FileStore) RelayRefs(ctx context.Context) ([]RelayRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]RelayRef, 0, len(s.refs))
	for _, ref := range s.refs {
		res = append(res, ref)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].MessageID < res[j].MessageID })
	return res, nil
}

func (s *FileStore) Close() error { return nil }
