package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	bolt "go.etcd.io/bbolt"

	"github.com/mmcdole/portal/internal/domain"
)

var bucketHistory = []byte("history")

// ErrEntryNotFound is returned when updating or deleting an unknown entry
var ErrEntryNotFound = errors.New("history entry not found")

// HistoryStore implements domain.HistoryStore using BoltDB.
// Keys are ULIDs, so byte order is creation order.
type HistoryStore struct {
	db  *bolt.DB
	mu  sync.RWMutex // Protects memory cache
	now func() time.Time

	// In-memory cache for hot-path reads (promoted on access).
	// In memory-only mode it is the whole store.
	cache map[string][]byte
}

// NewHistoryStore opens (or creates) the history database under baseDir.
// Each API server gets its own file. An empty baseDir keeps history in memory.
func NewHistoryStore(baseDir, serverURL string) (*HistoryStore, error) {
	if baseDir == "" {
		// Memory-only mode (no persistence)
		return &HistoryStore{cache: make(map[string][]byte), now: time.Now}, nil
	}

	dir := baseDir
	if serverURL != "" {
		dir = filepath.Join(baseDir, hashServerURL(serverURL))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "history.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketHistory)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &HistoryStore{db: db, cache: make(map[string][]byte), now: time.Now}, nil
}

func hashServerURL(serverURL string) string {
	normalized := strings.TrimRight(strings.ToLower(serverURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

func (s *HistoryStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (s *HistoryStore) get(key string, dest any) bool {
	// Check memory cache first
	s.mu.RLock()
	if data, ok := s.cache[key]; ok {
		s.mu.RUnlock()
		return json.Unmarshal(data, dest) == nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return false
	}

	// Read from BoltDB
	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketHistory).Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return false
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[key] = data
	s.mu.Unlock()

	return json.Unmarshal(data, dest) == nil
}

func (s *HistoryStore) set(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.cache[key] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil // Memory-only mode
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketHistory).Put([]byte(key), data)
	})
}

func (s *HistoryStore) delete(keys ...string) error {
	s.mu.Lock()
	for _, key := range keys {
		delete(s.cache, key)
	}
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketHistory)
		for _, key := range keys {
			if err := b.Delete([]byte(key)); err != nil {
				return err
			}
		}
		return nil
	})
}

// keys returns every key, newest first
func (s *HistoryStore) keys() []string {
	if s.db == nil {
		s.mu.RLock()
		keys := make([]string, 0, len(s.cache))
		for k := range s.cache {
			keys = append(keys, k)
		}
		s.mu.RUnlock()
		sort.Sort(sort.Reverse(sort.StringSlice(keys)))
		return keys
	}

	var keys []string
	s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketHistory).Cursor()
		for k, _ := c.Last(); k != nil; k, _ = c.Prev() {
			keys = append(keys, string(k))
		}
		return nil
	})
	return keys
}

func (s *HistoryStore) exists(key string) bool {
	var raw json.RawMessage
	return s.get(key, &raw)
}

// === History ===

// Append assigns an ID and CreatedAt when empty, then saves the entry
func (s *HistoryStore) Append(entry *domain.HistoryEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	if entry.ID == "" {
		id, err := ulid.New(ulid.Timestamp(entry.CreatedAt), ulid.DefaultEntropy())
		if err != nil {
			return fmt.Errorf("failed to generate history id: %w", err)
		}
		entry.ID = id.String()
	}
	return s.set(entry.ID, entry)
}

// Update overwrites an existing entry
func (s *HistoryStore) Update(entry *domain.HistoryEntry) error {
	if !s.exists(entry.ID) {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, entry.ID)
	}
	return s.set(entry.ID, entry)
}

// Get returns a single entry
func (s *HistoryStore) Get(id string) (*domain.HistoryEntry, bool) {
	var entry domain.HistoryEntry
	if !s.get(id, &entry) {
		return nil, false
	}
	return &entry, true
}

// List returns up to limit entries, newest first. limit <= 0 means all.
func (s *HistoryStore) List(limit int) ([]*domain.HistoryEntry, error) {
	keys := s.keys()
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}

	entries := make([]*domain.HistoryEntry, 0, len(keys))
	for _, key := range keys {
		entry, ok := s.Get(key)
		if !ok {
			return nil, fmt.Errorf("failed to decode history entry %s", key)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Delete removes a single entry
func (s *HistoryStore) Delete(id string) error {
	if !s.exists(id) {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	return s.delete(id)
}

// Prune keeps the newest keep entries and removes the rest
func (s *HistoryStore) Prune(keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	keys := s.keys()
	if len(keys) <= keep {
		return 0, nil
	}
	stale := keys[keep:]
	if err := s.delete(stale...); err != nil {
		return 0, err
	}
	return len(stale), nil
}

// Clear removes all entries
func (s *HistoryStore) Clear() error {
	_, err := s.Prune(0)
	return err
}
