package store

import (
	"fmt"
	"sync"

	"github.com/goccy/go-json"

	"github.com/i474232898/city-dashboard/internal/feed"
)

var (
	// ErrNotFound is returned when no snapshot was saved under a key.
	ErrNotFound = feed.ErrSnapshotNotFound
)

// MemoryStore is a concurrency-safe in-memory snapshot store. Values are
// kept serialized so a Load never aliases the saved model.
type MemoryStore struct {
	mu sync.RWMutex

	// key: feed name, value: encoded snapshot
	data map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string][]byte),
	}
}

// Save encodes v and overwrites the slot for key.
func (s *MemoryStore) Save(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode snapshot %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = b
	return nil
}

// Load decodes the snapshot for key into dst.
func (s *MemoryStore) Load(key string, dst any) error {
	s.mu.RLock()
	b, ok := s.data[key]
	s.mu.RUnlock()

	if !ok {
		return ErrNotFound
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("decode snapshot %q: %w", key, err)
	}
	return nil
}
