package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
)

// FileStore persists one JSON file per key under a directory. Writes go to
// a temporary file first and are renamed into place.
type FileStore struct {
	mu  sync.Mutex
	dir string

	filePermissions os.FileMode
	dirPermissions  os.FileMode
}

// NewFileStore creates a FileStore rooted at dir. If dir is empty, the OS
// cache directory (or temp directory) is used.
func NewFileStore(dir string) *FileStore {
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = os.TempDir()
		}
		dir = filepath.Join(base, "city-dashboard")
	}

	return &FileStore{
		dir:             dir,
		filePermissions: 0o644,
		dirPermissions:  0o755,
	}
}

// Dir returns the directory snapshots are written to.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Save encodes v and atomically replaces the file for key.
func (s *FileStore) Save(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode snapshot %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, s.dirPermissions); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	path := s.path(key)
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, s.filePermissions); err != nil {
		return fmt.Errorf("write snapshot %q: %w", key, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("rename snapshot %q: %w", key, err)
	}
	return nil
}

// Load decodes the file for key into dst. A missing file yields ErrNotFound.
func (s *FileStore) Load(key string, dst any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("read snapshot %q: %w", key, err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode snapshot %q: %w", key, err)
	}
	return nil
}
