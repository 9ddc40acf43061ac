// Package snapshot persists the result of the most recent successful full
// scan as a JSON document.
//
// Writers hold an exclusive flock and replace the file atomically; readers
// hold a shared flock. A concurrent reader therefore never observes a half
// written snapshot, even from another process.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/harrison/nuxview/internal/models"
)

// ErrNoSnapshot is returned by Load when nothing has been saved yet.
var ErrNoSnapshot = errors.New("no snapshot saved")

// FileStore stores one snapshot at a fixed path.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore for path. The file and its parent
// directory are created on the first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the snapshot file location.
func (s *FileStore) Path() string {
	return s.path
}

// Save replaces the stored snapshot.
func (s *FileStore) Save(snap *models.Snapshot) error {
	if snap == nil || snap.Tree == nil {
		return fmt.Errorf("refusing to save empty snapshot")
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}
	lock := newLockFile(s.path)
	if err := lock.lock(); err != nil {
		return err
	}
	defer lock.unlock()

	return writeAtomic(s.path, data)
}

// Load reads the stored snapshot. It returns an error wrapping ErrNoSnapshot
// when the file does not exist, and a decode error when it is unreadable.
func (s *FileStore) Load() (*models.Snapshot, error) {
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoSnapshot, s.path)
	}

	lock := newLockFile(s.path)
	if err := lock.rlock(); err != nil {
		return nil, err
	}
	defer lock.unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoSnapshot, s.path)
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", s.path, err)
	}
	if snap.Tree == nil {
		return nil, fmt.Errorf("decode snapshot %s: missing tree", s.path)
	}
	return &snap, nil
}
