package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pevans/riuff/item"
)

// FileStore keeps each record in its own JSON file named after the item id.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates a store rooted at dir. The directory is created on
// the first write.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the directory that holds the entries.
func (fs *FileStore) Dir() string {
	return fs.dir
}

func (fs *FileStore) path(id string) string {
	return filepath.Join(fs.dir, id+".json")
}

// Exists reports whether an entry file for id is present.
func (fs *FileStore) Exists(id string) (bool, error) {
	if err := validateID(id); err != nil {
		return false, err
	}

	_, err := os.Stat(fs.path(id))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat cache entry: %w", err)
}

// Read loads the record stored for id.
func (fs *FileStore) Read(id string) (*item.Record, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(fs.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}

	var record item.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache entry %s: %w", id, err)
	}
	record.Normalize()

	return &record, nil
}

// Write stores the record unless an entry for id already exists. The data is
// written to a temporary file first and renamed into place, so an
// interrupted write never leaves a partial entry behind.
func (fs *FileStore) Write(id string, record *item.Record) error {
	if err := validateID(id); err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	exists, err := fs.Exists(id)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	// 0700: owner-only access
	if err := os.MkdirAll(fs.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	if err := writeFileAtomic(fs.path(id), data); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}

	return nil
}

// writeFileAtomic writes data to a temporary file in the target directory
// and renames it to name.
func writeFileAtomic(name string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(name), ".tmp-"+filepath.Base(name)+"-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	// 0600: owner-only read/write
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, name); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
