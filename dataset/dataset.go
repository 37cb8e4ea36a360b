// Package dataset writes the aggregate output of a crawl and reads it back.
// A dataset is a JSON array of item records, one file per run, named after
// the time the run finished.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pevans/riuff/item"
)

const (
	filePrefix = "riuff-data-"
	fileSuffix = ".json"

	// ISO 8601 with millisecond precision
	timestampLayout = "2006-01-02T15:04:05.000Z"
)

// nameReplacer keeps file names free of ':' and '.'
var nameReplacer = strings.NewReplacer(":", "-", ".", "-")

// ErrNoDataset is returned by Latest when the directory holds no dataset.
var ErrNoDataset = errors.New("no dataset found")

// Flatten concatenates the items of every collection, in collection order.
func Flatten(collections []item.Collection) []item.Record {
	records := []item.Record{}
	for _, c := range collections {
		records = append(records, c.Items...)
	}
	return records
}

// FileName returns the dataset file name for a run finished at t.
func FileName(t time.Time) string {
	return filePrefix + nameReplacer.Replace(t.UTC().Format(timestampLayout)) + fileSuffix
}

// Write serializes the flattened items of collections to a new timestamped
// file in dir and returns its path. The file appears in one step, so a
// dataset is either complete or absent.
func Write(dir string, collections []item.Collection, now time.Time) (string, error) {
	data, err := json.MarshalIndent(Flatten(collections), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal dataset: %w", err)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create dataset directory: %w", err)
	}

	path := filepath.Join(dir, FileName(now))
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("dataset %s already exists", path)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-"+filePrefix+"*")
	if err != nil {
		return "", fmt.Errorf("failed to create dataset file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write dataset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write dataset: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write dataset: %w", err)
	}

	return path, nil
}

// Latest returns the path of the most recent dataset in dir.
func Latest(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoDataset
		}
		return "", fmt.Errorf("failed to read dataset directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return "", ErrNoDataset
	}

	// The timestamp layout sorts lexically in time order
	sort.Strings(names)
	return filepath.Join(dir, names[len(names)-1]), nil
}

// Load reads a dataset file.
func Load(path string) ([]item.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}

	var records []item.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse dataset %s: %w", path, err)
	}
	for i := range records {
		records[i].Normalize()
	}
	if records == nil {
		records = []item.Record{}
	}

	return records, nil
}
