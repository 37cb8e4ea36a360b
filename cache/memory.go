package cache

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/pevans/riuff/item"
)

// MemoryStore is a Store that keeps serialized records in memory. Records
// round-trip through JSON so callers never share state with the store.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

func (ms *MemoryStore) Exists(id string) (bool, error) {
	if err := validateID(id); err != nil {
		return false, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	_, ok := ms.entries[id]
	return ok, nil
}

func (ms *MemoryStore) Read(id string) (*item.Record, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	ms.mu.Lock()
	data, ok := ms.entries[id]
	ms.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	var record item.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache entry %s: %w", id, err)
	}
	record.Normalize()

	return &record, nil
}

func (ms *MemoryStore) Write(id string, record *item.Record) error {
	if err := validateID(id); err != nil {
		return err
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, ok := ms.entries[id]; ok {
		return nil
	}
	ms.entries[id] = data
	return nil
}

// Len returns the number of stored entries.
func (ms *MemoryStore) Len() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return len(ms.entries)
}
