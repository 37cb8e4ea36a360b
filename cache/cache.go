// Package cache persists one enriched record per item id. Entries are
// write-once: the presence of an entry means the item has already been
// fetched and must not be fetched again.
package cache

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/pevans/riuff/item"
)

// ErrNotFound is returned by Read when no entry exists for an id.
var ErrNotFound = errors.New("cache entry not found")

// Store is the key-value persistence used by the detail fetcher.
type Store interface {
	// Exists reports whether an entry for id is present.
	Exists(id string) (bool, error)
	// Read returns the stored record verbatim. It fails with an error
	// wrapping ErrNotFound if the entry is absent.
	Read(id string) (*item.Record, error)
	// Write stores record under id unless an entry already exists, in which
	// case it does nothing.
	Write(id string, record *item.Record) error
}

var idPattern = regexp.MustCompile(`^[0-9A-Za-z_-]+$`)

// validateID rejects ids that could name a file outside the cache.
func validateID(id string) error {
	if !idPattern.MatchString(id) {
		return fmt.Errorf("invalid cache id %q", id)
	}
	return nil
}
