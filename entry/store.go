package entry

import (
	"context"
	"errors"
)

// ErrNotFound is returned when an entry does not exist.
//
// Implementations must return an error satisfying errors.Is(err, ErrNotFound)
// for absent entries, normalizing any provider-specific error.
var ErrNotFound = errors.New("entry not found")

// Store is an opaque keyed byte container. The persistent store writes item
// entries and reserved table entries through this interface; it never
// interprets names beyond treating them as stable identifiers.
//
// Implementations must be safe for concurrent readers; writes are serialized
// by the single-writer contract of the owning store.
type Store interface {
	// Get returns the full contents of the named entry.
	Get(ctx context.Context, name string) ([]byte, error)

	// Put writes the named entry atomically, replacing any existing value.
	Put(ctx context.Context, name string, data []byte) error

	// Delete removes the named entry. Deleting an absent entry returns
	// ErrNotFound.
	Delete(ctx context.Context, name string) error

	// List returns all entry names with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}
