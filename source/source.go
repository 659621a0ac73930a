// Package source defines the pull interface that decouples caches and
// batches from storage.
//
// Anything that yields keyed items can back a cache or a batch: a persistent
// store iterator, a cache acting as a view on another source, or a synthetic
// generator in tests.
package source

import (
	"context"
	"errors"

	"github.com/ScapeQin/shufflr/model"
)

// ErrExhausted is returned by Next when a finite source has no items left.
//
// Exhaustion is fatal to the operation that triggered the pull; it signals a
// caller or configuration error (requesting more items than available), not a
// transient condition, and is never retried inside this module.
var ErrExhausted = errors.New("source exhausted")

// Source is a pull interface over keyed items.
type Source interface {
	// Next yields the next (key, item) pair, or ErrExhausted.
	Next(ctx context.Context) (string, model.Item, error)

	// NumItems returns the number of distinct items this source draws from.
	NumItems() int
}
