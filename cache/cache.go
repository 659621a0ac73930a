package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"math/rand/v2"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/ScapeQin/shufflr/model"
	"github.com/ScapeQin/shufflr/source"
	"github.com/ScapeQin/shufflr/tables"
)

// ErrNotFound is returned when a key is not resident in the cache.
var ErrNotFound = errors.New("key not resident")

// DefaultProb passed as the probability argument selects the configured
// refresh probability.
const DefaultProb = -1.0

const (
	defaultCacheSize   = 1000
	defaultRefreshProb = 0.25
)

// Cache is a bounded in-memory mirror of a Source with randomized
// single-item replacement.
//
// Replacing one random resident at a time keeps the resident set an
// unbiased, continuously-refreshing sample of the source without any
// access-order bookkeeping; each refresh costs one eviction and one pull
// regardless of cache size.
//
// A source that fits entirely in the cache is loaded once and pinned:
// refreshes become no-ops and the cache covers the full dataset
// deterministically.
//
// Cache is a single-consumer working set with no internal synchronization.
type Cache struct {
	src         source.Source
	size        int
	refreshProb float64
	clamped     bool
	rng         *rand.Rand
	log         *slog.Logger

	items map[string]model.Item
	keys  []string       // resident keys, for uniform draws
	pos   map[string]int // key -> position in keys

	tbl *tables.Tables // nil when invalidated
}

// Option configures a Cache.
type Option func(*Cache) error

// WithCacheSize sets the target resident set size. Default 1000.
func WithCacheSize(n int) Option {
	return func(c *Cache) error {
		if n < 1 {
			return fmt.Errorf("cache size must be positive, got %d", n)
		}
		c.size = n
		return nil
	}
}

// WithRefreshProb sets the default probability that a refresh call actually
// replaces its item. Default 0.25.
func WithRefreshProb(p float64) Option {
	return func(c *Cache) error {
		if p < 0 || p > 1 {
			return fmt.Errorf("refresh probability must be in [0,1], got %v", p)
		}
		c.refreshProb = p
		return nil
	}
}

// WithRand sets the random generator used for eviction draws. Defaults to a
// process-level generator; supply a seeded one for reproducible runs.
func WithRand(rng *rand.Rand) Option {
	return func(c *Cache) error {
		c.rng = rng
		return nil
	}
}

// WithSeed is WithRand with a deterministic seeded generator.
func WithSeed(seed uint64) Option {
	return WithRand(rand.New(rand.NewPCG(seed, seed)))
}

// WithLogger sets the structured logger. Defaults to a discarding logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Cache) error {
		if log != nil {
			c.log = log
		}
		return nil
	}
}

// New creates a Cache over src and performs the initial load.
//
// If the source holds fewer items than the cache size, the size is clamped
// to the source and the refresh probability forced to zero.
func New(ctx context.Context, src source.Source, opts ...Option) (*Cache, error) {
	c := &Cache{
		src:         src,
		size:        defaultCacheSize,
		refreshProb: defaultRefreshProb,
		log:         slog.New(slog.DiscardHandler),
		items:       make(map[string]model.Item),
		pos:         make(map[string]int),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	if n := src.NumItems(); n < c.size {
		c.size = n
		c.refreshProb = 0
		c.clamped = true
		c.log.Debug("source fits in cache, replacement disabled", "items", n)
	}

	if err := c.Load(ctx, c.size); err != nil {
		return nil, err
	}
	return c, nil
}

// Load pulls exactly n pairs from the source, inserting or overwriting
// residents, and invalidates the local derived tables.
//
// Source exhaustion is fatal and propagates; it indicates the caller asked
// for more than the source holds.
func (c *Cache) Load(ctx context.Context, n int) error {
	for range n {
		key, item, err := c.src.Next(ctx)
		if err != nil {
			return err
		}
		c.insert(key, item)
	}
	c.tbl = nil
	return nil
}

func (c *Cache) insert(key string, item model.Item) {
	if _, ok := c.items[key]; !ok {
		c.pos[key] = len(c.keys)
		c.keys = append(c.keys, key)
	}
	c.items[key] = item
}

// Refresh evicts key and pulls replacements until the resident set is back
// at capacity, with probability p (DefaultProb selects the configured
// probability). A pull colliding with a resident key overwrites it and
// pulling continues, so the resident count is invariant across refreshes.
// On a clamped cache Refresh is a no-op regardless of p. Fails with
// ErrNotFound if key is not resident.
func (c *Cache) Refresh(ctx context.Context, key string, p float64) error {
	if _, ok := c.items[key]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	if c.clamped {
		return nil
	}
	if p < 0 {
		p = c.refreshProb
	}

	if c.rng.Float64() >= p {
		return nil
	}
	if err := c.Remove(key); err != nil {
		return err
	}
	for len(c.items) < c.size {
		if err := c.Load(ctx, 1); err != nil {
			return err
		}
	}
	return nil
}

// RefreshRand draws one resident key uniformly at random and refreshes it.
func (c *Cache) RefreshRand(ctx context.Context, p float64) error {
	if len(c.keys) == 0 {
		return fmt.Errorf("%w: cache is empty", ErrNotFound)
	}
	return c.Refresh(ctx, c.keys[c.rng.IntN(len(c.keys))], p)
}

// Remove evicts key from the resident set and invalidates the local derived
// tables. The persistent store backing the source is untouched.
func (c *Cache) Remove(key string) error {
	i, ok := c.pos[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, key)
	}

	last := len(c.keys) - 1
	c.keys[i] = c.keys[last]
	c.pos[c.keys[i]] = i
	c.keys = c.keys[:last]

	delete(c.items, key)
	delete(c.pos, key)
	c.tbl = nil
	return nil
}

// Get returns the resident item under key.
func (c *Cache) Get(key string) (model.Item, bool) {
	item, ok := c.items[key]
	return item, ok
}

// Len returns the resident set size.
func (c *Cache) Len() int {
	return len(c.items)
}

// Keys returns the resident keys in no particular order.
func (c *Cache) Keys() []string {
	return slices.Clone(c.keys)
}

// localTables rebuilds the cache-scoped derived tables over the resident
// set. The generation is independent from any persistent store's: codes are
// assigned fresh from a sorted scan of the residents.
func (c *Cache) localTables() (*tables.Tables, error) {
	if c.tbl != nil {
		return c.tbl, nil
	}

	keys := slices.Sorted(maps.Keys(c.items))
	t, err := tables.Build(keys, func(key string) (model.Item, error) {
		return c.items[key], nil
	})
	if err != nil {
		return nil, err
	}
	c.tbl = t
	return t, nil
}

// LabelEnum returns the label enumeration over the resident set only,
// rebuilding it if a load or removal invalidated it.
func (c *Cache) LabelEnum() (map[string]int, error) {
	t, err := c.localTables()
	if err != nil {
		return nil, err
	}
	return maps.Clone(t.LabelEnum), nil
}

// IndexTable returns the index table over the resident set only.
func (c *Cache) IndexTable() ([]tables.Row, error) {
	t, err := c.localTables()
	if err != nil {
		return nil, err
	}
	return slices.Clone(t.Index), nil
}

// Postings returns the bitmap of resident index rows carrying the given
// label code. Read-only.
func (c *Cache) Postings(code int) (*roaring.Bitmap, error) {
	t, err := c.localTables()
	if err != nil {
		return nil, err
	}
	return t.Postings(code), nil
}

// Next draws one resident pair uniformly at random and then gives the drawn
// key a chance to be replaced at the configured probability, so prolonged
// consumption churns through the source. Cache therefore satisfies
// source.Source and can back a batch or another cache.
func (c *Cache) Next(ctx context.Context) (string, model.Item, error) {
	if len(c.keys) == 0 {
		return "", model.Item{}, source.ErrExhausted
	}

	key := c.keys[c.rng.IntN(len(c.keys))]
	item := c.items[key]

	if !c.clamped && c.refreshProb > 0 {
		if err := c.Refresh(ctx, key, DefaultProb); err != nil {
			return "", model.Item{}, err
		}
	}
	return key, item, nil
}

// NumItems returns the resident set size.
func (c *Cache) NumItems() int {
	return len(c.items)
}
