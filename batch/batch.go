package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/ScapeQin/shufflr/model"
	"github.com/ScapeQin/shufflr/source"
)

// ErrMissingLabel is returned when a resident item carries no value under the
// batch's label key.
var ErrMissingLabel = errors.New("item missing label key")

// Option configures a batch.
type Option func(*LabelBatch) error

// WithRand sets the random source used for pairing draws.
func WithRand(rng *rand.Rand) Option {
	return func(b *LabelBatch) error {
		if rng == nil {
			return errors.New("nil random source")
		}
		b.rng = rng
		return nil
	}
}

// WithSeed derives a deterministic random source from the given seed.
func WithSeed(seed uint64) Option {
	return WithRand(rand.New(rand.NewPCG(seed, seed)))
}

// WithLogger sets the logger. The default discards.
func WithLogger(log *slog.Logger) Option {
	return func(b *LabelBatch) error {
		if log == nil {
			return errors.New("nil logger")
		}
		b.log = log
		return nil
	}
}

// LabelBatch is a fixed-capacity snapshot pulled from a source. It stays
// empty until the first Refresh and is rebuilt from scratch on every one.
type LabelBatch struct {
	src      source.Source
	size     int
	labelKey string
	shape    []int

	rng *rand.Rand
	log *slog.Logger

	// Insertion-ordered resident set. A key pulled twice in one refresh
	// keeps its first position and takes the later item.
	keys  []string
	pos   map[string]int
	items map[string]model.Item
}

// NewLabel creates a batch of the given capacity over src. Values are
// reshaped to valueShape before stacking; labels are read under labelKey.
func NewLabel(src source.Source, batchSize int, labelKey string, valueShape []int, opts ...Option) (*LabelBatch, error) {
	if src == nil {
		return nil, errors.New("nil source")
	}
	if batchSize < 1 {
		return nil, fmt.Errorf("batch size must be >= 1, got %d", batchSize)
	}
	if labelKey == "" {
		return nil, errors.New("empty label key")
	}
	b := &LabelBatch{
		src:      src,
		size:     batchSize,
		labelKey: labelKey,
		shape:    valueShape,
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		log:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Refresh discards the resident set and pulls exactly the batch capacity
// from the source. Exhaustion before the capacity is met is fatal and leaves
// the batch empty.
func (b *LabelBatch) Refresh(ctx context.Context) error {
	b.clear()
	return b.load(ctx, b.size)
}

func (b *LabelBatch) clear() {
	b.keys = b.keys[:0]
	b.pos = make(map[string]int, b.size)
	b.items = make(map[string]model.Item, b.size)
}

func (b *LabelBatch) load(ctx context.Context, n int) error {
	for range n {
		key, item, err := b.src.Next(ctx)
		if err != nil {
			b.clear()
			return fmt.Errorf("load: %w", err)
		}
		if _, ok := b.pos[key]; !ok {
			b.pos[key] = len(b.keys)
			b.keys = append(b.keys, key)
		}
		b.items[key] = item.Clone()
	}
	return nil
}

// Len returns the resident count.
func (b *LabelBatch) Len() int {
	return len(b.keys)
}

// Keys returns the resident keys in insertion order.
func (b *LabelBatch) Keys() []string {
	out := make([]string, len(b.keys))
	copy(out, b.keys)
	return out
}

// Values reshapes every resident value to the batch's value shape and stacks
// them along a new leading axis, in insertion order.
func (b *LabelBatch) Values() (model.Array, error) {
	arrays := make([]model.Array, 0, len(b.keys))
	for _, key := range b.keys {
		v, err := b.items[key].Value.Reshape(b.shape...)
		if err != nil {
			return model.Array{}, fmt.Errorf("value for %q: %w", key, err)
		}
		arrays = append(arrays, v)
	}
	return model.Stack(arrays)
}

// Labels returns the flattened label of every resident item under the batch's
// label key, in the same order as Values.
func (b *LabelBatch) Labels() ([]string, error) {
	out := make([]string, 0, len(b.keys))
	for _, key := range b.keys {
		label, ok := b.items[key].LabelString(b.labelKey)
		if !ok {
			return nil, fmt.Errorf("%w: %q on item %q", ErrMissingLabel, b.labelKey, key)
		}
		out = append(out, label)
	}
	return out, nil
}
