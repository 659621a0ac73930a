package store

import (
	"context"
	"math/rand/v2"

	"github.com/ScapeQin/shufflr/model"
	"github.com/ScapeQin/shufflr/source"
)

// KeySource is a source.Source over a snapshot of the store's key manifest.
//
// By default it cycles forever, reshuffling on every wrap when a generator
// is configured; OnePass makes it finite. The key snapshot is taken at
// construction, so items added or removed afterwards are not observed until
// a new KeySource is created.
type KeySource struct {
	store   *Store
	keys    []string
	pos     int
	onePass bool
	rng     *rand.Rand
}

// KeySourceOption configures a KeySource.
type KeySourceOption func(*KeySource)

// OnePass makes the source yield every key exactly once and then exhaust.
func OnePass() KeySourceOption {
	return func(ks *KeySource) {
		ks.onePass = true
	}
}

// WithShuffle sets the generator used to shuffle the key order, at
// construction and on every wrap-around. Without one, keys are yielded in
// manifest order.
func WithShuffle(rng *rand.Rand) KeySourceOption {
	return func(ks *KeySource) {
		ks.rng = rng
	}
}

// WithShuffleSeed is WithShuffle with a deterministic seeded generator.
func WithShuffleSeed(seed uint64) KeySourceOption {
	return WithShuffle(rand.New(rand.NewPCG(seed, seed)))
}

// KeySource creates a source over the store's current key manifest,
// triggering a table rebuild if needed.
func (s *Store) KeySource(ctx context.Context, opts ...KeySourceOption) (*KeySource, error) {
	keys, err := s.Keys(ctx)
	if err != nil {
		return nil, err
	}

	ks := &KeySource{store: s, keys: keys}
	for _, opt := range opts {
		opt(ks)
	}
	ks.shuffle()
	return ks, nil
}

func (ks *KeySource) shuffle() {
	if ks.rng == nil {
		return
	}
	ks.rng.Shuffle(len(ks.keys), func(i, j int) {
		ks.keys[i], ks.keys[j] = ks.keys[j], ks.keys[i]
	})
}

// Next yields the next (key, item) pair.
func (ks *KeySource) Next(ctx context.Context) (string, model.Item, error) {
	if ks.pos >= len(ks.keys) {
		if ks.onePass || len(ks.keys) == 0 {
			return "", model.Item{}, source.ErrExhausted
		}
		ks.pos = 0
		ks.shuffle()
	}

	key := ks.keys[ks.pos]
	ks.pos++

	item, err := ks.store.Get(ctx, key)
	if err != nil {
		return "", model.Item{}, err
	}
	return key, item, nil
}

// NumItems returns the number of distinct keys in the snapshot.
func (ks *KeySource) NumItems() int {
	return len(ks.keys)
}
