package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ScapeQin/shufflr/source"
)

func TestKeySourceOnePass(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	require.NoError(t, s.Add(ctx, "a", sample(t, "x")))
	require.NoError(t, s.Add(ctx, "b", sample(t, "y")))

	ks, err := s.KeySource(ctx, OnePass())
	require.NoError(t, err)
	assert.Equal(t, 2, ks.NumItems())

	seen := map[string]bool{}
	for range 2 {
		key, item, err := ks.Next(ctx)
		require.NoError(t, err)
		require.NoError(t, item.Validate())
		seen[key] = true
	}
	assert.Len(t, seen, 2)

	_, _, err = ks.Next(ctx)
	require.ErrorIs(t, err, source.ErrExhausted)
}

func TestKeySourceCyclic(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	require.NoError(t, s.Add(ctx, "a", sample(t, "x")))
	require.NoError(t, s.Add(ctx, "b", sample(t, "y")))

	ks, err := s.KeySource(ctx)
	require.NoError(t, err)

	// Wraps around without exhausting.
	counts := map[string]int{}
	for range 6 {
		key, _, err := ks.Next(ctx)
		require.NoError(t, err)
		counts[key]++
	}
	assert.Equal(t, 3, counts["a"])
	assert.Equal(t, 3, counts["b"])
}

func TestKeySourceShuffleDeterministic(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	for _, k := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, s.Add(ctx, k, sample(t, "x")))
	}

	order := func(seed uint64) []string {
		ks, err := s.KeySource(ctx, OnePass(), WithShuffleSeed(seed))
		require.NoError(t, err)
		var keys []string
		for {
			key, _, err := ks.Next(ctx)
			if err != nil {
				require.ErrorIs(t, err, source.ErrExhausted)
				break
			}
			keys = append(keys, key)
		}
		return keys
	}

	assert.Equal(t, order(7), order(7))
	assert.ElementsMatch(t, []string{"a", "b", "c", "d", "e"}, order(7))
}

func TestKeySourceEmptyStore(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	ks, err := s.KeySource(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, ks.NumItems())

	_, _, err = ks.Next(ctx)
	require.ErrorIs(t, err, source.ErrExhausted)
}
