package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ScapeQin/shufflr/entry"
	"github.com/ScapeQin/shufflr/keyutil"
	"github.com/ScapeQin/shufflr/model"
	"github.com/ScapeQin/shufflr/tables"
)

func sample(t *testing.T, label string) model.Item {
	t.Helper()
	v, err := model.NewArray([]float32{1, 2, 3, 4}, 4)
	require.NoError(t, err)
	return model.Item{
		Kind:   model.KindSample,
		Value:  v,
		Labels: map[string][]string{"chord": {label}},
	}
}

func openMemory(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := Open(entry.NewMemoryStore(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAddGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	item := sample(t, "C:maj")
	require.NoError(t, s.Add(ctx, "a/0", item))

	got, err := s.Get(ctx, "a/0")
	require.NoError(t, err)
	assert.True(t, item.Equal(got))

	// Keys are cleansed on the way in and out.
	got, err = s.Get(ctx, "/a/0/")
	require.NoError(t, err)
	assert.True(t, item.Equal(got))
}

func TestGetErrors(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	_, err := s.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	// Reserved names are never items, even after tables are persisted.
	require.NoError(t, s.Add(ctx, "a", sample(t, "x")))
	_, err = s.Keys(ctx)
	require.NoError(t, err)

	_, err = s.Get(ctx, keyutil.ReservedKeyManifest)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAddValidation(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	err := s.Add(ctx, "__bad", sample(t, "x"))
	require.ErrorIs(t, err, keyutil.ErrInvalidKey)

	err = s.Add(ctx, "ok", model.Item{Kind: model.KindUnknown})
	require.ErrorIs(t, err, model.ErrUnknownKind)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	require.NoError(t, s.Add(ctx, "a", sample(t, "x")))
	require.NoError(t, s.Remove(ctx, "a"))
	require.ErrorIs(t, s.Remove(ctx, "a"), ErrNotFound)

	_, err := s.Get(ctx, "a")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTablesConsistentAfterMutations(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	check := func(wantKeys []string) {
		t.Helper()
		keys, err := s.Keys(ctx)
		require.NoError(t, err)
		assert.Equal(t, wantKeys, keys)
		for _, k := range keys {
			assert.False(t, keyutil.IsReserved(k))
		}

		enum, err := s.LabelEnum(ctx)
		require.NoError(t, err)
		rows, err := s.IndexTable(ctx)
		require.NoError(t, err)

		codes := make(map[int]bool, len(enum))
		for _, c := range enum {
			codes[c] = true
		}
		for _, row := range rows {
			assert.True(t, codes[row.LabelCode], "row code %d not in enum", row.LabelCode)
			assert.GreaterOrEqual(t, row.KeyIndex, 0)
			assert.Less(t, row.KeyIndex, len(keys))
		}
	}

	require.NoError(t, s.Add(ctx, "a", sample(t, "x")))
	check([]string{"a"})

	require.NoError(t, s.Add(ctx, "b", sample(t, "y")))
	check([]string{"a", "b"})

	require.NoError(t, s.Add(ctx, "c", sample(t, "x")))
	check([]string{"a", "b", "c"})

	require.NoError(t, s.Remove(ctx, "b"))
	check([]string{"a", "c"})

	require.NoError(t, s.Add(ctx, "b", sample(t, "z")))
	check([]string{"a", "b", "c"})
}

func TestThreeItemScenario(t *testing.T) {
	// a,b,c labeled x,y,x: a bijective two-label enum and exactly three
	// rows, two on x's code and one on y's.
	ctx := context.Background()
	s := openMemory(t)

	require.NoError(t, s.Add(ctx, "a", sample(t, "x")))
	require.NoError(t, s.Add(ctx, "b", sample(t, "y")))
	require.NoError(t, s.Add(ctx, "c", sample(t, "x")))

	enum, err := s.LabelEnum(ctx)
	require.NoError(t, err)
	require.Len(t, enum, 2)
	xCode, ok := enum["x"]
	require.True(t, ok)
	yCode, ok := enum["y"]
	require.True(t, ok)
	assert.NotEqual(t, xCode, yCode)

	rows, err := s.IndexTable(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	var xRows, yRows int
	for _, row := range rows {
		switch row.LabelCode {
		case xCode:
			xRows++
		case yCode:
			yRows++
		}
	}
	assert.Equal(t, 2, xRows)
	assert.Equal(t, 1, yRows)

	x, err := s.Postings(ctx, xCode)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), x.GetCardinality())
}

func TestTablesPersistAcrossReopen(t *testing.T) {
	ctx := context.Background()
	entries := entry.NewMemoryStore()

	s1, err := Open(entries)
	require.NoError(t, err)
	require.NoError(t, s1.Add(ctx, "a", sample(t, "x")))
	require.NoError(t, s1.Add(ctx, "b", sample(t, "y")))

	keys1, err := s1.Keys(ctx)
	require.NoError(t, err)
	enum1, err := s1.LabelEnum(ctx)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	// A fresh store over the same entries loads the persisted tables
	// without a rescan.
	s2, err := Open(entries)
	require.NoError(t, err)
	defer s2.Close()

	keys2, err := s2.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, keys1, keys2)

	enum2, err := s2.LabelEnum(ctx)
	require.NoError(t, err)
	assert.Equal(t, enum1, enum2)
}

func TestRebuildAbortsOnUnknownKind(t *testing.T) {
	ctx := context.Background()
	entries := entry.NewMemoryStore()
	s, err := Open(entries)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Add(ctx, "good", sample(t, "x")))

	// Hand-craft an entry with a kind byte outside the closed enum.
	data, err := encodeItem(sample(t, "y"), s.codec, CompressionNone)
	require.NoError(t, err)
	data[5] = 0x7f
	require.NoError(t, entries.Put(ctx, "bad", data))

	err = s.CreateTables(ctx)
	require.ErrorIs(t, err, ErrUnknownKind)

	// Nothing was persisted.
	_, err = entries.Get(ctx, keyutil.ReservedKeyManifest)
	require.ErrorIs(t, err, entry.ErrNotFound)
}

func TestSequenceRows(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	v, err := model.NewArray([]float32{1, 2, 3, 4, 5, 6}, 3, 2)
	require.NoError(t, err)
	seq := model.Item{
		Kind:   model.KindSequence,
		Value:  v,
		Labels: map[string][]string{"chord": {"C", "G", "C"}},
	}
	require.NoError(t, s.Add(ctx, "seq", seq))

	rows, err := s.IndexTable(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for i, row := range rows {
		assert.Equal(t, 0, row.KeyIndex)
		assert.Equal(t, i, row.Subindex)
	}
}

func TestSampleRowsHaveNoSubindex(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	require.NoError(t, s.Add(ctx, "a", sample(t, "x")))

	rows, err := s.IndexTable(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, tables.SampleSubindex, rows[0].Subindex)
}

func TestOverwriteAdvisory(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	require.NoError(t, s.Add(ctx, "a", sample(t, "x")))

	// Add without overwrite intent still replaces.
	replacement := sample(t, "y")
	require.NoError(t, s.Add(ctx, "a", replacement))
	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, replacement.Equal(got))

	// And with explicit intent.
	third := sample(t, "z")
	require.NoError(t, s.Add(ctx, "a", third, Overwrite()))
	got, err = s.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, third.Equal(got))
}

func TestClosedStore(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close()) // idempotent

	_, err := s.Get(ctx, "a")
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, s.Add(ctx, "a", sample(t, "x")), ErrClosed)
	_, err = s.Keys(ctx)
	require.ErrorIs(t, err, ErrClosed)
}

func TestLocalBackendEndToEnd(t *testing.T) {
	ctx := context.Background()
	entries, err := entry.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	s, err := Open(entries, WithCompression(CompressionZSTD))
	require.NoError(t, err)
	defer s.Close()

	item := sample(t, "C:maj")
	require.NoError(t, s.Add(ctx, "artist/track/0", item))

	got, err := s.Get(ctx, "artist/track/0")
	require.NoError(t, err)
	assert.True(t, item.Equal(got))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"artist/track/0"}, keys)

	n, err := s.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
