package entry

import (
	"context"
	"testing"

	"github.com/ScapeQin/shufflr/internal/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeContract runs the Store contract against any implementation.
func storeContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(ctx, "a/0", []byte("one")))
	require.NoError(t, s.Put(ctx, "a/1", []byte("two")))
	require.NoError(t, s.Put(ctx, "b", []byte("three")))

	data, err := s.Get(ctx, "a/0")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), data)

	// Put replaces.
	require.NoError(t, s.Put(ctx, "a/0", []byte("uno")))
	data, err = s.Get(ctx, "a/0")
	require.NoError(t, err)
	assert.Equal(t, []byte("uno"), data)

	names, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/0", "a/1", "b"}, names)

	names, err = s.List(ctx, "a/")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/0", "a/1"}, names)

	require.NoError(t, s.Delete(ctx, "b"))
	require.ErrorIs(t, s.Delete(ctx, "b"), ErrNotFound)

	_, err = s.Get(ctx, "b")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreContract(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestLocalStoreContract(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	storeContract(t, s)
}

func TestMemoryStoreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	in := []byte("abc")
	require.NoError(t, s.Put(ctx, "k", in))
	in[0] = 'x'

	out, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), out)

	out[1] = 'y'
	again, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}

func TestLocalStoreAtomicWrite(t *testing.T) {
	ctx := context.Background()
	ffs := fs.NewFaultyFS(nil)

	s, err := NewLocalStore(t.TempDir(), WithFS(ffs))
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "k", []byte("v1")))

	// A failing rewrite must leave the previous contents intact.
	ffs.FailWrites(tmpSuffix)
	require.Error(t, s.Put(ctx, "k", []byte("v2")))

	ffs.FailWrites("")
	data, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), data)

	// The failed temp file is not listed.
	names, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"k"}, names)
}

func TestLocalStoreNestedNames(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, "artist/album/track/0", []byte("x")))
	names, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"artist/album/track/0"}, names)
}
