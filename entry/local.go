package entry

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ScapeQin/shufflr/internal/fs"
	"github.com/ScapeQin/shufflr/internal/mmap"
)

const tmpSuffix = ".tmp"

// LocalStore implements Store using one file per entry below a root
// directory. Writes go through a temp file and rename, so a crash never
// leaves a partially-written entry visible.
type LocalStore struct {
	fs   fs.FileSystem
	root string
}

// LocalOption configures a LocalStore.
type LocalOption func(*LocalStore)

// WithFS overrides the filesystem implementation. Used by tests to inject
// write failures.
func WithFS(fsys fs.FileSystem) LocalOption {
	return func(s *LocalStore) {
		s.fs = fsys
	}
}

// NewLocalStore creates a LocalStore rooted at the given directory,
// creating it if needed.
func NewLocalStore(root string, opts ...LocalOption) (*LocalStore, error) {
	s := &LocalStore{fs: fs.Default, root: root}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.fs.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *LocalStore) path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// Get returns the full contents of the named entry.
//
// Reads use mmap where available; the contents are copied out so the
// returned slice stays valid after the mapping is released.
func (s *LocalStore) Get(_ context.Context, name string) ([]byte, error) {
	m, err := mmap.Open(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer m.Close()

	data := make([]byte, len(m.Bytes()))
	copy(data, m.Bytes())
	return data, nil
}

// Put writes the named entry atomically via temp file and rename.
func (s *LocalStore) Put(_ context.Context, name string, data []byte) error {
	path := s.path(name)
	if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp := path + tmpSuffix
	f, err := s.fs.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = s.fs.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = s.fs.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = s.fs.Remove(tmp)
		return err
	}
	return s.fs.Rename(tmp, path)
}

// Delete removes the named entry.
func (s *LocalStore) Delete(_ context.Context, name string) error {
	err := s.fs.Remove(s.path(name))
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	return err
}

// List returns all entry names with the given prefix, sorted. Leftover temp
// files from interrupted writes are skipped.
func (s *LocalStore) List(_ context.Context, prefix string) ([]string, error) {
	var names []string
	err := fs.WalkFiles(s.fs, s.root, func(rel string) error {
		if strings.HasSuffix(rel, tmpSuffix) {
			return nil
		}
		if prefix == "" || strings.HasPrefix(rel, prefix) {
			names = append(names, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}
