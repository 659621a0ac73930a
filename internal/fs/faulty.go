package fs

import (
	"errors"
	"os"
	"strings"
	"sync"
)

// ErrInjected is the default error returned by injected faults.
var ErrInjected = errors.New("injected fault")

// FaultyFS is a FileSystem wrapper that fails writes to matching paths.
// It exists for tests that exercise the local store's atomic-write path.
type FaultyFS struct {
	FS FileSystem

	mu          sync.Mutex
	failPattern string
	err         error
}

// NewFaultyFS creates a FaultyFS wrapping fs (or Default if nil).
func NewFaultyFS(fs FileSystem) *FaultyFS {
	if fs == nil {
		fs = Default
	}
	return &FaultyFS{FS: fs, err: ErrInjected}
}

// FailWrites makes writes fail on any file whose path contains pattern.
func (f *FaultyFS) FailWrites(pattern string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failPattern = pattern
}

func (f *FaultyFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	file, err := f.FS.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	fail := f.failPattern != "" && strings.Contains(name, f.failPattern)
	injected := f.err
	f.mu.Unlock()

	if fail {
		return &faultyFile{File: file, err: injected}, nil
	}
	return file, nil
}

func (f *FaultyFS) Remove(name string) error             { return f.FS.Remove(name) }
func (f *FaultyFS) Rename(oldpath, newpath string) error { return f.FS.Rename(oldpath, newpath) }
func (f *FaultyFS) Stat(name string) (os.FileInfo, error) {
	return f.FS.Stat(name)
}
func (f *FaultyFS) MkdirAll(path string, perm os.FileMode) error {
	return f.FS.MkdirAll(path, perm)
}
func (f *FaultyFS) ReadDir(name string) ([]os.DirEntry, error) { return f.FS.ReadDir(name) }

type faultyFile struct {
	File
	err error
}

func (f *faultyFile) Write(p []byte) (int, error) { return 0, f.err }
func (f *faultyFile) Sync() error                 { return f.err }
