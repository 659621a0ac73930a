//go:build !unix

package mmap

import "os"

// Open reads the file at path into memory. The fallback keeps the same
// interface as the unix mmap path.
func Open(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return &Mapping{}, nil
	}
	return &Mapping{data: data}, nil
}

func unmap([]byte) error { return nil }
