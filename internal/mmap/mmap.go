// Package mmap provides read-only memory mapping for local entry files.
//
// On platforms without mmap support the file is read into memory instead;
// callers see the same interface either way.
package mmap

// Mapping is a read-only view of a file's contents.
type Mapping struct {
	data   []byte
	mapped bool
}

// Bytes returns the mapped contents. The slice is valid until Close.
func (m *Mapping) Bytes() []byte {
	return m.data
}

// Close releases the mapping. It is safe to call more than once.
func (m *Mapping) Close() error {
	if m.data == nil {
		return nil
	}
	data := m.data
	m.data = nil
	if m.mapped {
		return unmap(data)
	}
	return nil
}
