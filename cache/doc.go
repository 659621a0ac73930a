// Package cache maintains a bounded in-memory working set over a source,
// with randomized single-item replacement approximating full coverage of an
// arbitrarily large dataset.
//
// The cache keeps its own generation of derived tables, scoped to the
// resident items and independent of any persistent store's tables.
package cache
