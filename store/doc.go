// Package store implements the persistent, label-aware item store.
//
// Items live in an opaque entry store (see package entry) alongside exactly
// three reserved entries holding the derived tables: the key manifest, the
// label enumeration and the index table. Every mutation invalidates all
// three together; the next read of any one triggers a full rebuild scan.
//
// Label codes are generation-scoped. A rebuild may assign different codes to
// the same label string, so consumers re-fetch LabelEnum after any mutation
// instead of caching codes.
//
// The store is a single-writer resource with no internal mutation
// serialization beyond protecting its local table cache.
package store
