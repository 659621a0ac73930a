// Package model defines the core data types shared across Shufflr.
//
// # Items
//
//   - Item: a labeled numeric value, classified as Sample or Sequence
//   - Kind: the closed two-variant item classification
//   - Array: a shape-aware float32 payload with numpy-like Stack/Select
//
// A Sample carries exactly one label per label key; a Sequence carries one
// label per frame along the value's leading axis. Anything else fails
// validation with ErrUnknownKind.
package model
