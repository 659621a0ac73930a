// Package entry defines the opaque keyed byte store that backs the
// persistent item store.
//
// The store never interprets entry contents; item encoding and the derived
// tables live one layer up. Backends:
//
//   - [MemoryStore]: in-memory map, for tests and ephemeral datasets
//   - [LocalStore]: file per entry with atomic temp+rename writes
//   - entry/minio: MinIO and other S3-compatible object stores
//   - entry/s3: AWS S3
package entry
