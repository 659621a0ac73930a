// Package minio implements the entry store over MinIO and other
// S3-compatible object stores.
package minio

import (
	"bytes"
	"context"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"golang.org/x/time/rate"

	"github.com/ScapeQin/shufflr/entry"
)

// Store implements entry.Store for MinIO and S3-compatible storage.
type Store struct {
	client  *minio.Client
	bucket  string
	prefix  string
	limiter *rate.Limiter
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix prepends a root prefix to all entry names (e.g. "datasets/chords/").
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithRateLimit throttles requests to at most rps operations per second.
// Useful when a rebuild scan shares the endpoint with a serving workload.
func WithRateLimit(rps float64) Option {
	return func(s *Store) {
		s.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// NewStore creates a MinIO-backed entry store on the given bucket.
func NewStore(client *minio.Client, bucket string, opts ...Option) *Store {
	s := &Store{client: client, bucket: bucket}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

func (s *Store) wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.Code == "NotFound"
}

// Get returns the full contents of the named entry.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	obj, err := s.client.GetObject(ctx, s.bucket, s.key(name), minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if isNotFound(err) {
			return nil, entry.ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// Put writes the named entry. Object stores replace whole objects, so the
// write is atomic by construction.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	if err := s.wait(ctx); err != nil {
		return err
	}

	_, err := s.client.PutObject(ctx, s.bucket, s.key(name),
		bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	return err
}

// Delete removes the named entry.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := s.wait(ctx); err != nil {
		return err
	}

	// Object stores treat removal of an absent key as success, so existence
	// is checked first to honor the ErrNotFound contract.
	if _, err := s.client.StatObject(ctx, s.bucket, s.key(name), minio.StatObjectOptions{}); err != nil {
		if isNotFound(err) {
			return entry.ErrNotFound
		}
		return err
	}
	return s.client.RemoveObject(ctx, s.bucket, s.key(name), minio.RemoveObjectOptions{})
}

// List returns all entry names with the given prefix, sorted.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	fullPrefix := s.key(prefix)
	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    fullPrefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		name := strings.TrimPrefix(obj.Key, s.prefix)
		name = strings.TrimPrefix(name, "/")
		if name != "" {
			names = append(names, name)
		}
	}

	sort.Strings(names)
	return names, nil
}
