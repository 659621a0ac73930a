package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/ScapeQin/shufflr/codec"
	"github.com/ScapeQin/shufflr/entry"
	"github.com/ScapeQin/shufflr/keyutil"
	"github.com/ScapeQin/shufflr/model"
	"github.com/ScapeQin/shufflr/tables"
)

var (
	// ErrNotFound is returned for lookups of absent or reserved keys.
	ErrNotFound = errors.New("item not found")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store is closed")

	// ErrUnknownKind aborts a table rebuild when an item is neither a
	// Sample nor a Sequence.
	ErrUnknownKind = model.ErrUnknownKind
)

// Store is a keyed, durable collection of labeled items plus three derived
// tables (key manifest, label enumeration, index table) kept consistent with
// the item set.
//
// Every mutation invalidates all three tables together; the next read of any
// one triggers a full rebuild of all three. Rebuild cost is O(total items),
// paid once lazily after the first mutation and amortized until the next.
//
// Store is a single-writer resource. Callers sharing one across goroutines
// must serialize mutation externally.
type Store struct {
	entries entry.Store
	codec   codec.Codec
	comp    Compression
	scanPar int
	log     *slog.Logger

	mu     sync.Mutex
	tables *tables.Tables
	closed bool
}

// Option configures a Store.
type Option func(*Store)

// WithCodec sets the codec for attribute blocks and derived tables.
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(s *Store) {
		if c == nil {
			c = codec.Default
		}
		s.codec = c
	}
}

// WithCompression sets the payload compression for newly-written items.
// Existing entries are self-describing and decode regardless.
func WithCompression(c Compression) Option {
	return func(s *Store) {
		s.comp = c
	}
}

// WithScanConcurrency bounds the parallel item fetches during a table
// rebuild. Defaults to GOMAXPROCS.
func WithScanConcurrency(n int) Option {
	return func(s *Store) {
		s.scanPar = n
	}
}

// WithLogger sets the structured logger. Defaults to a discarding logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// Open creates a Store over the given entry store.
func Open(entries entry.Store, opts ...Option) (*Store, error) {
	if entries == nil {
		return nil, errors.New("nil entry store")
	}

	s := &Store{
		entries: entries,
		codec:   codec.Default,
		comp:    CompressionNone,
		scanPar: runtime.GOMAXPROCS(0),
		log:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	if !s.comp.valid() {
		return nil, fmt.Errorf("invalid compression type %d", s.comp)
	}
	if s.scanPar < 1 {
		s.scanPar = 1
	}
	return s, nil
}

// Close releases the store. Further operations return ErrClosed.
// Close is idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.tables = nil
	return nil
}

func (s *Store) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// Get retrieves the item stored under key. Absent and reserved keys both
// yield ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) (model.Item, error) {
	if err := s.checkOpen(); err != nil {
		return model.Item{}, err
	}

	key = keyutil.Cleanse(key)
	if !keyutil.IsKeyLike(key) {
		return model.Item{}, fmt.Errorf("%w: %q", ErrNotFound, key)
	}

	data, err := s.entries.Get(ctx, key)
	if err != nil {
		if errors.Is(err, entry.ErrNotFound) {
			return model.Item{}, fmt.Errorf("%w: %q", ErrNotFound, key)
		}
		return model.Item{}, err
	}
	return decodeItem(data)
}

// AddOption configures a single Add call.
type AddOption func(*addOptions)

type addOptions struct {
	overwrite bool
}

// Overwrite declares the caller's intent to replace an existing item.
//
// The flag is advisory: Add replaces existing entries either way, matching
// the storage layer's put semantics. Callers needing strict no-overwrite
// behavior must check Has first. Replacements without the flag are logged.
func Overwrite() AddOption {
	return func(o *addOptions) {
		o.overwrite = true
	}
}

// Add stores item under key, replacing any existing value, and invalidates
// all three derived tables.
func (s *Store) Add(ctx context.Context, key string, item model.Item, opts ...AddOption) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	var o addOptions
	for _, opt := range opts {
		opt(&o)
	}

	key, err := keyutil.Validate(key)
	if err != nil {
		return err
	}
	if err := item.Validate(); err != nil {
		return fmt.Errorf("add %q: %w", key, err)
	}

	if !o.overwrite {
		if exists, err := s.Has(ctx, key); err != nil {
			return err
		} else if exists {
			s.log.DebugContext(ctx, "replacing existing item without overwrite intent", "key", key)
		}
	}

	data, err := encodeItem(item, s.codec, s.comp)
	if err != nil {
		return fmt.Errorf("add %q: %w", key, err)
	}
	if err := s.entries.Put(ctx, key, data); err != nil {
		return fmt.Errorf("add %q: %w", key, err)
	}

	s.log.DebugContext(ctx, "item added", "key", key, "kind", item.Kind.String(), "bytes", len(data))
	return s.invalidateTables(ctx)
}

// Remove deletes the item stored under key and invalidates all three
// derived tables.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	key = keyutil.Cleanse(key)
	if !keyutil.IsKeyLike(key) {
		return fmt.Errorf("%w: %q", ErrNotFound, key)
	}

	if err := s.entries.Delete(ctx, key); err != nil {
		if errors.Is(err, entry.ErrNotFound) {
			return fmt.Errorf("%w: %q", ErrNotFound, key)
		}
		return err
	}

	s.log.DebugContext(ctx, "item removed", "key", key)
	return s.invalidateTables(ctx)
}

// Has reports whether an item exists under key.
func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	key = keyutil.Cleanse(key)
	if !keyutil.IsKeyLike(key) {
		return false, nil
	}
	_, err := s.entries.Get(ctx, key)
	if errors.Is(err, entry.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// invalidateTables clears the local tables and removes the persisted
// reserved entries so the next table read rebuilds everything.
func (s *Store) invalidateTables(ctx context.Context) error {
	s.mu.Lock()
	s.tables = nil
	s.mu.Unlock()

	for _, name := range keyutil.ReservedNames() {
		if err := s.entries.Delete(ctx, name); err != nil && !errors.Is(err, entry.ErrNotFound) {
			return fmt.Errorf("invalidate %s: %w", name, err)
		}
	}
	return nil
}

// Keys returns the key manifest, rebuilding the derived tables if needed.
// Reserved names never appear in the result.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	t, err := s.loadTables(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(t.Keys))
	copy(out, t.Keys)
	return out, nil
}

// Len returns the number of items currently stored.
func (s *Store) Len(ctx context.Context) (int, error) {
	t, err := s.loadTables(ctx)
	if err != nil {
		return 0, err
	}
	return len(t.Keys), nil
}

// LabelEnum returns the label enumeration of the current table generation.
//
// Codes are only valid until the next mutation; consumers must re-fetch
// rather than cache them long-term.
func (s *Store) LabelEnum(ctx context.Context) (map[string]int, error) {
	t, err := s.loadTables(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(t.LabelEnum))
	for k, v := range t.LabelEnum {
		out[k] = v
	}
	return out, nil
}

// IndexTable returns the index table of the current generation.
func (s *Store) IndexTable(ctx context.Context) ([]tables.Row, error) {
	t, err := s.loadTables(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]tables.Row, len(t.Index))
	copy(out, t.Index)
	return out, nil
}

// Postings returns the bitmap of index-table rows carrying the given label
// code. The bitmap is shared; callers must treat it as read-only.
func (s *Store) Postings(ctx context.Context, code int) (*roaring.Bitmap, error) {
	t, err := s.loadTables(ctx)
	if err != nil {
		return nil, err
	}
	return t.Postings(code), nil
}

// loadTables returns the current table generation, loading the persisted
// tables or rebuilding them as needed.
func (s *Store) loadTables(ctx context.Context) (*tables.Tables, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	t := s.tables
	s.mu.Unlock()
	if t != nil {
		return t, nil
	}

	t, err := s.readPersistedTables(ctx)
	if errors.Is(err, entry.ErrNotFound) {
		if err := s.CreateTables(ctx); err != nil {
			return nil, err
		}
		s.mu.Lock()
		t = s.tables
		s.mu.Unlock()
		return t, nil
	}
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.tables = t
	s.mu.Unlock()
	return t, nil
}

// readPersistedTables loads all three reserved entries. A missing entry
// surfaces as entry.ErrNotFound, which triggers a rebuild in loadTables.
func (s *Store) readPersistedTables(ctx context.Context) (*tables.Tables, error) {
	manifestData, err := s.entries.Get(ctx, keyutil.ReservedKeyManifest)
	if err != nil {
		return nil, err
	}
	enumData, err := s.entries.Get(ctx, keyutil.ReservedLabelEnum)
	if err != nil {
		return nil, err
	}
	indexData, err := s.entries.Get(ctx, keyutil.ReservedIndexTable)
	if err != nil {
		return nil, err
	}

	var keys []string
	if err := s.codec.Unmarshal(manifestData, &keys); err != nil {
		return nil, fmt.Errorf("decode key manifest: %w", err)
	}
	var pairs []tables.EnumPair
	if err := s.codec.Unmarshal(enumData, &pairs); err != nil {
		return nil, fmt.Errorf("decode label enum: %w", err)
	}
	var rows []tables.Row
	if err := s.codec.Unmarshal(indexData, &rows); err != nil {
		return nil, fmt.Errorf("decode index table: %w", err)
	}

	return &tables.Tables{
		Keys:      keys,
		LabelEnum: tables.EnumFromPairs(pairs),
		Index:     rows,
	}, nil
}

// CreateTables scans the whole store and writes a fresh, consistent
// generation of all three derived tables. All-or-nothing: any fetch failure
// or unknown item kind aborts the rebuild with nothing persisted.
func (s *Store) CreateTables(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	start := time.Now()

	names, err := s.entries.List(ctx, "")
	if err != nil {
		return fmt.Errorf("rebuild scan: %w", err)
	}

	// List order is sorted, and key indices follow it, so a rebuild over
	// the same item set lands on the same tables regardless of backend.
	keys := make([]string, 0, len(names))
	for _, name := range names {
		if keyutil.IsKeyLike(name) {
			keys = append(keys, name)
		}
	}

	items := make([]model.Item, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.scanPar)
	for i, key := range keys {
		g.Go(func() error {
			data, err := s.entries.Get(gctx, key)
			if err != nil {
				return fmt.Errorf("rebuild fetch %q: %w", key, err)
			}
			item, err := decodeItem(data)
			if err != nil {
				return fmt.Errorf("rebuild decode %q: %w", key, err)
			}
			items[i] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	byKey := make(map[string]model.Item, len(keys))
	for i, key := range keys {
		byKey[key] = items[i]
	}
	t, err := tables.Build(keys, func(key string) (model.Item, error) {
		return byKey[key], nil
	})
	if err != nil {
		return err
	}

	if err := s.persistTables(ctx, t); err != nil {
		return err
	}

	s.mu.Lock()
	s.tables = t
	s.mu.Unlock()

	s.log.InfoContext(ctx, "derived tables rebuilt",
		"items", len(t.Keys),
		"labels", len(t.LabelEnum),
		"rows", len(t.Index),
		"duration", time.Since(start),
	)
	return nil
}

func (s *Store) persistTables(ctx context.Context, t *tables.Tables) error {
	manifestData, err := s.codec.Marshal(t.Keys)
	if err != nil {
		return fmt.Errorf("encode key manifest: %w", err)
	}
	enumData, err := s.codec.Marshal(t.EnumPairs())
	if err != nil {
		return fmt.Errorf("encode label enum: %w", err)
	}
	indexData, err := s.codec.Marshal(t.Index)
	if err != nil {
		return fmt.Errorf("encode index table: %w", err)
	}

	if err := s.entries.Put(ctx, keyutil.ReservedKeyManifest, manifestData); err != nil {
		return fmt.Errorf("persist key manifest: %w", err)
	}
	if err := s.entries.Put(ctx, keyutil.ReservedLabelEnum, enumData); err != nil {
		return fmt.Errorf("persist label enum: %w", err)
	}
	if err := s.entries.Put(ctx, keyutil.ReservedIndexTable, indexData); err != nil {
		return fmt.Errorf("persist index table: %w", err)
	}
	return nil
}
