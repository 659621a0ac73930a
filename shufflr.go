package shufflr

import (
	"errors"

	"github.com/ScapeQin/shufflr/batch"
	"github.com/ScapeQin/shufflr/entry"
	"github.com/ScapeQin/shufflr/keyutil"
	"github.com/ScapeQin/shufflr/source"
	"github.com/ScapeQin/shufflr/store"
)

// Re-exported sentinels so callers can handle the whole failure taxonomy
// from the root package.
var (
	// ErrNotFound is returned on get/remove of an absent key.
	ErrNotFound = store.ErrNotFound
	// ErrInvalidKey is returned on add with a malformed or reserved key.
	ErrInvalidKey = keyutil.ErrInvalidKey
	// ErrUnknownKind aborts a table rebuild over an unclassifiable item.
	ErrUnknownKind = store.ErrUnknownKind
	// ErrSourceExhausted is returned when a load asks for more items than a
	// source can supply.
	ErrSourceExhausted = source.ErrExhausted
	// ErrPairingInfeasible is returned when a paired batch cannot complete
	// its pairing pass.
	ErrPairingInfeasible = batch.ErrPairingInfeasible
)

// Open creates a store on the configured backend. Without a backend option
// it runs purely in memory.
func Open(opts ...Option) (*store.Store, error) {
	o := &options{}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	entries := o.entries
	if entries == nil {
		if o.dir != "" {
			var err error
			entries, err = entry.NewLocalStore(o.dir)
			if err != nil {
				return nil, err
			}
		} else {
			o.backend = "memory"
			entries = entry.NewMemoryStore()
		}
	}

	s, err := store.Open(entries, o.store...)
	if err != nil {
		return nil, err
	}
	if o.log != nil {
		o.log.WithBackend(o.backend).Info("store opened")
	}
	return s, nil
}

type options struct {
	dir     string
	backend string
	entries entry.Store
	log     *Logger
	store   []store.Option
}

// Option configures Open.
type Option func(*options) error

// Local stores entries under the given directory, one file per entry,
// written atomically.
func Local(dir string) Option {
	return func(o *options) error {
		if dir == "" {
			return errors.New("empty directory")
		}
		if o.entries != nil {
			return errors.New("backend already configured")
		}
		o.dir = dir
		o.backend = "local"
		return nil
	}
}

// Memory keeps all entries in process memory. This is the default backend.
func Memory() Option {
	return func(o *options) error {
		if o.entries != nil || o.dir != "" {
			return errors.New("backend already configured")
		}
		o.entries = entry.NewMemoryStore()
		o.backend = "memory"
		return nil
	}
}

// Remote stores entries in the given backend, typically an S3 or MinIO
// bucket (see entry/s3 and entry/minio).
func Remote(entries entry.Store) Option {
	return func(o *options) error {
		if entries == nil {
			return errors.New("nil entry store")
		}
		if o.entries != nil || o.dir != "" {
			return errors.New("backend already configured")
		}
		o.entries = entries
		o.backend = "remote"
		return nil
	}
}

// WithStoreOptions forwards options to the underlying store, such as
// store.WithCodec, store.WithCompression and store.WithScanConcurrency.
func WithStoreOptions(opts ...store.Option) Option {
	return func(o *options) error {
		o.store = append(o.store, opts...)
		return nil
	}
}

// WithLogger routes the store's structured logs through the given logger.
func WithLogger(log *Logger) Option {
	return func(o *options) error {
		if log == nil {
			return errors.New("nil logger")
		}
		o.log = log
		o.store = append(o.store, store.WithLogger(log.Logger))
		return nil
	}
}
