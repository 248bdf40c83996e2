package storage

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get when the key has no value in the store.
var ErrKeyNotFound = errors.New("key not found")

// Store is the uniform contract over the physical stores backing the project
// repository: the durable remote key-value store, the relational metadata
// store, and the in-process fallback map. Values are opaque byte payloads and
// are stored verbatim; implementations must not re-encode them.
type Store interface {
	// Get returns the value for key, or ErrKeyNotFound if absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// List returns all keys starting with prefix. An empty prefix lists
	// every key.
	List(ctx context.Context, prefix string) ([]string, error)
}
