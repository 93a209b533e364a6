// Package db defines the storage facade the repositories consume. Drivers
// live in subpackages; consumers depend on the narrow sub-interfaces (ISP).
package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
type Store interface {
	Pinger
	JSONStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// JSONSetItem holds a single key+document pair for an atomic multi-key write.
type JSONSetItem struct {
	Key  string
	Data []byte
}

// JSONStore provides JSON document operations. JSONSetMulti is transactional:
// either every item is written or none is.
type JSONStore interface {
	JSONSet(ctx context.Context, key string, data []byte) error
	JSONSetMulti(ctx context.Context, items []JSONSetItem) error
	JSONGet(ctx context.Context, key string) ([]byte, error)
	// JSONGetMulti returns one entry per key, nil for keys that do not exist.
	JSONGetMulti(ctx context.Context, keys []string) ([][]byte, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}
