// Package memory implements db.Store in process memory. It backs tests and
// local runs that have no Redis available.
package memory

import (
	"context"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/urbanatlas/docgraph/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Store is a mutex-guarded in-memory db.Store.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

// WaitForReady always succeeds.
func (s *Store) WaitForReady(context.Context, time.Duration) error { return nil }

// JSONSet stores a JSON document at the given key.
func (s *Store) JSONSet(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = clone(data)
	return nil
}

// JSONSetMulti writes all items under a single lock, so the batch is atomic.
func (s *Store) JSONSetMulti(_ context.Context, items []db.JSONSetItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range items {
		s.data[it.Key] = clone(it.Data)
	}
	return nil
}

// JSONGet retrieves a JSON document by key.
func (s *Store) JSONGet(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return clone(data), nil
}

// JSONGetMulti retrieves several documents; missing keys yield nil entries.
func (s *Store) JSONGetMulti(_ context.Context, keys []string) ([][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([][]byte, len(keys))
	for i, key := range keys {
		if data, ok := s.data[key]; ok {
			out[i] = clone(data)
		}
	}
	return out, nil
}

// Del removes a key.
func (s *Store) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Exists reports whether a key exists.
func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[key]
	return ok, nil
}

// Scan returns all keys matching a glob pattern, sorted for determinism.
func (s *Store) Scan(_ context.Context, pattern string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for key := range s.data {
		if ok, err := path.Match(pattern, key); err == nil && ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func clone(b []byte) []byte {
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
