// Package store holds the in-memory key/value state shared by storage
// command handlers across all connections.
package store

import (
	"sort"
	"sync"
)

// Store is a mutex-guarded map of JSON-representable values. State is
// process-local only; a restart starts empty.
type Store struct {
	mu    sync.RWMutex
	items map[string]any
}

func New() *Store {
	return &Store{items: make(map[string]any)}
}

// Put upserts key. Storing the same key twice keeps one entry.
func (s *Store) Put(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
}

func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.items[key]
	return value, ok
}

// Delete removes key and reports whether it was present.
func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[key]
	delete(s.items, key)
	return ok
}

// Keys returns all keys in sorted order for deterministic listings.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
