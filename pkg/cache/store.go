package cache

import (
	"sync"
)

// Store is a concurrency-safe map from organization id to Entry.
type Store struct {
	mu      sync.Mutex
	entries map[string]Entry
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]Entry),
	}
}

// Lookup returns a copy of the entry stored for key.
// The second result is false if nothing has been stored for key yet.
// Freshness is not checked.
func (s *Store) Lookup(key string) (entry Entry, ok bool) {
	s.withLock(func(entries map[string]Entry) {
		entry, ok = entries[key]
	})
	return entry, ok
}

// Put inserts entry for key, replacing any previous entry.
func (s *Store) Put(key string, entry Entry) {
	var size int
	s.withLock(func(entries map[string]Entry) {
		entries[key] = entry
		size = len(entries)
	})

	CacheWrites.Inc()
	CacheEntries.Set(float64(size))
}

// Len returns the number of cached organizations.
func (s *Store) Len() (n int) {
	s.withLock(func(entries map[string]Entry) {
		n = len(entries)
	})
	return n
}

// withLock runs fn while holding the store mutex. The mutex is released even
// if fn panics.
func (s *Store) withLock(fn func(entries map[string]Entry)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(s.entries)
}
