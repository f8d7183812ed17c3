// Package cache holds the last-fetched result per (department, division)
// scope. Unlike a consistency cache it only promises to hide repeat
// fetches within a bounded window: entries expire after a TTL and are
// deleted outright when a local mutation touches their scope. Backend
// changes made by other clients stay invisible until expiry.
package cache

import (
	"sync"
	"time"
)

// Clock is the subset of time retrieval the cache needs.
type Clock interface {
	Now() time.Time
}

// Key builds the scope key for a (department, division) pair. ok is false
// when either part is empty: unscoped fetches bypass the cache entirely.
func Key(department, division string) (string, bool) {
	if department == "" || division == "" {
		return "", false
	}
	return department + "-" + division, true
}

type entry[T any] struct {
	value    T
	storedAt time.Time
}

// Store is a mutex-guarded scoped cache with a TTL and an entry bound.
// When full, the oldest entry is evicted. Safe for concurrent use; the
// chat poll tick and the UI loop share it.
type Store[T any] struct {
	mu         sync.Mutex
	entries    map[string]entry[T]
	ttl        time.Duration
	maxEntries int
	clock      Clock
}

// New creates a Store with the given bounds. maxEntries must be positive.
func New[T any](ttl time.Duration, maxEntries int, clock Clock) *Store[T] {
	return &Store[T]{
		entries:    make(map[string]entry[T]),
		ttl:        ttl,
		maxEntries: maxEntries,
		clock:      clock,
	}
}

// Get returns the cached value for key if present and fresh.
func (s *Store[T]) Get(key string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		var zero T
		return zero, false
	}
	if s.clock.Now().Sub(e.storedAt) >= s.ttl {
		delete(s.entries, key)
		var zero T
		return zero, false
	}
	return e.value, true
}

// Put stores value under key, evicting the oldest entry when full.
func (s *Store[T]) Put(key string, value T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[key]; !exists && len(s.entries) >= s.maxEntries {
		s.evictOldestLocked()
	}
	s.entries[key] = entry[T]{value: value, storedAt: s.clock.Now()}
}

// Invalidate removes the entry for key. The next read for that scope
// performs a full fetch.
func (s *Store[T]) Invalidate(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Clear removes all entries.
func (s *Store[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.entries)
}

// Len returns the number of entries, including any not yet expired.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store[T]) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	first := true
	for k, e := range s.entries {
		if first || e.storedAt.Before(oldestAt) {
			oldestKey, oldestAt = k, e.storedAt
			first = false
		}
	}
	if !first {
		delete(s.entries, oldestKey)
	}
}
