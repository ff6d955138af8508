package optimistic

import (
	"sync"
)

// Store holds a keyed collection as an immutable slice.
type Store[K comparable, T any] struct {
	key func(T) K

	mu      sync.Mutex
	items   []T
	version uint64
}

// NewStore creates a store over items. The slice is owned by the store.
func NewStore[K comparable, T any](key func(T) K, items []T) *Store[K, T] {
	return &Store[K, T]{key: key, items: items}
}

// Key returns the identity of v.
func (s *Store[K, T]) Key(v T) K {
	return s.key(v)
}

// Snapshot returns the current collection. Callers must not modify it.
func (s *Store[K, T]) Snapshot() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items
}

// Get returns the item with key k.
func (s *Store[K, T]) Get(k K) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := indexOf(s.items, s.key, k); i >= 0 {
		return s.items[i], true
	}
	var zero T
	return zero, false
}

// Len returns the number of items.
func (s *Store[K, T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Replace publishes items as the whole collection.
func (s *Store[K, T]) Replace(items []T) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
	return s.publish()
}

// Update publishes fn(current) and returns the new version. fn must return
// a new slice rather than modifying its argument.
func (s *Store[K, T]) Update(fn func([]T) []T) uint64 {
	_, v := s.swap(fn)
	return v
}

// swap publishes fn(current) and returns the replaced collection.
func (s *Store[K, T]) swap(fn func([]T) []T) ([]T, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.items
	s.items = fn(prev)
	return prev, s.publish()
}

// restore undoes a failed mutation whose local change published version.
// When nothing was written since, the whole snapshot comes back. Otherwise
// only the entry keyed k is taken from snapshot, so later writes to other
// entries survive.
func (s *Store[K, T]) restore(snapshot []T, version uint64, k K) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version == version {
		s.items = snapshot
	} else {
		s.items = restoreEntry(s.items, snapshot, s.key, k)
	}
	return s.publish()
}

// publish must be called with s.mu held.
func (s *Store[K, T]) publish() uint64 {
	s.version++
	return s.version
}

func indexOf[K comparable, T any](items []T, key func(T) K, k K) int {
	for i, it := range items {
		if key(it) == k {
			return i
		}
	}
	return -1
}
