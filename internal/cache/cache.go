package cache

import (
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// Store keeps values under generated ids for a sliding TTL. Every Get
// restarts the TTL of the entry.
type Store[V any] struct {
	mu   sync.Mutex
	ttl  time.Duration
	data *gocache.Cache
}

// New creates a store whose entries expire after ttl without access.
// onEvict, when set, runs for entries that expire or are deleted.
func New[V any](ttl time.Duration, onEvict func(id string, value V)) *Store[V] {
	data := gocache.New(ttl, ttl*2)
	if onEvict != nil {
		data.OnEvicted(func(id string, value any) {
			onEvict(id, value.(V))
		})
	}

	return &Store[V]{
		ttl:  ttl,
		data: data,
	}
}

// Put stores value under a new id
func (s *Store[V]) Put(value V) string {
	id := uuid.NewString()
	s.data.Set(id, value, s.ttl)
	return id
}

// Get returns the value stored under id and extends its TTL
func (s *Store[V]) Get(id string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.data.Get(id)
	if !ok {
		var zero V
		return zero, false
	}
	s.data.Set(id, value, s.ttl)
	return value.(V), true
}

// Delete removes id, running the eviction callback when it was present
func (s *Store[V]) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Delete(id)
}

// DeleteExpired evicts expired entries now instead of waiting for the janitor
func (s *Store[V]) DeleteExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.DeleteExpired()
}

// Len returns the number of entries, including expired ones not yet evicted
func (s *Store[V]) Len() int {
	return s.data.ItemCount()
}

// Clear removes all values without running the eviction callback
func (s *Store[V]) Clear() {
	s.data.Flush()
}
