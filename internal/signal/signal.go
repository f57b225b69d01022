// Package signal provides observable values and the pending indicator.
package signal

import "sync"

// Signal is an observable value cell
type Signal[T any] struct {
	mu          sync.RWMutex
	value       T
	nextID      int
	subscribers map[int]func(T)
}

// New creates a signal holding initial
func New[T any](initial T) *Signal[T] {
	return &Signal[T]{
		value:       initial,
		subscribers: make(map[int]func(T)),
	}
}

// Get returns the current value
func (s *Signal[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set stores value and notifies subscribers outside the lock
func (s *Signal[T]) Set(value T) {
	s.mu.Lock()
	s.value = value
	subscribers := make([]func(T), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subscribers = append(subscribers, fn)
	}
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(value)
	}
}

// Subscribe registers fn for future values and returns a function removing it
func (s *Signal[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, id)
			s.mu.Unlock()
		})
	}
}
