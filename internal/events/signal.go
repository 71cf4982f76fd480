// Package events carries named notifications between components.
package events

import (
	"sync"
	"sync/atomic"
)

// Signal delivers values to a single active subscriber. Subscribing again
// replaces the previous subscriber and closes its channel. Emit never blocks:
// values are dropped when nobody listens or the buffer is full.
type Signal[T any] struct {
	name    string
	buffer  int
	mu      sync.Mutex
	ch      chan T
	closed  bool
	dropped atomic.Uint64
}

// NewSignal creates a signal whose subscriber channels hold buffer values.
func NewSignal[T any](name string, buffer int) *Signal[T] {
	if buffer < 1 {
		buffer = 1
	}
	return &Signal[T]{name: name, buffer: buffer}
}

// Name returns the signal name.
func (s *Signal[T]) Name() string {
	return s.name
}

// Subscribe returns a fresh channel and closes the previous subscriber's.
// After Close it returns a closed channel.
func (s *Signal[T]) Subscribe() <-chan T {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ch != nil {
		close(s.ch)
		s.ch = nil
	}
	ch := make(chan T, s.buffer)
	if s.closed {
		close(ch)
		return ch
	}
	s.ch = ch
	return ch
}

// Unsubscribe closes ch if it is still the active subscription.
func (s *Signal[T]) Unsubscribe(ch <-chan T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ch != nil && (<-chan T)(s.ch) == ch {
		close(s.ch)
		s.ch = nil
	}
}

// Emit delivers v to the subscriber. Returns false if v was dropped.
func (s *Signal[T]) Emit(v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ch == nil {
		s.dropped.Add(1)
		return false
	}
	select {
	case s.ch <- v:
		return true
	default:
		s.dropped.Add(1)
		return false
	}
}

// Dropped returns the number of values not delivered.
func (s *Signal[T]) Dropped() uint64 {
	return s.dropped.Load()
}

// Close closes the active subscription. Later Emits are dropped.
func (s *Signal[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.ch != nil {
		close(s.ch)
		s.ch = nil
	}
}
