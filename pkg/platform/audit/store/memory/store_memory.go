// Package memory keeps audit events in process. It backs the audit log when
// no database is configured and in tests.
package memory

import (
	"context"
	"slices"
	"sync"

	audit "dua/pkg/platform/audit"
)

const defaultCapacity = 10_000

// InMemoryStore retains the most recent events up to its capacity, oldest
// dropped first.
type InMemoryStore struct {
	mu       sync.RWMutex
	events   []audit.Event
	capacity int
}

type Option func(*InMemoryStore)

// WithCapacity bounds the number of retained events. Non-positive values
// keep the default of 10000.
func WithCapacity(n int) Option {
	return func(s *InMemoryStore) {
		if n > 0 {
			s.capacity = n
		}
	}
}

func NewInMemoryStore(opts ...Option) *InMemoryStore {
	s := &InMemoryStore{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) == s.capacity {
		s.events = slices.Delete(s.events, 0, 1)
	}
	s.events = append(s.events, event)
	return nil
}

// ListByActor returns the retained events of one actor in emission order.
func (s *InMemoryStore) ListByActor(_ context.Context, actor string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events {
		if e.Actor == actor {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
