// Package journal stores accepted ledger operations in commit order so the
// ledger can be rebuilt on restart.
package journal

import (
	"context"
	"fmt"
	"sync"

	"dua/internal/ledger/models"
	"dua/pkg/platform/sentinel"
)

// InMemory is a process-local journal. It is the default backend and the
// reference behaviour for the durable ones.
type InMemory struct {
	mu      sync.RWMutex
	entries []models.JournalEntry
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

// Append adds entry if its Seq is exactly one past the last stored entry.
func (s *InMemory) Append(_ context.Context, entry models.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if want := uint64(len(s.entries)) + 1; entry.Seq != want {
		return fmt.Errorf("append seq %d, want %d: %w", entry.Seq, want, sentinel.ErrConflict)
	}
	s.entries = append(s.entries, cloneEntry(entry))
	return nil
}

// List returns all entries in Seq order.
func (s *InMemory) List(_ context.Context) ([]models.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.JournalEntry, len(s.entries))
	for i, e := range s.entries {
		out[i] = cloneEntry(e)
	}
	return out, nil
}

func (s *InMemory) Health(_ context.Context) error {
	return nil
}

func cloneEntry(e models.JournalEntry) models.JournalEntry {
	if e.Op.Amount != nil {
		e.Op.Amount = e.Op.Amount.Clone()
	}
	return e
}
