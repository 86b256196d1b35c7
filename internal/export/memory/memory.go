// Package memory is an in-process export backend used in development and
// tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"moneta/internal/core"
	"moneta/internal/export"
)

type Store struct {
	mu    sync.Mutex
	items map[int64]core.Transaction
	order []int64
}

// Ensure interface conformance
var (
	_ export.TransactionWriter  = (*Store)(nil)
	_ export.TransactionRemover = (*Store)(nil)
)

func New() *Store {
	return &Store{items: make(map[int64]core.Transaction)}
}

// Append stores the transaction and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, t core.Transaction) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[t.ID]; !exists {
		s.order = append(s.order, t.ID)
	}
	s.items[t.ID] = t
	return fmt.Sprintf("mem:%d", t.ID), nil
}

// Remove drops the mirrored transaction. Unknown IDs are ignored, matching
// the Sheets backend's behavior for rows that were never mirrored.
func (s *Store) Remove(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; !exists {
		return nil
	}
	delete(s.items, id)
	for i, stored := range s.order {
		if stored == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// List returns the mirrored transactions in insertion order.
func (s *Store) List() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Transaction, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out
}
