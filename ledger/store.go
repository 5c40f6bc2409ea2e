package ledger

import (
	"context"
	"sync"
)

// Store owns the persisted ledger and enforces the at-most-one in-flight
// writer invariant: every mutation is a load-modify-save under an exclusive
// lock scoped to one operation. Callers must not perform network calls
// inside an Update or View closure.
type Store struct {
	mu      sync.Mutex
	storage Storage
}

func NewStore(storage Storage) *Store {
	return &Store{storage: storage}
}

// Update loads the full ledger, applies fn and persists the result. If fn
// returns an error nothing is saved.
func (s *Store) Update(ctx context.Context, fn func(l *Ledger) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.storage.Load(ctx)
	if err != nil {
		return err
	}
	if err := fn(l); err != nil {
		return err
	}
	return s.storage.Save(ctx, l)
}

// View loads the ledger and passes it to fn without saving. The closure must
// not retain pointers into the ledger beyond its own scope.
func (s *Store) View(ctx context.Context, fn func(l *Ledger) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.storage.Load(ctx)
	if err != nil {
		return err
	}
	return fn(l)
}
