package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/artisan/pkg/domain"
)

// Store implements ports.MacroStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Record
	mu   sync.RWMutex
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		data: make(map[string]*domain.Record),
	}
}

// clone copies the slices a caller could mutate through the pointer.
func clone(rec *domain.Record) *domain.Record {
	out := *rec
	out.Result.Macro = rec.Result.Macro.Clone()
	out.Result.Actions = slices.Clone(rec.Result.Actions)
	out.Result.Rolls = slices.Clone(rec.Result.Rolls)
	return &out
}

// Save persists the record in memory.
func (s *Store) Save(ctx context.Context, key string, rec *domain.Record) error {
	copied := clone(rec)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = copied
	return nil
}

// Load retrieves a copy of the record.
func (s *Store) Load(ctx context.Context, key string) (*domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.data[key]
	if !ok {
		return nil, domain.ErrMacroNotFound
	}
	return clone(rec), nil
}

// Delete removes the record.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// List returns the stored keys.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}
