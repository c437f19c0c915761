package record

import (
	"context"
	"fmt"
	"sync"
)

// Compile-time check that MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-memory Store. It keeps insertion order.
type MemoryStore struct {
	mu         sync.RWMutex
	collection string
	byID       map[int64]Record
	order      []int64
}

// NewMemoryStore creates an empty in-memory collection.
func NewMemoryStore(collection string) (*MemoryStore, error) {
	if !ValidCollection(collection) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCollection, collection)
	}
	return &MemoryStore{
		collection: collection,
		byID:       make(map[int64]Record),
	}, nil
}

// Insert implements Store.
func (s *MemoryStore) Insert(_ context.Context, rec Record) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[rec.ID]; ok {
		return 0, fmt.Errorf("%w: %d", ErrDuplicateID, rec.ID)
	}
	s.byID[rec.ID] = rec
	s.order = append(s.order, rec.ID)
	return 1, nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id int64) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// Scan implements Store.
func (s *MemoryStore) Scan(_ context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out, nil
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.byID)), nil
}

// Collection implements Store.
func (s *MemoryStore) Collection() string { return s.collection }

// Backend implements Store.
func (s *MemoryStore) Backend() string { return "memory" }

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }
