package store

import (
	"context"
	"sort"
	"sync"

	"github.com/senai134/medidor/internal/record"
)

// MemoryStore is a concurrency-safe in-memory implementation of Store.
// It backs tests and database-less local runs; production deployments point
// POSTGRES_URL at a real database instead.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	data   map[int64]record.Record
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID: 1,
		data:   make(map[int64]record.Record),
	}
}

// Insert assigns the next id and persists the record.
func (s *MemoryStore) Insert(_ context.Context, rec record.Record) (record.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.ID = s.nextID
	s.nextID++
	s.data[rec.ID] = rec
	return rec, nil
}

// Get returns the record with the given id.
func (s *MemoryStore) Get(_ context.Context, id int64) (record.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.data[id]
	if !ok {
		return record.Record{}, ErrNotFound
	}
	return rec, nil
}

// ListAll returns every record in insertion order (ascending id; ids are
// monotonic, so the orders coincide).
func (s *MemoryStore) ListAll(_ context.Context) ([]record.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]record.Record, 0, len(s.data))
	for _, rec := range s.data {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

// Delete removes and returns the record with the given id.
func (s *MemoryStore) Delete(_ context.Context, id int64) (record.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.data[id]
	if !ok {
		return record.Record{}, ErrNotFound
	}
	delete(s.data, id)
	return rec, nil
}
