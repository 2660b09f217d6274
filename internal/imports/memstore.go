package imports

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory BatchStore. It mirrors the Postgres store's
// snapshot semantics: reads and writes exchange deep copies, and the
// PENDING claim is atomic under the store lock. Intended for tests and
// local development.
type MemoryStore struct {
	mu      sync.Mutex
	batches map[uuid.UUID]*Batch
}

// NewMemoryStore creates an empty in-memory batch store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{batches: make(map[uuid.UUID]*Batch)}
}

func (s *MemoryStore) Create(ctx context.Context, batch *Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches[batch.ID] = batch.Clone()
	return nil
}

func (s *MemoryStore) Save(ctx context.Context, batch *Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := batch.Clone()
	stored.UpdatedAt = time.Now().UTC()
	s.batches[batch.ID] = stored
	return nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id uuid.UUID) (*Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch, ok := s.batches[id]
	if !ok {
		return nil, ErrBatchNotFound
	}
	return batch.Clone(), nil
}

func (s *MemoryStore) Claim(ctx context.Context, id uuid.UUID) (*Batch, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch, ok := s.batches[id]
	if !ok || batch.Status != StatusPending {
		return nil, false, nil
	}
	batch.Status = StatusProcessing
	batch.UpdatedAt = time.Now().UTC()
	return batch.Clone(), true, nil
}

func (s *MemoryStore) FindPendingOlderThan(ctx context.Context, age time.Duration, limit int) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().UTC().Add(-age)
	var ids []uuid.UUID
	for id, batch := range s.batches {
		if batch.Status == StatusPending && batch.CreatedAt.Before(cutoff) {
			ids = append(ids, id)
			if len(ids) == limit {
				break
			}
		}
	}
	return ids, nil
}
