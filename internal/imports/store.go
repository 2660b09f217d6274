package imports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BatchStore is the minimal persistence contract the batch engine depends
// on. Any storage technology satisfying it is acceptable; the service ships
// a Postgres implementation and an in-memory one for tests.
type BatchStore interface {
	// Create persists a new batch record.
	Create(ctx context.Context, batch *Batch) error

	// Save persists the batch's current state (status, summary, errors).
	// The payload is immutable and is never rewritten.
	Save(ctx context.Context, batch *Batch) error

	// FindByID returns the most recently persisted snapshot of a batch,
	// or ErrBatchNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (*Batch, error)

	// Claim atomically transitions a batch from PENDING to PROCESSING and
	// returns it. claimed is false when the batch does not exist or is no
	// longer PENDING, which makes duplicate dispatch invocations for the
	// same id a no-op rather than a double-process.
	Claim(ctx context.Context, id uuid.UUID) (batch *Batch, claimed bool, err error)

	// FindPendingOlderThan lists ids of PENDING batches whose hand-off was
	// lost (process restart, full queue), oldest first, for the recovery
	// sweep to re-enqueue.
	FindPendingOlderThan(ctx context.Context, age time.Duration, limit int) ([]uuid.UUID, error)
}
