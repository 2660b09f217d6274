package imports

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/adamsbarry18/innov-stocker/internal/logging"
	"github.com/google/uuid"
)

// Options configures the import service.
// Zero values fall back to conservative defaults.
type Options struct {
	Workers       int           // goroutines draining the batch queue
	QueueSize     int           // capacity of the in-process hand-off queue
	MaxConcurrent int           // parallel batch processing limit
	MaxWait       time.Duration // how long a worker waits for a slot
	MaxRows       int           // per-submission row limit
	BatchTimeout  time.Duration // processing deadline per batch
	SweepInterval time.Duration // recovery sweep period
	RecoveryAge   time.Duration // minimum age before a PENDING batch is re-enqueued
}

func (o *Options) withDefaults() Options {
	opts := *o
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = DefaultMaxConcurrent
	}
	if opts.MaxWait <= 0 {
		opts.MaxWait = DefaultMaxWait
	}
	if opts.MaxRows <= 0 {
		opts.MaxRows = 10000
	}
	if opts.BatchTimeout <= 0 {
		opts.BatchTimeout = 5 * time.Minute
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = 30 * time.Second
	}
	if opts.RecoveryAge <= 0 {
		opts.RecoveryAge = time.Minute
	}
	return opts
}

// Service is the entry point of the batch engine: it schedules new imports,
// dispatches claimed batches to their processors, and serves status reads.
// Construct it with NewService and the collaborators injected; there is no
// package-level instance.
type Service struct {
	store   BatchStore
	opts    Options
	queue   chan uuid.UUID
	limiter *ProcessLimiter
}

// NewService creates the import service on top of the given batch store.
func NewService(store BatchStore, opts Options) *Service {
	o := opts.withDefaults()
	return &Service{
		store:   store,
		opts:    o,
		queue:   make(chan uuid.UUID, o.QueueSize),
		limiter: NewProcessLimiter(o.MaxConcurrent, o.MaxWait),
	}
}

// ScheduleImport validates the submission, persists a PENDING batch and
// hands it to the background workers. It returns the PENDING snapshot
// immediately; every later outcome is observed through ImportStatus.
//
// The only synchronous failures are an unknown entity type, an empty or
// oversized payload, and rows that do not match the entity schema. No batch
// record exists after any of them.
func (s *Service) ScheduleImport(ctx context.Context, entityType EntityType, fileName string, rows []json.RawMessage, createdBy string) (*Batch, error) {
	def, ok := Get(entityType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntityType, entityType)
	}

	if len(rows) == 0 {
		return nil, ErrEmptyPayload
	}
	if len(rows) > s.opts.MaxRows {
		return nil, fmt.Errorf("%w: %d rows exceeds the limit of %d", ErrPayloadTooLarge, len(rows), s.opts.MaxRows)
	}

	// Shape check only: malformed rows fail the submission here, business
	// rules are still evaluated asynchronously.
	for i, raw := range rows {
		if _, err := def.Decode(raw); err != nil {
			return nil, invalidRow(i+1, err)
		}
	}

	batch := NewBatch(entityType, fileName, rows, createdBy)
	if err := s.store.Create(ctx, batch); err != nil {
		return nil, fmt.Errorf("create import batch: %w", err)
	}

	logger := logging.WithBatch(ctx, batch.ID.String(), string(entityType))
	logger.Info("import scheduled", "rows", len(rows), "file", fileName)

	s.enqueue(ctx, batch.ID)

	return batch.Clone(), nil
}

// enqueue hands a batch id to the workers without blocking the submission
// path. A full queue is not an error: the batch stays PENDING and the
// recovery sweep re-enqueues it.
func (s *Service) enqueue(ctx context.Context, id uuid.UUID) {
	select {
	case s.queue <- id:
	default:
		logging.FromContext(ctx).Warn("import queue full, batch deferred to recovery sweep",
			"batch_id", id.String())
	}
}

// ProcessBatch claims a PENDING batch and runs its processor. It is
// invoked off the synchronous request path, by the worker pool.
//
// The claim is a single conditional update, so a duplicate invocation for
// the same id finds nothing to claim and returns. The final state is
// persisted in all outcomes, including panics, and the status transition to
// PROCESSING is durable before any row work starts.
func (s *Service) ProcessBatch(ctx context.Context, id uuid.UUID) {
	batch, claimed, err := s.store.Claim(ctx, id)
	if err != nil {
		logging.FromContext(ctx).Error("claim import batch", "batch_id", id.String(), "error", err)
		return
	}
	if !claimed {
		logging.FromContext(ctx).Debug("batch not claimable, skipping", "batch_id", id.String())
		return
	}

	logger := logging.WithBatch(ctx, batch.ID.String(), string(batch.EntityType))
	logger.Info("batch processing started", "rows", batch.Summary.TotalRows)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			batch.Status = StatusFailed
			batch.CriticalError = fmt.Sprintf("internal error: %v", r)
			logger.Error("panic while processing batch", "panic", r)
		}

		// Persist the final state regardless of outcome. Shutdown must not
		// cancel this write, or the batch would be stuck in PROCESSING.
		if err := s.store.Save(context.WithoutCancel(ctx), batch); err != nil {
			logger.Error("persist final batch state", "error", err)
		}

		logger.Info("batch finished",
			"status", batch.Status,
			"imported", batch.Summary.Imported,
			"failed", batch.Summary.FailedRows,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}()

	def, ok := Get(batch.EntityType)
	if !ok {
		// Not a row-level failure: nothing sensible can run for this batch.
		batch.Status = StatusFailed
		batch.CriticalError = fmt.Sprintf("unknown entity type: %s", batch.EntityType)
		return
	}

	procCtx, cancel := context.WithTimeout(ctx, s.opts.BatchTimeout)
	defer cancel()

	if err := def.Processor.Process(procCtx, batch); err != nil {
		batch.Status = StatusFailed
		batch.CriticalError = err.Error()
		return
	}

	// Row failures do not fail the batch; the summary carries them.
	batch.Status = StatusCompleted
}

// ImportStatus returns the most recently persisted snapshot of a batch.
// Pure read: safe to call repeatedly and concurrently with processing.
func (s *Service) ImportStatus(ctx context.Context, id uuid.UUID) (*Batch, error) {
	return s.store.FindByID(ctx, id)
}

// LimiterStatus exposes the processing limiter state, used by shutdown to
// decide whether draining is needed.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until in-flight batches finish or ctx expires.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
