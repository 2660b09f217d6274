package imports

// worker.go runs the asynchronous half of the engine: a pool of workers
// draining the batch queue, and a periodic sweep that re-enqueues PENDING
// batches whose hand-off was lost (process crash between schedule and
// process, or a full queue). Together they give the fire-and-forget
// submission path at-least-once processing; the atomic claim makes the
// extra deliveries harmless.

import (
	"context"
	"log/slog"
	"time"
)

// StartWorkers launches the worker pool and the recovery sweep. Workers
// stop when the context is cancelled; batches already being processed run
// to completion (see Service.WaitForImports).
func (s *Service) StartWorkers(ctx context.Context) {
	slog.Info("import workers started",
		"workers", s.opts.Workers,
		"queue_size", s.opts.QueueSize,
		"max_concurrent", s.opts.MaxConcurrent,
	)

	for i := 0; i < s.opts.Workers; i++ {
		go s.workerLoop(ctx)
	}
	go s.sweepLoop(ctx)
}

func (s *Service) workerLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-s.queue:
			if err := s.limiter.Acquire(ctx); err != nil {
				// The batch stays PENDING; the sweep re-enqueues it once
				// a slot frees up.
				slog.Warn("no processing slot available, batch deferred",
					"batch_id", id.String(), "error", err)
				continue
			}
			s.ProcessBatch(ctx, id)
			s.limiter.Release()
		}
	}
}

// sweepLoop periodically re-enqueues stranded PENDING batches. Runs once at
// startup so batches left over from a previous process are picked up
// immediately.
func (s *Service) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(s.opts.SweepInterval)
	defer ticker.Stop()

	s.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("import sweep stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Service) sweep(ctx context.Context) {
	ids, err := s.store.FindPendingOlderThan(ctx, s.opts.RecoveryAge, s.opts.QueueSize)
	if err != nil {
		slog.Error("recovery sweep failed", "error", err)
		return
	}
	if len(ids) == 0 {
		return
	}

	slog.Info("recovery sweep re-enqueueing pending batches", "count", len(ids))
	for _, id := range ids {
		s.enqueue(ctx, id)
	}
}
