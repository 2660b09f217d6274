// Package logging configures structured logging with log/slog.
//
// It integrates with chi's RequestID middleware so that log entries emitted
// while serving a request carry the request id, and entries emitted while
// processing an import batch can carry the batch id via WithBatch.
package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// Setup configures the global slog logger.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
func Setup(level, format string) {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// FromContext returns a logger enriched with the chi request id, when the
// context carries one. All entries logged through it can then be correlated
// back to the originating request.
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}

	return logger
}

// WithBatch returns a logger that tags every entry with the batch being
// processed, so a batch's whole processing history can be filtered out of
// the logs.
func WithBatch(ctx context.Context, batchID, entityType string) *slog.Logger {
	return FromContext(ctx).With("batch_id", batchID, "entity_type", entityType)
}
