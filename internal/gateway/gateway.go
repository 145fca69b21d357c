// Package gateway admits document OCR runs through a bounded concurrency
// gate so a pile of simultaneous requests cannot thrash the OCR engines.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// DefaultConcurrency is the number of document runs admitted at once.
const DefaultConcurrency = 2

// Gateway serializes access to the OCR pipeline across documents. Each
// admitted run gets a unique ID for log correlation.
type Gateway struct {
	sem    *semaphore.Weighted
	limit  int64
	logger *slog.Logger
}

// New creates a Gateway admitting at most limit concurrent runs.
func New(limit int64, logger *slog.Logger) *Gateway {
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		sem:    semaphore.NewWeighted(limit),
		limit:  limit,
		logger: logger,
	}
}

// Limit returns the configured admission limit.
func (g *Gateway) Limit() int64 {
	return g.limit
}

// Run blocks until a slot is free, then executes fn. The slot is held
// for the duration of fn and released on return, including panics from
// lower layers that unwind through here.
func (g *Gateway) Run(ctx context.Context, label string, fn func(ctx context.Context) error) error {
	runID := uuid.New().String()

	if err := g.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("failed to acquire OCR slot: %w", err)
	}
	defer g.sem.Release(1)

	start := time.Now()
	g.logger.Info("run admitted", "run_id", runID, "document", label)

	err := fn(ctx)

	if err != nil {
		g.logger.Warn("run finished with error",
			"run_id", runID,
			"document", label,
			"elapsed", time.Since(start),
			"error", err)
	} else {
		g.logger.Info("run finished",
			"run_id", runID,
			"document", label,
			"elapsed", time.Since(start))
	}
	return err
}

// Go runs fn on its own goroutine through the gate and returns a channel
// that yields fn's error once it completes. Useful for callers that fan
// out several documents and collect results later.
func (g *Gateway) Go(ctx context.Context, label string, fn func(ctx context.Context) error) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- g.Run(ctx, label, fn)
	}()
	return done
}
