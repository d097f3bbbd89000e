// Package logsink decorates snapshot sinks with durability behavior.
// The simulation loop never blocks on a flaky store: writes are retried
// with exponential backoff and then surrendered.
package logsink

import (
	"context"
	"fmt"
	"time"

	"github.com/proximalabs/proxima-go/internal/application/common"
	"github.com/proximalabs/proxima-go/internal/domain/world"
)

// RetryOptions tunes the backoff schedule.
type RetryOptions struct {
	// MaxAttempts bounds total tries, the first write included.
	MaxAttempts int

	// BackoffBase is the delay after the first failure; it doubles per
	// subsequent failure.
	BackoffBase time.Duration
}

// RetrySink wraps a LogSink with exponential backoff. A write that
// still fails after the last attempt is dropped and the error returned;
// the caller decides whether that stops the run (it does not, the
// runner only counts drops).
type RetrySink struct {
	next common.LogSink
	opts RetryOptions
}

// NewRetrySink wraps next with retries.
func NewRetrySink(next common.LogSink, opts RetryOptions) *RetrySink {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = 250 * time.Millisecond
	}
	return &RetrySink{next: next, opts: opts}
}

// Write attempts the underlying write with backoff between failures.
func (s *RetrySink) Write(ctx context.Context, experimentID string, snap *world.Snapshot, runnerState string) error {
	var lastErr error
	delay := s.opts.BackoffBase
	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		lastErr = s.next.Write(ctx, experimentID, snap, runnerState)
		if lastErr == nil {
			return nil
		}
		if attempt == s.opts.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("log sink gave up after %d attempts: %w", s.opts.MaxAttempts, lastErr)
}
