package logsink

import (
	"context"
	"errors"

	"github.com/proximalabs/proxima-go/internal/application/common"
	"github.com/proximalabs/proxima-go/internal/domain/world"
)

// MultiSink fans each snapshot out to every sink. All sinks see the
// write even when an earlier one fails; failures are joined.
type MultiSink struct {
	sinks []common.LogSink
}

// NewMultiSink combines sinks into one.
func NewMultiSink(sinks ...common.LogSink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Write forwards the snapshot to every sink.
func (s *MultiSink) Write(ctx context.Context, experimentID string, snap *world.Snapshot, runnerState string) error {
	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Write(ctx, experimentID, snap, runnerState); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ common.LogSink = (*MultiSink)(nil)
