package logsink_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proximalabs/proxima-go/internal/adapters/logsink"
	"github.com/proximalabs/proxima-go/internal/domain/world"
)

// flakySink fails its first failures writes, then succeeds.
type flakySink struct {
	failures int
	calls    int
}

func (s *flakySink) Write(context.Context, string, *world.Snapshot, string) error {
	s.calls++
	if s.calls <= s.failures {
		return errors.New("store hiccup")
	}
	return nil
}

func TestRetrySink_RetriesUntilSuccess(t *testing.T) {
	next := &flakySink{failures: 2}
	sink := logsink.NewRetrySink(next, logsink.RetryOptions{
		MaxAttempts: 3,
		BackoffBase: time.Millisecond,
	})

	err := sink.Write(context.Background(), "exp-1", &world.Snapshot{Step: 1}, "running")

	require.NoError(t, err)
	assert.Equal(t, 3, next.calls)
}

func TestRetrySink_GivesUpAfterMaxAttempts(t *testing.T) {
	next := &flakySink{failures: 10}
	sink := logsink.NewRetrySink(next, logsink.RetryOptions{
		MaxAttempts: 3,
		BackoffBase: time.Millisecond,
	})

	err := sink.Write(context.Background(), "exp-1", &world.Snapshot{Step: 1}, "running")

	require.Error(t, err)
	assert.Equal(t, 3, next.calls)
	assert.Contains(t, err.Error(), "gave up after 3 attempts")
}

func TestRetrySink_StopsOnContextCancellation(t *testing.T) {
	next := &flakySink{failures: 10}
	sink := logsink.NewRetrySink(next, logsink.RetryOptions{
		MaxAttempts: 5,
		BackoffBase: time.Minute,
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sink.Write(ctx, "exp-1", &world.Snapshot{Step: 1}, "running")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, next.calls)
}
