package persistence_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proximalabs/proxima-go/internal/adapters/persistence"
	"github.com/proximalabs/proxima-go/internal/application/common"
	"github.com/proximalabs/proxima-go/test/helpers"
)

func TestCommandRepository_FetchPendingOrdersByTimestamp(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormCommandRepository(db)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Submit(ctx, "exp-1", common.ControlCommand{
		ID: "cmd-late", Kind: common.CommandResume, Timestamp: base.Add(time.Minute),
	}))
	require.NoError(t, repo.Submit(ctx, "exp-1", common.ControlCommand{
		ID: "cmd-early", Kind: common.CommandPause, Timestamp: base,
	}))

	// Act
	cmds, err := repo.FetchPending(ctx, "exp-1")

	// Assert
	require.NoError(t, err)
	require.Len(t, cmds, 2)
	assert.Equal(t, "cmd-early", cmds[0].ID)
	assert.Equal(t, common.CommandPause, cmds[0].Kind)
	assert.Equal(t, "cmd-late", cmds[1].ID)
}

func TestCommandRepository_MarkAppliedRemovesFromPending(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormCommandRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.Submit(ctx, "exp-1", common.ControlCommand{ID: "cmd-1", Kind: common.CommandPause}))
	require.NoError(t, repo.Submit(ctx, "exp-1", common.ControlCommand{ID: "cmd-2", Kind: common.CommandStop}))

	// Act
	err := repo.MarkApplied(ctx, "exp-1", []string{"cmd-1"})

	// Assert
	require.NoError(t, err)
	cmds, err := repo.FetchPending(ctx, "exp-1")
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, "cmd-2", cmds[0].ID)
}

func TestCommandRepository_PendingIsScopedByExperiment(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormCommandRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.Submit(ctx, "exp-1", common.ControlCommand{ID: "cmd-1", Kind: common.CommandPause}))
	require.NoError(t, repo.Submit(ctx, "exp-2", common.ControlCommand{ID: "cmd-2", Kind: common.CommandStop}))

	// Act
	cmds, err := repo.FetchPending(ctx, "exp-1")

	// Assert
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, "cmd-1", cmds[0].ID)
}

func TestCommandRepository_SubmitDefaultsTimestampAndKeepsPayload(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormCommandRepository(db)
	ctx := context.Background()

	// Act
	err := repo.Submit(ctx, "exp-1", common.ControlCommand{
		ID:      "cmd-1",
		Kind:    common.CommandSetParam,
		Payload: json.RawMessage(`{"path": "seed", "value": 7}`),
	})

	// Assert
	require.NoError(t, err)
	cmds, err := repo.FetchPending(ctx, "exp-1")
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.False(t, cmds[0].Timestamp.IsZero())
	assert.JSONEq(t, `{"path": "seed", "value": 7}`, string(cmds[0].Payload))
}
