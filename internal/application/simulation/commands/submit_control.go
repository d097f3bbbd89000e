package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/proximalabs/proxima-go/internal/application/common"
)

// SubmitControlCommand - Command to deposit a control command for a
// running experiment
type SubmitControlCommand struct {
	ExperimentID string
	Kind         common.CommandKind
	Payload      json.RawMessage
}

// SubmitControlResponse - Response carrying the stored command id
type SubmitControlResponse struct {
	CommandID string
}

// SubmitControlHandler - Handles control command submission
type SubmitControlHandler struct {
	commands common.CommandRepository
}

// NewSubmitControlHandler creates a new submit control handler
func NewSubmitControlHandler(commandRepo common.CommandRepository) *SubmitControlHandler {
	return &SubmitControlHandler{commands: commandRepo}
}

// Handle executes the submit control command
func (h *SubmitControlHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*SubmitControlCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}
	if cmd.ExperimentID == "" {
		return nil, fmt.Errorf("experiment id is required")
	}

	stored := common.ControlCommand{
		ID:        uuid.NewString(),
		Kind:      cmd.Kind,
		Payload:   cmd.Payload,
		Timestamp: time.Now().UTC(),
	}
	if err := h.commands.Submit(ctx, cmd.ExperimentID, stored); err != nil {
		return nil, err
	}
	return &SubmitControlResponse{CommandID: stored.ID}, nil
}
