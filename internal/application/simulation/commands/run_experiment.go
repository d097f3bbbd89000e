package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/proximalabs/proxima-go/internal/application/common"
	"github.com/proximalabs/proxima-go/internal/application/simulation"
	"github.com/proximalabs/proxima-go/internal/domain/world"
)

// RunExperimentCommand - Command to execute one experiment end to end
type RunExperimentCommand struct {
	ExperimentID  string
	UpdateRate    time.Duration
	MaxSteps      int64
	SnapshotEvery int64
	ReadOnly      bool
}

// RunExperimentResponse - Response from a completed run
type RunExperimentResponse struct {
	ExperimentID string
	StepsRun     int64
	FinalState   string
	DroppedLogs  int64
}

// RunExperimentHandler - Loads the experiment document, builds the
// world, and drives the runner to completion
type RunExperimentHandler struct {
	documents common.DocumentRepository
	sink      common.LogSink
	commands  common.CommandRepository
	observer  common.RunObserver
}

// NewRunExperimentHandler creates a new run experiment handler
func NewRunExperimentHandler(
	documents common.DocumentRepository,
	sink common.LogSink,
	commandRepo common.CommandRepository,
	observer common.RunObserver,
) *RunExperimentHandler {
	return &RunExperimentHandler{
		documents: documents,
		sink:      sink,
		commands:  commandRepo,
		observer:  observer,
	}
}

// Handle executes the run experiment command
func (h *RunExperimentHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	cmd, ok := request.(*RunExperimentCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type")
	}

	experiment, err := h.documents.Experiment(ctx, cmd.ExperimentID)
	if err != nil {
		return nil, fmt.Errorf("load experiment %q: %w", cmd.ExperimentID, err)
	}
	template, err := h.documents.WorldTemplate(ctx, experiment.TemplateID)
	if err != nil {
		return nil, fmt.Errorf("load world template %q: %w", experiment.TemplateID, err)
	}

	cfg, err := world.Overlay(template, experiment.Overrides)
	if err != nil {
		return nil, err
	}
	components, err := h.documents.ComponentTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load component templates: %w", err)
	}
	cfg, err = world.ResolveComponents(cfg, components)
	if err != nil {
		return nil, err
	}
	w, err := world.Build(cfg)
	if err != nil {
		return nil, err
	}

	maxSteps := cmd.MaxSteps
	if maxSteps <= 0 {
		maxSteps = experiment.MaxSteps
	}

	runner := simulation.NewRunner(cmd.ExperimentID, w, h.sink, h.commands, h.observer, simulation.RunnerOptions{
		UpdateRate:    cmd.UpdateRate,
		MaxSteps:      maxSteps,
		SnapshotEvery: cmd.SnapshotEvery,
		ReadOnly:      cmd.ReadOnly,
	})
	if err := runner.Run(ctx); err != nil && ctx.Err() == nil {
		return nil, err
	}

	return &RunExperimentResponse{
		ExperimentID: cmd.ExperimentID,
		StepsRun:     runner.StepsRun(),
		FinalState:   string(runner.State()),
		DroppedLogs:  runner.DroppedSnapshots(),
	}, nil
}
