package common

import (
	"context"
	"encoding/json"
	"time"

	"github.com/proximalabs/proxima-go/internal/domain/world"
)

// CommandKind enumerates the external control commands the dashboard
// can deposit for a running experiment.
type CommandKind string

const (
	CommandPause       CommandKind = "pause"
	CommandResume      CommandKind = "resume"
	CommandStop        CommandKind = "stop"
	CommandSetGoal     CommandKind = "set_goal"
	CommandSetPolicy   CommandKind = "set_policy"
	CommandSetParam    CommandKind = "set_param"
	CommandInjectEvent CommandKind = "inject_event"
)

// ControlCommand is one dashboard command awaiting application at a
// step boundary.
type ControlCommand struct {
	ID        string
	Kind      CommandKind
	Payload   json.RawMessage
	Timestamp time.Time
}

// ExperimentDocument references a world template plus the overrides
// that define one experiment.
type ExperimentDocument struct {
	ID         string          `json:"id" validate:"required"`
	Name       string          `json:"name"`
	TemplateID string          `json:"template_id" validate:"required"`
	Overrides  json.RawMessage `json:"overrides,omitempty"`
	MaxSteps   int64           `json:"max_steps"`
}

// DocumentRepository loads configuration documents from the store.
type DocumentRepository interface {
	// WorldTemplate retrieves a world document by id.
	WorldTemplate(ctx context.Context, id string) (world.Config, error)

	// ComponentTemplates returns every agent-type defaults document,
	// keyed by id.
	ComponentTemplates(ctx context.Context) (map[string]json.RawMessage, error)

	// SaveComponentTemplate persists an agent-type defaults document.
	SaveComponentTemplate(ctx context.Context, id string, doc json.RawMessage) error

	// Experiment retrieves an experiment document by id.
	Experiment(ctx context.Context, id string) (*ExperimentDocument, error)

	// SaveWorldTemplate persists a world document.
	SaveWorldTemplate(ctx context.Context, id string, cfg world.Config) error

	// SaveExperiment persists an experiment document.
	SaveExperiment(ctx context.Context, doc *ExperimentDocument) error

	// ListExperiments returns all experiment documents.
	ListExperiments(ctx context.Context) ([]*ExperimentDocument, error)
}

// CommandRepository drains dashboard commands for an experiment.
type CommandRepository interface {
	// FetchPending returns unapplied commands ordered by timestamp.
	FetchPending(ctx context.Context, experimentID string) ([]ControlCommand, error)

	// MarkApplied flags commands as consumed.
	MarkApplied(ctx context.Context, experimentID string, ids []string) error

	// Submit deposits a command for an experiment.
	Submit(ctx context.Context, experimentID string, cmd ControlCommand) error
}

// LogSink receives one snapshot per simulated step. Implementations
// own their durability strategy; a returned error means the snapshot
// is lost.
type LogSink interface {
	Write(ctx context.Context, experimentID string, snap *world.Snapshot, runnerState string) error
}

// RunObserver is notified as a run progresses. Metrics adapters hang
// off this.
type RunObserver interface {
	StepCompleted(experimentID string, snap *world.Snapshot)
	RunFinished(experimentID string, state string, steps int64)
}
