package simulation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/proximalabs/proxima-go/internal/application/common"
	"github.com/proximalabs/proxima-go/internal/domain/evaluation"
	"github.com/proximalabs/proxima-go/internal/domain/kernel"
	"github.com/proximalabs/proxima-go/internal/domain/sector"
	"github.com/proximalabs/proxima-go/internal/domain/world"
)

// RunnerState is the runner's lifecycle state, recorded in every
// snapshot document.
type RunnerState string

const (
	StateRunning   RunnerState = "running"
	StatePaused    RunnerState = "paused"
	StateStopped   RunnerState = "stopped"
	StateCompleted RunnerState = "completed"
)

// RunnerOptions tunes a run.
type RunnerOptions struct {
	// UpdateRate paces the loop; zero runs unpaced.
	UpdateRate time.Duration

	// MaxSteps caps the run; zero means no cap.
	MaxSteps int64

	// SnapshotEvery thins the log to every Nth snapshot. The final
	// snapshot is always written.
	SnapshotEvery int64

	// ReadOnly runs the loop without writing snapshots or consuming
	// commands. Used for dry runs against production configuration.
	ReadOnly bool
}

// Runner drives a world through its step loop. Commands are drained at
// step boundaries only; nothing interrupts a step in flight.
type Runner struct {
	experimentID string
	world        *world.World
	sink         common.LogSink
	commands     common.CommandRepository
	observer     common.RunObserver
	opts         RunnerOptions

	state       RunnerState
	stepsRun    int64
	droppedLogs int64
}

// NewRunner wires a runner. sink, commands, and observer may be nil.
func NewRunner(experimentID string, w *world.World, sink common.LogSink, commands common.CommandRepository, observer common.RunObserver, opts RunnerOptions) *Runner {
	if opts.SnapshotEvery <= 0 {
		opts.SnapshotEvery = 1
	}
	return &Runner{
		experimentID: experimentID,
		world:        w,
		sink:         sink,
		commands:     commands,
		observer:     observer,
		opts:         opts,
		state:        StateRunning,
	}
}

// State returns the runner's lifecycle state.
func (r *Runner) State() RunnerState { return r.state }

// StepsRun returns the number of completed steps.
func (r *Runner) StepsRun() int64 { return r.stepsRun }

// DroppedSnapshots returns the count of snapshots lost to sink failures.
func (r *Runner) DroppedSnapshots() int64 { return r.droppedLogs }

// Run executes the loop until the step cap, a stop command, or context
// cancellation. The final snapshot is flushed before returning.
func (r *Runner) Run(ctx context.Context) error {
	log := common.LoggerFromContext(ctx)
	log.Log("info", "experiment starting", map[string]interface{}{
		"experiment_id": r.experimentID,
		"max_steps":     r.opts.MaxSteps,
		"read_only":     r.opts.ReadOnly,
	})

	var limiter *rate.Limiter
	if r.opts.UpdateRate > 0 {
		limiter = rate.NewLimiter(rate.Every(r.opts.UpdateRate), 1)
	}

	var lastSnap *world.Snapshot
	for {
		if err := ctx.Err(); err != nil {
			r.finish(ctx, lastSnap, StateStopped)
			return err
		}
		if r.opts.MaxSteps > 0 && r.stepsRun >= r.opts.MaxSteps {
			r.finish(ctx, lastSnap, StateCompleted)
			return nil
		}

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				r.finish(ctx, lastSnap, StateStopped)
				return err
			}
		}

		if err := r.drainCommands(ctx); err != nil {
			log.Log("warn", "command drain failed", map[string]interface{}{"error": err.Error()})
		}
		if r.state == StateStopped {
			r.finish(ctx, lastSnap, StateStopped)
			return nil
		}
		if r.state == StatePaused {
			if limiter == nil {
				select {
				case <-ctx.Done():
				case <-time.After(10 * time.Millisecond):
				}
			}
			continue
		}

		snap, stepErr := r.world.Step()
		r.stepsRun++
		lastSnap = snap

		if r.stepsRun%r.opts.SnapshotEvery == 0 {
			r.persist(ctx, snap)
		}
		if r.observer != nil {
			r.observer.StepCompleted(r.experimentID, snap)
		}
		if stepErr != nil {
			log.Log("error", "run aborted", map[string]interface{}{
				"experiment_id": r.experimentID,
				"t":             snap.Step,
				"error":         stepErr.Error(),
			})
			r.finish(ctx, lastSnap, StateStopped)
			return fmt.Errorf("step %d: %w", snap.Step, stepErr)
		}
	}
}

// Pause suspends stepping at the next boundary.
func (r *Runner) Pause() {
	if r.state == StateRunning {
		r.state = StatePaused
	}
}

// Resume restarts a paused runner.
func (r *Runner) Resume() {
	if r.state == StatePaused {
		r.state = StateRunning
	}
}

// Stop ends the run at the next boundary.
func (r *Runner) Stop() { r.state = StateStopped }

func (r *Runner) finish(ctx context.Context, lastSnap *world.Snapshot, state RunnerState) {
	r.state = state
	if lastSnap != nil && r.stepsRun%r.opts.SnapshotEvery != 0 {
		r.persist(ctx, lastSnap)
	}
	if r.observer != nil {
		r.observer.RunFinished(r.experimentID, string(state), r.stepsRun)
	}
}

func (r *Runner) persist(ctx context.Context, snap *world.Snapshot) {
	if r.sink == nil || r.opts.ReadOnly {
		return
	}
	if err := r.sink.Write(ctx, r.experimentID, snap, string(r.state)); err != nil {
		r.droppedLogs++
		common.LoggerFromContext(ctx).Log("error", "snapshot dropped", map[string]interface{}{
			"experiment_id": r.experimentID,
			"t":             snap.Step,
			"error":         err.Error(),
		})
	}
}

// drainCommands applies pending dashboard commands in timestamp order.
func (r *Runner) drainCommands(ctx context.Context) error {
	if r.commands == nil || r.opts.ReadOnly {
		return nil
	}
	pending, err := r.commands.FetchPending(ctx, r.experimentID)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	log := common.LoggerFromContext(ctx)
	ids := make([]string, 0, len(pending))
	for _, cmd := range pending {
		if err := r.apply(cmd); err != nil {
			log.Log("warn", "command rejected", map[string]interface{}{
				"cmd_id": cmd.ID,
				"kind":   string(cmd.Kind),
				"error":  err.Error(),
			})
		}
		ids = append(ids, cmd.ID)
	}
	return r.commands.MarkApplied(ctx, r.experimentID, ids)
}

func (r *Runner) apply(cmd common.ControlCommand) error {
	switch cmd.Kind {
	case common.CommandPause:
		r.Pause()
	case common.CommandResume:
		r.Resume()
	case common.CommandStop:
		r.Stop()
	case common.CommandSetGoal:
		var g evaluation.Goal
		if err := json.Unmarshal(cmd.Payload, &g); err != nil {
			return fmt.Errorf("set_goal payload: %w", err)
		}
		r.world.Evaluation().SetGoal(g)
	case common.CommandSetPolicy:
		var p struct {
			PolicyID string `json:"policy_id"`
			Enabled  bool   `json:"enabled"`
		}
		if err := json.Unmarshal(cmd.Payload, &p); err != nil {
			return fmt.Errorf("set_policy payload: %w", err)
		}
		if !r.world.Policies().SetEnabled(p.PolicyID, p.Enabled) {
			return fmt.Errorf("unknown policy %q", p.PolicyID)
		}
	case common.CommandSetParam:
		return r.applySetParam(cmd.Payload)
	case common.CommandInjectEvent:
		return r.applyInjectEvent(cmd.Payload)
	default:
		return fmt.Errorf("unknown command kind %q", cmd.Kind)
	}
	return nil
}

func (r *Runner) applySetParam(payload json.RawMessage) error {
	var p struct {
		Sector string  `json:"sector"`
		Param  string  `json:"param"`
		Value  float64 `json:"value"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("set_param payload: %w", err)
	}
	s := r.world.Sector(p.Sector)
	if s == nil {
		return fmt.Errorf("unknown sector %q", p.Sector)
	}
	switch p.Param {
	case "throttle_factor":
		t, ok := s.(sector.Throttleable)
		if !ok {
			return fmt.Errorf("sector %q does not throttle", p.Sector)
		}
		t.SetThrottleFactor(p.Value)
	case "target_rate":
		t, ok := s.(sector.TargetRated)
		if !ok {
			return fmt.Errorf("sector %q has no target rate", p.Sector)
		}
		t.SetTargetRate(p.Value)
	default:
		return fmt.Errorf("unknown parameter %q", p.Param)
	}
	return nil
}

// applyInjectEvent stages an arbitrary bus event. The payload document
// carries the topic and the topic-shaped body; delivery follows the
// usual one-step latency.
func (r *Runner) applyInjectEvent(payload json.RawMessage) error {
	var p struct {
		Topic string          `json:"topic"`
		Body  json.RawMessage `json:"body"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("inject_event payload: %w", err)
	}
	body, err := decodeEventBody(kernel.Topic(p.Topic), p.Body)
	if err != nil {
		return err
	}
	r.world.Context().Bus.Publish(kernel.Topic(p.Topic), body)
	return nil
}

func decodeEventBody(topic kernel.Topic, raw json.RawMessage) (any, error) {
	unmarshal := func(v any) (any, error) {
		if err := json.Unmarshal(raw, v); err != nil {
			return nil, fmt.Errorf("inject_event body for %q: %w", topic, err)
		}
		return deref(v), nil
	}
	switch topic {
	case kernel.TopicConstructionRequest:
		return unmarshal(&kernel.ConstructionRequested{})
	case kernel.TopicEquipmentRequest:
		return unmarshal(&kernel.EquipmentRequested{})
	case kernel.TopicEquipmentAllocated:
		return unmarshal(&kernel.EquipmentAllocated{})
	case kernel.TopicTransportRequest:
		return unmarshal(&kernel.TransportRequested{})
	case kernel.TopicResourceRequest:
		return unmarshal(&kernel.ResourceRequested{})
	case kernel.TopicResourceAllocated:
		return unmarshal(&kernel.ResourceAllocated{})
	case kernel.TopicPayloadDelivered:
		return unmarshal(&kernel.PayloadDelivered{})
	case kernel.TopicModuleCompleted:
		return unmarshal(&kernel.ModuleCompleted{})
	}
	return nil, fmt.Errorf("unknown event topic %q", topic)
}

func deref(v any) any {
	switch t := v.(type) {
	case *kernel.ConstructionRequested:
		return *t
	case *kernel.EquipmentRequested:
		return *t
	case *kernel.EquipmentAllocated:
		return *t
	case *kernel.TransportRequested:
		return *t
	case *kernel.ResourceRequested:
		return *t
	case *kernel.ResourceAllocated:
		return *t
	case *kernel.PayloadDelivered:
		return *t
	case *kernel.ModuleCompleted:
		return *t
	}
	return v
}
