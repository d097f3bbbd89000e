package policy

import (
	"github.com/proximalabs/proxima-go/internal/domain/evaluation"
	"github.com/proximalabs/proxima-go/internal/domain/kernel"
)

// WorldMutator is the narrowed handle policies act through. Policies
// never touch stocks or sector internals; observation goes through the
// evaluation result, actuation through this interface.
type WorldMutator interface {
	// SetThrottleFactor throttles a sector. Reports whether the sector
	// exists and accepts throttling.
	SetThrottleFactor(sectorID string, f float64) bool

	// SetTargetRate sets a sector's production target. Reports whether
	// the sector exists and accepts a target.
	SetTargetRate(sectorID string, r float64) bool

	// PublishEvent stages an event for delivery next step.
	PublishEvent(topic kernel.Topic, payload any)

	// Month returns the current simulation month.
	Month() int64

	// IsMonthTick reports whether this step opens a new month.
	IsMonthTick() bool
}

// Effect records one actuation a policy performed, for the log.
type Effect struct {
	PolicyID string  `json:"policy_id"`
	Action   string  `json:"action"`
	Target   string  `json:"target"`
	Value    float64 `json:"value"`
}

// Policy mutates the world in response to an evaluation result.
type Policy interface {
	ID() string
	Name() string
	Enabled() bool
	SetEnabled(bool)

	// Apply runs the policy for one step and returns its effects.
	Apply(w WorldMutator, res evaluation.Result) ([]Effect, error)
}

// Observer is implemented by policies that track bus events, such as
// pipeline arrivals.
type Observer interface {
	Observe(ev kernel.Event)
}
