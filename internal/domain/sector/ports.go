package sector

import (
	"sort"

	"github.com/proximalabs/proxima-go/internal/domain/kernel"
)

// Sector ids. The world addresses sectors only by id; sectors talk to
// each other exclusively through the event bus.
const (
	Energy         = "energy"
	Manufacturing  = "manufacturing"
	Construction   = "construction"
	Equipment      = "equipment_manufacturing"
	Transportation = "transportation"
	Science        = "science"
)

// Built-in metric ids contributed by the kernel itself. Domain metrics
// (dust, science rate) are configured per component.
const (
	MetricPowerShortage  = "PWR-SHORTAGE-KW"
	MetricBacklogExpired = "backlog_expired_count"
	MetricActiveRovers   = "SCI-ACTIVE-ROVERS"
)

// MetricContribution binds a component to the performance metric it
// feeds, with the delta contributed per unit of activity.
type MetricContribution struct {
	MetricID string  `mapstructure:"metric_id" json:"metric_id"`
	Value    float64 `mapstructure:"value" json:"value"`
}

// StepInput carries what a sector needs for one step: the step number,
// the step-seeded PRNG, and the power the energy sector allocated to it.
type StepInput struct {
	Step     int64
	Rand     *kernel.Rand
	PowerKWh float64
}

// Sector is a scheduler and resource owner grouping related agents.
// The world steps sectors in a fixed order; they never preempt each
// other.
type Sector interface {
	ID() string

	// PowerDemand returns the kWh the sector wants this step. Called
	// before allocation.
	PowerDemand() float64

	// Step runs the sector's scheduling for one step. Stock mutations
	// go through the ledger; cross-sector communication through the bus.
	Step(in StepInput)

	// Stocks exposes the sector's local inventory for ledger commits
	// and snapshots.
	Stocks() *kernel.StockSet

	// Metrics returns the sector's per-step operational metrics.
	Metrics() map[string]float64

	// Contributions returns this step's performance-metric deltas.
	Contributions() map[string]float64
}

// Throttleable sectors accept a policy-driven throttle factor: the
// fraction of agent activations probabilistically skipped per step.
type Throttleable interface {
	SetThrottleFactor(f float64)
	ThrottleFactor() float64
}

// TargetRated sectors accept a policy-driven production target rate.
type TargetRated interface {
	SetTargetRate(r float64)
}

// BufferTarget drives deficiency-based prioritization: a task's output
// resource below Min is deficient by (Min - level).
type BufferTarget struct {
	Min float64 `mapstructure:"min" json:"min"`
	Max float64 `mapstructure:"max" json:"max"`
}

// sortedKeys fixes map iteration order for reproducible runs.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func clampThrottle(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
