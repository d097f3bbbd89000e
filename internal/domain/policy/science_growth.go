package policy

import (
	"fmt"
	"math"

	"github.com/proximalabs/proxima-go/internal/domain/evaluation"
	"github.com/proximalabs/proxima-go/internal/domain/kernel"
	"github.com/proximalabs/proxima-go/internal/domain/sector"
)

// ScienceGrowthID identifies the science doubling policy.
const ScienceGrowthID = "PLCY-SCI-GROWTH"

// ScienceGrowthConfig parameterizes the science doubling policy. Time
// parameters are in months.
type ScienceGrowthConfig struct {
	// BaseRate is the science rate the doubling curve starts from.
	BaseRate float64 `mapstructure:"base_rate" json:"base_rate" validate:"gt=0"`

	// DoublingPeriod is the number of months over which the target
	// rate doubles.
	DoublingPeriod float64 `mapstructure:"doubling_period" json:"doubling_period"`

	// LeadMonths is how far ahead the fleet is sized, covering build
	// and transport latency.
	LeadMonths int64 `mapstructure:"lead_months" json:"lead_months"`

	// SafetyMargin over-provisions the required fleet.
	SafetyMargin float64 `mapstructure:"safety_margin" json:"safety_margin"`

	// RoverProductivity is the effective science per rover per step.
	RoverProductivity float64 `mapstructure:"rover_productivity" json:"rover_productivity" validate:"gt=0"`

	// ExpectedLosses is the fleet attrition assumed over the lead time.
	ExpectedLosses int `mapstructure:"expected_losses" json:"expected_losses"`

	// ModuleID is the module type ordered from construction; its
	// completed modules carry rover equipment.
	ModuleID string `mapstructure:"module_id" json:"module_id"`

	// ShellsPerModule sizes each construction request.
	ShellsPerModule int `mapstructure:"shells_per_module" json:"shells_per_module"`

	// ActiveRoversMetric names the metric reporting the working fleet.
	ActiveRoversMetric string `mapstructure:"active_rovers_metric" json:"active_rovers_metric"`
}

// pipelineOrder is an outstanding fleet expansion: qty rovers expected
// by arrivalMonth.
type pipelineOrder struct {
	arrivalMonth int64
	qty          int
}

// ScienceGrowth sizes the rover fleet against an exponential science
// target. On each month tick it forecasts the fleet at the lead
// horizon, orders the shortfall from construction, and raises the
// science sector's target rate. Orders stay in the forecast pipeline
// until their modules are observed completing.
type ScienceGrowth struct {
	cfg       ScienceGrowthConfig
	enabled   bool
	pipeline  []pipelineOrder
	nextOrder int
}

// NewScienceGrowth creates the policy with defaults filled in.
func NewScienceGrowth(cfg ScienceGrowthConfig) *ScienceGrowth {
	if cfg.DoublingPeriod <= 0 {
		cfg.DoublingPeriod = 6
	}
	if cfg.ActiveRoversMetric == "" {
		cfg.ActiveRoversMetric = sector.MetricActiveRovers
	}
	if cfg.ShellsPerModule <= 0 {
		cfg.ShellsPerModule = 1
	}
	return &ScienceGrowth{cfg: cfg, enabled: true}
}

func (p *ScienceGrowth) ID() string        { return ScienceGrowthID }
func (p *ScienceGrowth) Name() string      { return "science growth doubling" }
func (p *ScienceGrowth) Enabled() bool     { return p.enabled }
func (p *ScienceGrowth) SetEnabled(v bool) { p.enabled = v }

// Pipeline returns the outstanding orders as (arrivalMonth, qty) pairs.
func (p *ScienceGrowth) Pipeline() map[int64]int {
	out := map[int64]int{}
	for _, o := range p.pipeline {
		out[o.arrivalMonth] += o.qty
	}
	return out
}

// TargetRate returns the science rate the doubling curve demands at a
// month.
func (p *ScienceGrowth) TargetRate(month int64) float64 {
	return p.cfg.BaseRate * math.Pow(2, float64(month)/p.cfg.DoublingPeriod)
}

// Observe removes pipeline orders as their modules complete.
func (p *ScienceGrowth) Observe(ev kernel.Event) {
	done, ok := ev.Payload.(kernel.ModuleCompleted)
	if !ok || done.ModuleID != p.cfg.ModuleID {
		return
	}
	for i := range p.pipeline {
		if p.pipeline[i].qty > 0 {
			p.pipeline[i].qty--
			break
		}
	}
	kept := p.pipeline[:0]
	for _, o := range p.pipeline {
		if o.qty > 0 {
			kept = append(kept, o)
		}
	}
	p.pipeline = kept
}

// Apply runs the sizing step on month ticks.
func (p *ScienceGrowth) Apply(w WorldMutator, res evaluation.Result) ([]Effect, error) {
	if !w.IsMonthTick() {
		return nil, nil
	}

	horizon := w.Month() + p.cfg.LeadMonths
	target := p.TargetRate(horizon)
	required := ceil(target / p.cfg.RoverProductivity)

	active := int(res.Metrics[p.cfg.ActiveRoversMetric])
	forecast := active - p.cfg.ExpectedLosses
	for _, o := range p.pipeline {
		if o.arrivalMonth <= horizon {
			forecast += o.qty
		}
	}

	qty := ceil((1+p.cfg.SafetyMargin)*float64(required)) - forecast
	effects := []Effect{{
		PolicyID: p.ID(),
		Action:   "set_target_rate",
		Target:   sector.Science,
		Value:    target,
	}}
	if !w.SetTargetRate(sector.Science, target) {
		effects = effects[:0]
	}
	if qty <= 0 {
		return effects, nil
	}

	p.nextOrder++
	w.PublishEvent(kernel.TopicConstructionRequest, kernel.ConstructionRequested{
		RequestID: fmt.Sprintf("sci-growth-%d", p.nextOrder),
		Requester: sector.Science,
		ModuleID:  p.cfg.ModuleID,
		Quantity:  qty,
		Shells:    p.cfg.ShellsPerModule,
	})
	p.pipeline = append(p.pipeline, pipelineOrder{arrivalMonth: horizon, qty: qty})
	effects = append(effects, Effect{
		PolicyID: p.ID(),
		Action:   "request_build",
		Target:   p.cfg.ModuleID,
		Value:    float64(qty),
	})
	return effects, nil
}

// ceil rounds up with a tolerance against values that land a hair
// above an integer after float multiplication (1.1 * 20 is not 22 in
// binary floating point).
func ceil(v float64) int {
	return int(math.Ceil(v - 1e-9))
}
