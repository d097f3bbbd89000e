package sector

import (
	"math"

	"github.com/proximalabs/proxima-go/internal/domain/agent"
	"github.com/proximalabs/proxima-go/internal/domain/kernel"
)

// ScienceConfig configures the science sector.
type ScienceConfig struct {
	// RoverTemplate is the build standard for rovers added to the fleet
	// at runtime.
	RoverTemplate agent.ScienceRoverConfig `mapstructure:"rover_template" json:"rover_template"`

	// RoverEquipmentType marks the completed modules that grow the
	// fleet.
	RoverEquipmentType string `mapstructure:"rover_equipment_type" json:"rover_equipment_type"`

	// RateMetric receives the science units generated per step.
	RateMetric MetricContribution `mapstructure:"rate_metric" json:"rate_metric"`
}

// ScienceSector operates the rover fleet. A production target set by
// policy caps how many rovers work per step; without one the whole
// fleet operates. The fleet grows when construction completes a module
// carrying rover equipment.
type ScienceSector struct {
	ctx    *kernel.Context
	cfg    ScienceConfig
	rovers []*agent.ScienceRover
	stocks *kernel.StockSet

	throttle   float64
	targetRate float64

	contribs  map[string]float64
	active    int
	generated float64
	powerUsed float64
}

// NewScienceSector wires the sector and subscribes it to module
// completions.
func NewScienceSector(ctx *kernel.Context, cfg ScienceConfig, rovers []*agent.ScienceRover) *ScienceSector {
	s := &ScienceSector{
		ctx:      ctx,
		cfg:      cfg,
		rovers:   rovers,
		stocks:   kernel.NewStockSet(nil),
		contribs: map[string]float64{},
	}
	ctx.Bus.Subscribe(kernel.TopicModuleCompleted, s.onModuleCompleted)
	return s
}

func (s *ScienceSector) ID() string               { return Science }
func (s *ScienceSector) Stocks() *kernel.StockSet { return s.stocks }

// SetThrottleFactor applies a policy throttle.
func (s *ScienceSector) SetThrottleFactor(f float64) { s.throttle = clampThrottle(f) }

// ThrottleFactor returns the current throttle.
func (s *ScienceSector) ThrottleFactor() float64 { return s.throttle }

// SetTargetRate sets the science production target in units per step.
func (s *ScienceSector) SetTargetRate(r float64) {
	if r < 0 {
		r = 0
	}
	s.targetRate = r
}

// TargetRate returns the current production target.
func (s *ScienceSector) TargetRate() float64 { return s.targetRate }

// FleetSize returns the number of rovers, retired units excluded.
func (s *ScienceSector) FleetSize() int {
	n := 0
	for _, r := range s.rovers {
		if r.Available() {
			n++
		}
	}
	return n
}

func (s *ScienceSector) onModuleCompleted(ev kernel.Event) {
	done, ok := ev.Payload.(kernel.ModuleCompleted)
	if !ok || s.cfg.RoverEquipmentType == "" || done.EquipmentType != s.cfg.RoverEquipmentType {
		return
	}
	s.rovers = append(s.rovers, agent.NewScienceRover(len(s.rovers)+1, s.cfg.RoverTemplate))
}

// PowerDemand sums the charging demand of the fleet.
func (s *ScienceSector) PowerDemand() float64 {
	var total float64
	for _, r := range s.rovers {
		if r.Available() {
			total += r.PowerDemand()
		}
	}
	return total
}

// operatingQuota converts the target rate into a rover head count. A
// zero target leaves the fleet uncapped.
func (s *ScienceSector) operatingQuota() int {
	if s.targetRate <= 0 {
		return len(s.rovers)
	}
	per := s.cfg.RoverTemplate.ScienceGeneration
	if per <= 0 {
		return len(s.rovers)
	}
	return int(math.Ceil(s.targetRate / per))
}

// Step charges depleted rovers from the allocation and operates the
// rest up to the target quota.
func (s *ScienceSector) Step(in StepInput) {
	s.contribs = map[string]float64{}
	s.active = 0
	s.generated = 0
	s.powerUsed = 0

	quota := s.operatingQuota()
	budget := in.PowerKWh

	for _, r := range s.rovers {
		r.Tick()
		if !r.Available() {
			continue
		}

		if r.NeedsCharge() {
			grant := min(budget, r.PowerDemand())
			res := r.Step(grant)
			budget -= res.GridPowerDrawnKWh
			s.powerUsed += res.GridPowerDrawnKWh
			continue
		}

		if s.active >= quota {
			continue
		}
		if in.Rand.Bernoulli(s.throttle) {
			continue
		}
		res := r.Step(0)
		if res.ScienceGenerated > 0 {
			s.active++
			s.generated += res.ScienceGenerated
			s.ctx.Ledger.Produce(Science, agent.ResourceScience, res.ScienceGenerated)
		}
	}

	s.contribs[MetricActiveRovers] = float64(s.active)
	if s.generated > 0 && s.cfg.RateMetric.MetricID != "" {
		s.contribs[s.cfg.RateMetric.MetricID] += s.generated * s.cfg.RateMetric.Value
	}
}

// Metrics returns the sector's step metrics.
func (s *ScienceSector) Metrics() map[string]float64 {
	m := map[string]float64{
		"fleet_size":         float64(s.FleetSize()),
		"rovers_active":      float64(s.active),
		"science_generated":  s.generated,
		"target_rate":        s.targetRate,
		"throttle_factor":    s.throttle,
		"power_consumed_kwh": s.powerUsed,
	}
	for res, qty := range s.stocks.Snapshot() {
		m["stock_"+res] = qty
	}
	return m
}

// Contributions returns this step's metric deltas.
func (s *ScienceSector) Contributions() map[string]float64 { return s.contribs }
