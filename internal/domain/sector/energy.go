package sector

import (
	"sort"

	"github.com/proximalabs/proxima-go/internal/domain/agent"
	"github.com/proximalabs/proxima-go/internal/domain/kernel"
)

// AllocationMode selects how scarce power is split between sectors.
type AllocationMode string

const (
	AllocationProportional AllocationMode = "proportional"
	AllocationEqual        AllocationMode = "equal"
)

// EnergyConfig configures the energy sector.
type EnergyConfig struct {
	AllocationMode AllocationMode `mapstructure:"allocation_mode" json:"allocation_mode"`
	ShortageMetric string         `mapstructure:"shortage_metric" json:"shortage_metric"`
}

// EnergySector owns generation and storage and performs the per-step
// power allocation. It is stepped implicitly through Allocate, before
// the consuming sectors run.
type EnergySector struct {
	cfg        EnergyConfig
	generators []*agent.PowerGenerator
	storages   []*agent.PowerStorage
	stocks     *kernel.StockSet

	supplied float64
	demanded float64
	shortage float64
	charged  float64
	contribs map[string]float64
}

// NewEnergySector creates the energy sector from its fleet.
func NewEnergySector(cfg EnergyConfig, generators []*agent.PowerGenerator, storages []*agent.PowerStorage) *EnergySector {
	if cfg.AllocationMode == "" {
		cfg.AllocationMode = AllocationProportional
	}
	if cfg.ShortageMetric == "" {
		cfg.ShortageMetric = MetricPowerShortage
	}
	return &EnergySector{
		cfg:        cfg,
		generators: generators,
		storages:   storages,
		stocks:     kernel.NewStockSet(nil),
		contribs:   map[string]float64{},
	}
}

func (s *EnergySector) ID() string               { return Energy }
func (s *EnergySector) Stocks() *kernel.StockSet { return s.stocks }
func (s *EnergySector) PowerDemand() float64     { return 0 }
func (s *EnergySector) Step(StepInput)           {}

// TotalCharge returns stored energy across all banks.
func (s *EnergySector) TotalCharge() float64 {
	var total float64
	for _, st := range s.storages {
		total += st.ChargeLevelKWh()
	}
	return total
}

// TotalCapacity returns storage capacity across all banks.
func (s *EnergySector) TotalCapacity() float64 {
	var total float64
	for _, st := range s.storages {
		total += st.CapacityKWh()
	}
	return total
}

// Allocate generates power against the demand vector plus storage
// headroom, covers any shortfall from the batteries, charges them with
// the surplus, and splits what is available between sectors.
//
// Under scarcity the split is weighted by demand times the combined
// goal-derived sector priority; a sector without a priority weighs 1,
// so an empty priority vector degrades to demand-proportional.
// Unmet demand is contributed to the shortage metric.
func (s *EnergySector) Allocate(demands, priorities map[string]float64) map[string]float64 {
	s.contribs = map[string]float64{}
	s.charged = 0

	names := make([]string, 0, len(demands))
	var totalDemand float64
	for name, d := range demands {
		if d < 0 {
			d = 0
			demands[name] = 0
		}
		totalDemand += d
		names = append(names, name)
	}
	sort.Strings(names)
	s.demanded = totalDemand

	// Generate only what can be used: demand plus battery headroom.
	var headroom float64
	for _, st := range s.storages {
		headroom += st.Headroom() / 0.95
	}
	want := totalDemand + headroom
	var generated float64
	for _, gen := range s.generators {
		if want <= 0 {
			break
		}
		out := gen.Generate(want)
		generated += out
		want -= out
	}

	fromGeneration := min(generated, totalDemand)
	remaining := totalDemand - fromGeneration

	var discharged float64
	for _, st := range s.storages {
		if remaining <= 0 {
			break
		}
		out := st.Discharge(remaining)
		discharged += out
		remaining -= out
	}

	s.supplied = fromGeneration + discharged
	s.shortage = max(0, remaining)
	if s.shortage > 0 {
		s.contribs[s.cfg.ShortageMetric] = s.shortage
	}

	// Surplus generation charges the banks.
	surplus := generated - fromGeneration
	for _, st := range s.storages {
		if surplus <= 0 {
			break
		}
		consumed := st.Charge(surplus)
		s.charged += consumed
		surplus -= consumed
	}

	return s.split(names, demands, priorities, totalDemand)
}

func (s *EnergySector) split(names []string, demands, priorities map[string]float64, totalDemand float64) map[string]float64 {
	alloc := make(map[string]float64, len(names))
	if totalDemand <= 0 || s.supplied <= 0 {
		for _, name := range names {
			alloc[name] = 0
		}
		return alloc
	}

	if totalDemand <= s.supplied {
		for _, name := range names {
			alloc[name] = demands[name]
		}
		return alloc
	}

	if s.cfg.AllocationMode == AllocationEqual {
		perSector := s.supplied / float64(len(names))
		for _, name := range names {
			alloc[name] = min(perSector, demands[name])
		}
		return alloc
	}

	var totalWeight float64
	weight := func(name string) float64 {
		p, ok := priorities[name]
		if !ok || p <= 0 {
			p = 1
		}
		return demands[name] * p
	}
	for _, name := range names {
		totalWeight += weight(name)
	}
	for _, name := range names {
		alloc[name] = min(demands[name], s.supplied*weight(name)/totalWeight)
	}
	return alloc
}

// Metrics returns the energy sector's step metrics.
func (s *EnergySector) Metrics() map[string]float64 {
	soc := 0.0
	if cap := s.TotalCapacity(); cap > 0 {
		soc = s.TotalCharge() / cap
	}
	return map[string]float64{
		"power_supplied_kwh":  s.supplied,
		"power_demanded_kwh":  s.demanded,
		"power_shortage_kwh":  s.shortage,
		"battery_charge_kwh":  s.TotalCharge(),
		"battery_soc":         soc,
		"battery_charged_kwh": s.charged,
	}
}

// Contributions returns this step's metric deltas.
func (s *EnergySector) Contributions() map[string]float64 { return s.contribs }
