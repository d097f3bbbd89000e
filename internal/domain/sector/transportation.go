package sector

import (
	"github.com/proximalabs/proxima-go/internal/domain/agent"
	"github.com/proximalabs/proxima-go/internal/domain/kernel"
)

// TransportationConfig configures the transportation sector.
type TransportationConfig struct {
	InitialStocks map[string]float64 `mapstructure:"initial_stocks" json:"initial_stocks"`

	// DistanceKm is the one-way Earth-Moon transfer distance.
	DistanceKm float64 `mapstructure:"distance_km" json:"distance_km"`

	// LoadingSteps is the turnaround time at the destination before the
	// return leg.
	LoadingSteps int `mapstructure:"loading_steps" json:"loading_steps"`

	// He-3 feedstock for the fuel plants is requested from manufacturing
	// in batches when the local buffer drops below the threshold and the
	// propellant on hand sits below the fuel floor. A zero floor disables
	// the propellant condition.
	He3ThresholdKg float64 `mapstructure:"he3_threshold_kg" json:"he3_threshold_kg"`
	He3BatchKg     float64 `mapstructure:"he3_batch_kg" json:"he3_batch_kg"`
	FuelFloorKg    float64 `mapstructure:"fuel_floor_kg" json:"fuel_floor_kg"`

	// DustMetric receives one contribution per committed mission.
	DustMetric MetricContribution `mapstructure:"dust_metric" json:"dust_metric"`
}

// TransportationSector runs the Earth-Moon logistics chain: fuel
// plants turn He-3 into propellant, and the rocket fleet flies queued
// transport requests. The request queue is served newest first.
type TransportationSector struct {
	ctx      *kernel.Context
	cfg      TransportationConfig
	rockets  []*agent.Rocket
	fuelGens []*agent.FuelGenerator
	stocks   *kernel.StockSet

	queue      []kernel.TransportRequested
	he3Pending bool

	contribs   map[string]float64
	launched   int
	fuelMadeKg float64
}

// NewTransportationSector wires the sector and its bus subscriptions.
func NewTransportationSector(ctx *kernel.Context, cfg TransportationConfig, rockets []*agent.Rocket, fuelGens []*agent.FuelGenerator) *TransportationSector {
	if cfg.DistanceKm <= 0 {
		cfg.DistanceKm = 384400
	}
	if cfg.LoadingSteps <= 0 {
		cfg.LoadingSteps = 24
	}
	s := &TransportationSector{
		ctx:      ctx,
		cfg:      cfg,
		rockets:  rockets,
		fuelGens: fuelGens,
		stocks:   kernel.NewStockSet(cfg.InitialStocks),
		contribs: map[string]float64{},
	}
	ctx.Bus.Subscribe(kernel.TopicTransportRequest, s.onTransportRequest)
	ctx.Bus.Subscribe(kernel.TopicResourceAllocated, s.onResourceAllocated)
	return s
}

func (s *TransportationSector) ID() string               { return Transportation }
func (s *TransportationSector) Stocks() *kernel.StockSet { return s.stocks }
func (s *TransportationSector) PowerDemand() float64     { return 0 }

// Queue returns the number of unserved transport requests.
func (s *TransportationSector) Queue() int { return len(s.queue) }

func (s *TransportationSector) onTransportRequest(ev kernel.Event) {
	req, ok := ev.Payload.(kernel.TransportRequested)
	if !ok {
		return
	}
	s.queue = append(s.queue, req)
}

func (s *TransportationSector) onResourceAllocated(ev kernel.Event) {
	alloc, ok := ev.Payload.(kernel.ResourceAllocated)
	if !ok || alloc.Recipient != Transportation {
		return
	}
	if alloc.Resource == agent.ResourceHe3 {
		s.he3Pending = false
	}
}

// Step replenishes He-3, runs the fuel plants, dispatches queued
// missions, and advances every rocket.
func (s *TransportationSector) Step(StepInput) {
	s.contribs = map[string]float64{}
	s.launched = 0
	s.fuelMadeKg = 0

	for _, r := range s.rockets {
		r.Tick()
	}
	for _, g := range s.fuelGens {
		g.Tick()
	}

	s.requestHe3()
	s.generateFuel()
	s.dispatch()

	for _, r := range s.rockets {
		r.Step(s.ctx.Bus)
	}
}

// requestHe3 keeps one batch request outstanding while the feedstock
// buffer sits below the threshold. With a fuel floor configured, enough
// propellant on hand defers the request even when feedstock is short.
func (s *TransportationSector) requestHe3() {
	if s.cfg.He3BatchKg <= 0 || s.he3Pending {
		return
	}
	if s.stocks.Level(agent.ResourceHe3) >= s.cfg.He3ThresholdKg {
		return
	}
	if s.cfg.FuelFloorKg > 0 && s.stocks.Level(agent.ResourceRocketFuel) >= s.cfg.FuelFloorKg {
		return
	}
	s.he3Pending = true
	s.ctx.Bus.Publish(kernel.TopicResourceRequest, kernel.ResourceRequested{
		Requester: Transportation,
		Resource:  agent.ResourceHe3,
		Amount:    s.cfg.He3BatchKg,
	})
}

// generateFuel runs each fuel plant against the He-3 still unclaimed
// this step.
func (s *TransportationSector) generateFuel() {
	available := s.stocks.Level(agent.ResourceHe3)
	for _, g := range s.fuelGens {
		consumed, produced := g.Step(available)
		if consumed <= 0 {
			continue
		}
		available -= consumed
		s.fuelMadeKg += produced
		s.ctx.Ledger.Consume(Transportation, agent.ResourceHe3, consumed)
		s.ctx.Ledger.Produce(Transportation, agent.ResourceRocketFuel, produced)
	}
}

// dispatch serves the request queue newest first. A mission commits
// only when an idle rocket sits at the origin and the propellant for
// the full round trip is covered by the fuel on hand at the start of
// the step, minus what earlier commits this step already claimed.
func (s *TransportationSector) dispatch() {
	fuelFree := s.stocks.Level(agent.ResourceRocketFuel)
	kept := s.queue[:0]

	for i := len(s.queue) - 1; i >= 0; i-- {
		req := s.queue[i]
		rocket := s.rocketAt(req.Origin)
		if rocket == nil {
			kept = append(kept, req)
			continue
		}

		var outboundKg float64
		for _, kg := range req.Payload {
			outboundKg += kg
		}
		propellant, oneWay := rocket.PlanRoundTrip(outboundKg, 0, s.cfg.DistanceKm)
		if oneWay == 0 || propellant > fuelFree {
			kept = append(kept, req)
			continue
		}

		fuelFree -= propellant
		s.ctx.Ledger.Consume(Transportation, agent.ResourceRocketFuel, propellant)
		rocket.CommitRoundTrip(req.Origin, req.Destination, req.Payload, map[string]float64{}, oneWay, s.cfg.LoadingSteps, req.Requester)
		s.launched++
		if s.cfg.DustMetric.MetricID != "" {
			s.contribs[s.cfg.DustMetric.MetricID] += s.cfg.DustMetric.Value * rocket.Config().DustPerLaunch
		}
	}

	// Survivors were visited newest-first; restore queue order.
	for l, r := 0, len(kept)-1; l < r; l, r = l+1, r-1 {
		kept[l], kept[r] = kept[r], kept[l]
	}
	s.queue = kept
}

func (s *TransportationSector) rocketAt(origin string) *agent.Rocket {
	for _, r := range s.rockets {
		if r.IsAvailable() && r.Location() == origin {
			return r
		}
	}
	return nil
}

// Metrics returns the sector's step metrics.
func (s *TransportationSector) Metrics() map[string]float64 {
	idle, inFlight := 0, 0
	for _, r := range s.rockets {
		if r.Phase() == agent.PhaseIdle {
			idle++
		} else {
			inFlight++
		}
	}
	m := map[string]float64{
		"queue_depth":       float64(len(s.queue)),
		"missions_launched": float64(s.launched),
		"rockets_idle":      float64(idle),
		"rockets_in_flight": float64(inFlight),
		"fuel_generated_kg": s.fuelMadeKg,
	}
	for res, qty := range s.stocks.Snapshot() {
		m["stock_"+res] = qty
	}
	return m
}

// Contributions returns this step's metric deltas.
func (s *TransportationSector) Contributions() map[string]float64 { return s.contribs }
