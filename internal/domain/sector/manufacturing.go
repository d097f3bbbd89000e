package sector

import (
	"github.com/proximalabs/proxima-go/internal/domain/agent"
	"github.com/proximalabs/proxima-go/internal/domain/kernel"
)

// drrTaskOrder fixes the scheduler's task rotation. Stable ordering
// keeps runs reproducible.
var drrTaskOrder = []agent.OperationalMode{
	agent.ModeHe3Extraction,
	agent.ModeIceExtraction,
	agent.ModeRegolithExtraction,
	agent.ModeElectrolysis,
	agent.ModeMetalProcessing,
}

// taskOutput maps each ISRU task to the resource whose buffer target
// drives its deficiency.
var taskOutput = map[agent.OperationalMode]string{
	agent.ModeHe3Extraction:      agent.ResourceHe3,
	agent.ModeIceExtraction:      agent.ResourceWater,
	agent.ModeRegolithExtraction: agent.ResourceRegolith,
	agent.ModeElectrolysis:       agent.ResourceHydrogen,
	agent.ModeMetalProcessing:    agent.ResourceMetal,
}

// ManufacturingConfig configures the ISRU sector.
type ManufacturingConfig struct {
	InitialStocks  map[string]float64                `mapstructure:"initial_stocks" json:"initial_stocks"`
	TaskPriorities map[agent.OperationalMode]float64 `mapstructure:"task_priorities" json:"task_priorities"`
	BufferTargets  map[string]BufferTarget           `mapstructure:"buffer_targets" json:"buffer_targets"`
	BacklogMaxAge  int64                             `mapstructure:"backlog_max_age_steps" json:"backlog_max_age_steps"`
	SchedulerTau   float64                           `mapstructure:"scheduler_tau" json:"scheduler_tau"`
}

// resourceRequest is a backlogged incoming resource demand.
type resourceRequest struct {
	requester string
	resource  string
	amount    float64
	ageSteps  int64
}

// ManufacturingSector schedules the ISRU fleet with a deficit round
// robin over its task modes and serves incoming resource requests from
// local stock.
type ManufacturingSector struct {
	ctx    *kernel.Context
	cfg    ManufacturingConfig
	isrus  []*agent.ISRU
	stocks *kernel.StockSet
	drr    *DRRScheduler

	throttle  float64
	backlog   []resourceRequest
	contribs  map[string]float64
	activeOps int
	powerUsed float64
	expired   int
}

// NewManufacturingSector wires the sector and subscribes it to
// resource requests.
func NewManufacturingSector(ctx *kernel.Context, cfg ManufacturingConfig, isrus []*agent.ISRU) *ManufacturingSector {
	tasks := make([]string, len(drrTaskOrder))
	for i, m := range drrTaskOrder {
		tasks[i] = string(m)
	}
	s := &ManufacturingSector{
		ctx:      ctx,
		cfg:      cfg,
		isrus:    isrus,
		stocks:   kernel.NewStockSet(cfg.InitialStocks),
		drr:      NewDRRScheduler(tasks, cfg.SchedulerTau),
		contribs: map[string]float64{},
	}
	ctx.Bus.Subscribe(kernel.TopicResourceRequest, s.onResourceRequest)
	return s
}

func (s *ManufacturingSector) ID() string               { return Manufacturing }
func (s *ManufacturingSector) Stocks() *kernel.StockSet { return s.stocks }

// SetThrottleFactor applies a policy throttle.
func (s *ManufacturingSector) SetThrottleFactor(f float64) { s.throttle = clampThrottle(f) }

// ThrottleFactor returns the current throttle.
func (s *ManufacturingSector) ThrottleFactor() float64 { return s.throttle }

// Backlog returns the pending resource requests (most recent last).
func (s *ManufacturingSector) Backlog() int { return len(s.backlog) }

func (s *ManufacturingSector) onResourceRequest(ev kernel.Event) {
	req, ok := ev.Payload.(kernel.ResourceRequested)
	if !ok {
		return
	}
	s.backlog = append(s.backlog, resourceRequest{
		requester: req.Requester,
		resource:  req.Resource,
		amount:    req.Amount,
	})
}

// PowerDemand sums the maximum mode rating of every schedulable unit.
func (s *ManufacturingSector) PowerDemand() float64 {
	var total float64
	for _, a := range s.isrus {
		if !a.Available() {
			continue
		}
		var peak float64
		for _, mode := range drrTaskOrder {
			peak = max(peak, a.PowerDemand(mode))
		}
		total += peak
	}
	return total
}

// Step ages the fleet, serves the request backlog, then runs one DRR
// turn per schedulable unit.
func (s *ManufacturingSector) Step(in StepInput) {
	s.contribs = map[string]float64{}
	s.activeOps = 0
	s.powerUsed = 0
	s.expired = 0

	for _, a := range s.isrus {
		a.Tick()
	}

	s.serveBacklog()
	s.schedule(in)

	if s.expired > 0 {
		s.contribs[MetricBacklogExpired] += float64(s.expired)
	}
}

// serveBacklog fulfills requests LIFO against current stock. Requests
// that cannot be met stay queued and are re-attempted next step, until
// they age out.
func (s *ManufacturingSector) serveBacklog() {
	committed := map[string]float64{}
	kept := s.backlog[:0]
	for i := len(s.backlog) - 1; i >= 0; i-- {
		req := s.backlog[i]
		available := s.stocks.Level(req.resource) - committed[req.resource]
		if available >= req.amount {
			committed[req.resource] += req.amount
			s.ctx.Ledger.Transfer(Manufacturing, req.requester, req.resource, req.amount)
			s.ctx.Bus.Publish(kernel.TopicResourceAllocated, kernel.ResourceAllocated{
				Recipient: req.requester,
				Resource:  req.resource,
				Amount:    req.amount,
			})
			continue
		}
		req.ageSteps++
		if s.cfg.BacklogMaxAge > 0 && req.ageSteps > s.cfg.BacklogMaxAge {
			s.expired++
			continue
		}
		kept = append(kept, req)
	}
	// The surviving requests were visited newest-first; restore queue order.
	for l, r := 0, len(kept)-1; l < r; l, r = l+1, r-1 {
		kept[l], kept[r] = kept[r], kept[l]
	}
	s.backlog = kept
}

// schedule gives each schedulable unit one DRR turn.
func (s *ManufacturingSector) schedule(in StepInput) {
	budget := in.PowerKWh

	for _, a := range s.isrus {
		if !a.Available() {
			continue
		}
		if in.Rand.Bernoulli(s.throttle) {
			continue
		}

		priorities, available := s.taskStates(a, budget)
		task, ok := s.drr.Select(priorities, available)
		if !ok {
			continue
		}
		mode := agent.OperationalMode(task)
		need := a.PowerDemand(mode)
		worked := budget >= need && a.Run(mode, Manufacturing, need, in.Rand, s.ctx.Ledger)
		s.drr.Spend(task, worked)
		if worked {
			budget -= need
			s.powerUsed += need
			s.activeOps++
		}
	}
}

// taskStates computes the priority and availability vectors for one
// unit's scheduling turn. A task is available when the unit can run it,
// its inputs are on hand, and the power budget covers it. Priority is
// the configured base priority, gated to zero when a buffer target
// exists for the task's output and shows no deficiency.
func (s *ManufacturingSector) taskStates(a *agent.ISRU, budget float64) (map[string]float64, map[string]bool) {
	priorities := make(map[string]float64, len(drrTaskOrder))
	available := make(map[string]bool, len(drrTaskOrder))

	for _, mode := range drrTaskOrder {
		task := string(mode)
		p := s.cfg.TaskPriorities[mode]
		if target, ok := s.cfg.BufferTargets[taskOutput[mode]]; ok {
			if s.stocks.Level(taskOutput[mode]) >= target.Min {
				p = 0
			}
		}
		priorities[task] = p

		ok := budget >= a.PowerDemand(mode) && a.PowerDemand(mode) >= 0
		for res, qty := range a.Inputs(mode) {
			if !s.stocks.Has(res, qty) {
				ok = false
			}
		}
		available[task] = ok
	}
	return priorities, available
}

// Metrics returns the sector's step metrics, stock levels included.
func (s *ManufacturingSector) Metrics() map[string]float64 {
	m := map[string]float64{
		"active_operations":  float64(s.activeOps),
		"power_consumed_kwh": s.powerUsed,
		"backlog_depth":      float64(len(s.backlog)),
		"backlog_expired":    float64(s.expired),
		"throttle_factor":    s.throttle,
	}
	for res, qty := range s.stocks.Snapshot() {
		m["stock_"+res] = qty
	}
	return m
}

// Contributions returns this step's metric deltas.
func (s *ManufacturingSector) Contributions() map[string]float64 { return s.contribs }
