package world

import (
	"github.com/proximalabs/proxima-go/internal/domain/evaluation"
	"github.com/proximalabs/proxima-go/internal/domain/kernel"
	"github.com/proximalabs/proxima-go/internal/domain/policy"
	"github.com/proximalabs/proxima-go/internal/domain/sector"
)

// stepOrder fixes the sector scheduling sequence within a step. The
// energy sector is not in the list; it runs implicitly during power
// allocation, before the consumers.
var stepOrder = []string{
	sector.Manufacturing,
	sector.Construction,
	sector.Equipment,
	sector.Transportation,
	sector.Science,
}

// Snapshot is the per-step state record the runner persists.
type Snapshot struct {
	Step       int64                         `json:"t"`
	Month      int64                         `json:"month"`
	Sectors    map[string]map[string]float64 `json:"sectors"`
	Evaluation evaluation.Result             `json:"evaluation"`
	Effects    []policy.Effect               `json:"policy_effects"`
	Errors     []string                      `json:"errors,omitempty"`
}

// World owns the kernel context, the sector set, the evaluation engine,
// and the policy engine, and drives them through the step pipeline.
// The pipeline is single threaded; a step is the atomic unit of work.
type World struct {
	ctx        *kernel.Context
	seed       uint64
	commitMode kernel.CommitMode

	energy  *sector.EnergySector
	sectors map[string]sector.Sector

	eval     *evaluation.Engine
	policies *policy.Engine
}

// NewWorld assembles a world from already-built components. Sector
// stocks become visible to the ledger immediately.
func NewWorld(ctx *kernel.Context, seed uint64, mode kernel.CommitMode, energy *sector.EnergySector, sectors []sector.Sector, eval *evaluation.Engine, policies *policy.Engine) *World {
	w := &World{
		ctx:        ctx,
		seed:       seed,
		commitMode: mode,
		energy:     energy,
		sectors:    map[string]sector.Sector{},
		eval:       eval,
		policies:   policies,
	}
	w.sectors[energy.ID()] = energy
	for _, s := range sectors {
		w.sectors[s.ID()] = s
	}
	for _, obs := range policies.Observers() {
		o := obs
		for _, topic := range []kernel.Topic{kernel.TopicModuleCompleted, kernel.TopicPayloadDelivered} {
			ctx.Bus.Subscribe(topic, func(ev kernel.Event) { o.Observe(ev) })
		}
	}
	return w
}

// Context exposes the kernel context for command handling between steps.
func (w *World) Context() *kernel.Context { return w.ctx }

// Clock returns the step clock.
func (w *World) Clock() *kernel.Clock { return w.ctx.Clock }

// Evaluation returns the evaluation engine.
func (w *World) Evaluation() *evaluation.Engine { return w.eval }

// Policies returns the policy engine.
func (w *World) Policies() *policy.Engine { return w.policies }

// Sector returns a sector by id, or nil.
func (w *World) Sector(id string) sector.Sector { return w.sectors[id] }

// Step runs one full simulation step and returns its snapshot:
// deliver, evaluate, apply policies, prioritize, allocate power, step
// sectors, commit flows, aggregate metrics, advance. A strict-mode
// commit overdraft is fatal: the snapshot still records it, but the
// error comes back non-nil and the world must not be stepped again.
func (w *World) Step() (*Snapshot, error) {
	step := w.ctx.Clock.Step()

	w.ctx.Bus.Deliver()

	result := w.eval.Evaluate(step)
	effects := w.policies.Apply(&mutator{w: w}, result)

	priorities := PriorityVector(w.eval)

	demands := map[string]float64{}
	for _, id := range stepOrder {
		demands[id] = w.sectors[id].PowerDemand()
	}
	alloc := w.energy.Allocate(demands, priorities)

	rng := kernel.NewStepRand(w.seed, step)
	for _, id := range stepOrder {
		w.sectors[id].Step(sector.StepInput{Step: step, Rand: rng, PowerKWh: alloc[id]})
	}

	var fatal error
	if err := w.ctx.Ledger.Commit(w.lookupStocks, w.commitMode); err != nil {
		w.ctx.Errors.Record(err)
		if w.commitMode == kernel.CommitStrict {
			fatal = err
		}
	}

	contribs := map[string]map[string]float64{}
	metrics := map[string]map[string]float64{}
	for id, s := range w.sectors {
		contribs[id] = s.Contributions()
		metrics[id] = s.Metrics()
	}
	w.eval.Aggregate(contribs)

	snap := &Snapshot{
		Step:       step,
		Month:      w.ctx.Clock.Month(),
		Sectors:    metrics,
		Evaluation: w.eval.Evaluate(step),
		Effects:    effects,
	}
	for _, err := range w.ctx.Errors.Drain() {
		snap.Errors = append(snap.Errors, err.Error())
	}

	w.ctx.Clock.Advance()
	return snap, fatal
}

func (w *World) lookupStocks(id string) *kernel.StockSet {
	if s, ok := w.sectors[id]; ok {
		return s.Stocks()
	}
	return nil
}

// mutator is the narrowed handle policies act through.
type mutator struct {
	w *World
}

func (m *mutator) SetThrottleFactor(sectorID string, f float64) bool {
	t, ok := m.w.sectors[sectorID].(sector.Throttleable)
	if !ok {
		return false
	}
	t.SetThrottleFactor(f)
	return true
}

func (m *mutator) SetTargetRate(sectorID string, r float64) bool {
	t, ok := m.w.sectors[sectorID].(sector.TargetRated)
	if !ok {
		return false
	}
	t.SetTargetRate(r)
	return true
}

func (m *mutator) PublishEvent(topic kernel.Topic, payload any) {
	m.w.ctx.Bus.Publish(topic, payload)
}

func (m *mutator) Month() int64      { return m.w.ctx.Clock.Month() }
func (m *mutator) IsMonthTick() bool { return m.w.ctx.Clock.IsMonthTick() }
