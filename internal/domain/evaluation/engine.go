package evaluation

import "sort"

// Result is the per-step evaluation snapshot policies and the log
// consume. It reflects the step it was computed in; policies applied at
// step t therefore see step t's aggregation of step t-1 activity.
type Result struct {
	Step    int64                `json:"t"`
	Metrics map[string]float64   `json:"metrics"`
	Scores  map[string]GoalScore `json:"scores"`
}

// Engine owns the metric registry and the active goal set.
type Engine struct {
	metricOrder []string
	metrics     map[string]*Metric
	goals       []Goal
}

// NewEngine builds an engine from metric and goal declarations.
// Metrics referenced by goals but not declared are registered as plain
// gauges.
func NewEngine(defs []MetricDef, goals []Goal) *Engine {
	e := &Engine{metrics: map[string]*Metric{}}
	for _, def := range defs {
		e.register(def)
	}
	for _, g := range goals {
		if _, ok := e.metrics[g.MetricID]; !ok {
			e.register(MetricDef{ID: g.MetricID})
		}
	}
	e.goals = append(e.goals, goals...)
	return e
}

func (e *Engine) register(def MetricDef) {
	if _, ok := e.metrics[def.ID]; ok {
		return
	}
	e.metrics[def.ID] = NewMetric(def)
	e.metricOrder = append(e.metricOrder, def.ID)
}

// Goals returns the goal set in registration order.
func (e *Engine) Goals() []Goal { return e.goals }

// SetGoal adds or replaces a goal by id.
func (e *Engine) SetGoal(g Goal) {
	for i := range e.goals {
		if e.goals[i].ID == g.ID {
			e.goals[i] = g
			return
		}
	}
	if _, ok := e.metrics[g.MetricID]; !ok {
		e.register(MetricDef{ID: g.MetricID})
	}
	e.goals = append(e.goals, g)
}

// Metric returns a registered metric, or nil.
func (e *Engine) Metric(id string) *Metric { return e.metrics[id] }

// MetricValue returns a metric's current value, zero when unknown.
func (e *Engine) MetricValue(id string) float64 {
	if m := e.metrics[id]; m != nil {
		return m.Current()
	}
	return 0
}

// Contributions returns the per-sector breakdown behind a metric's
// last value.
func (e *Engine) Contributions(metricID string) map[string]float64 {
	if m := e.metrics[metricID]; m != nil {
		return m.Contributions()
	}
	return nil
}

// Aggregate folds one step's sector contributions into the registry.
// perSector maps sector id to its metric deltas. Contributions to
// undeclared metrics register them as gauges on the fly.
func (e *Engine) Aggregate(perSector map[string]map[string]float64) {
	byMetric := map[string]map[string]float64{}
	for _, sectorID := range sortedKeys(perSector) {
		for metricID, v := range perSector[sectorID] {
			if byMetric[metricID] == nil {
				byMetric[metricID] = map[string]float64{}
			}
			byMetric[metricID][sectorID] += v
		}
	}
	for metricID := range byMetric {
		if _, ok := e.metrics[metricID]; !ok {
			e.register(MetricDef{ID: metricID})
		}
	}
	for _, id := range e.metricOrder {
		e.metrics[id].aggregate(byMetric[id])
	}
}

// Evaluate scores every enabled goal against the current metric values.
func (e *Engine) Evaluate(step int64) Result {
	res := Result{
		Step:    step,
		Metrics: make(map[string]float64, len(e.metrics)),
		Scores:  make(map[string]GoalScore, len(e.goals)),
	}
	for _, id := range e.metricOrder {
		res.Metrics[id] = e.metrics[id].Current()
	}
	for _, g := range e.goals {
		if !g.Enabled {
			continue
		}
		res.Scores[g.ID] = g.Score(e.MetricValue(g.MetricID), step)
	}
	return res
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
