package evaluation

// Polarity states whether larger metric values are good or bad.
type Polarity string

const (
	PolarityPositive Polarity = "positive"
	PolarityNegative Polarity = "negative"
)

// MetricKind selects the aggregation rule. Gauges are recomputed from
// scratch every step; accumulators carry their value forward, decayed,
// and add the step's contributions on top. Environmental quantities
// that settle over time (regolith dust) are accumulators.
type MetricKind string

const (
	KindGauge       MetricKind = "gauge"
	KindAccumulator MetricKind = "accumulator"
)

// MetricDef declares a performance metric.
type MetricDef struct {
	ID       string     `mapstructure:"id" json:"id" validate:"required"`
	Name     string     `mapstructure:"name" json:"name"`
	Unit     string     `mapstructure:"unit" json:"unit"`
	Polarity Polarity   `mapstructure:"polarity" json:"polarity" validate:"omitempty,oneof=positive negative"`
	Kind     MetricKind `mapstructure:"kind" json:"kind" validate:"omitempty,oneof=gauge accumulator"`

	// DecayFactor multiplies an accumulator's carried value each step.
	DecayFactor float64 `mapstructure:"decay_factor" json:"decay_factor" validate:"gte=0,lte=1"`

	// InitialValue seeds the metric before the first aggregation.
	InitialValue float64 `mapstructure:"initial_value" json:"initial_value"`
}

// Metric is a live performance metric with its per-sector breakdown.
type Metric struct {
	def           MetricDef
	current       float64
	contributions map[string]float64
}

// NewMetric creates a metric at its initial value.
func NewMetric(def MetricDef) *Metric {
	if def.Polarity == "" {
		def.Polarity = PolarityPositive
	}
	if def.Kind == "" {
		def.Kind = KindGauge
	}
	return &Metric{def: def, current: def.InitialValue, contributions: map[string]float64{}}
}

// Def returns the metric's declaration.
func (m *Metric) Def() MetricDef { return m.def }

// Current returns the value after the last aggregation.
func (m *Metric) Current() float64 { return m.current }

// Contributions returns the per-sector deltas of the last aggregation.
func (m *Metric) Contributions() map[string]float64 { return m.contributions }

// aggregate folds one step's per-sector contributions into the metric.
func (m *Metric) aggregate(perSector map[string]float64) {
	m.contributions = perSector
	var sum float64
	for _, v := range perSector {
		sum += v
	}
	switch m.def.Kind {
	case KindAccumulator:
		m.current = m.current*m.def.DecayFactor + sum
	default:
		m.current = sum
	}
}
