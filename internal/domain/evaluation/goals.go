package evaluation

import "math"

// Direction states which way a goal pushes its metric.
type Direction string

const (
	Maximize Direction = "maximize"
	Minimize Direction = "minimize"
)

// GoalType selects the scoring rule.
type GoalType string

const (
	GoalTarget     GoalType = "target"
	GoalBounds     GoalType = "bounds"
	GoalGrowthRate GoalType = "growth_rate"
)

// GoalStatus buckets a goal score.
type GoalStatus string

const (
	StatusWithin      GoalStatus = "within"
	StatusApproaching GoalStatus = "approaching"
	StatusOutside     GoalStatus = "outside"
)

// Goal is a parametric performance target over one metric.
type Goal struct {
	ID        string    `mapstructure:"id" json:"id" validate:"required"`
	MetricID  string    `mapstructure:"metric_id" json:"metric_id" validate:"required"`
	Direction Direction `mapstructure:"direction" json:"direction" validate:"omitempty,oneof=maximize minimize"`
	Type      GoalType  `mapstructure:"type" json:"type" validate:"required,oneof=target bounds growth_rate"`

	// Target goals.
	Target float64 `mapstructure:"target" json:"target"`

	// Bounds goals.
	Lo float64 `mapstructure:"lo" json:"lo"`
	Hi float64 `mapstructure:"hi" json:"hi"`

	// Growth-rate goals follow target(t) = base * factor^(t/period).
	Base        float64 `mapstructure:"base" json:"base"`
	Factor      float64 `mapstructure:"factor" json:"factor"`
	PeriodSteps int64   `mapstructure:"period_steps" json:"period_steps"`

	Weight       float64 `mapstructure:"weight" json:"weight" validate:"gte=0"`
	HorizonSteps int64   `mapstructure:"horizon_steps" json:"horizon_steps"`
	Enabled      bool    `mapstructure:"enabled" json:"enabled"`
}

// GoalScore is one goal's result for a step.
type GoalScore struct {
	Value  float64    `json:"value"`
	Score  float64    `json:"score"`
	Status GoalStatus `json:"status"`
}

// TargetCurve returns the moving target of a growth-rate goal at step t.
func (g Goal) TargetCurve(t int64) float64 {
	if g.PeriodSteps <= 0 || g.Factor <= 0 {
		return g.Base
	}
	return g.Base * math.Pow(g.Factor, float64(t)/float64(g.PeriodSteps))
}

// Score evaluates the goal against a metric value. Scores live in
// [0, 1]; deviation in the goal's preferred direction never penalizes,
// so a maximize target overshot still scores 1.
func (g Goal) Score(value float64, t int64) GoalScore {
	var score float64
	switch g.Type {
	case GoalBounds:
		score = g.scoreBounds(value)
	case GoalGrowthRate:
		score = g.scoreGrowth(value, t)
	default:
		score = g.scoreTarget(value)
	}
	score = clamp01(score)
	return GoalScore{Value: value, Score: score, Status: statusFor(score)}
}

func (g Goal) scoreTarget(value float64) float64 {
	if g.Target == 0 {
		if value == 0 {
			return 1
		}
		return 0
	}
	deviation := value - g.Target
	if g.Direction == Minimize {
		deviation = -deviation
	}
	if deviation >= 0 {
		return 1
	}
	return 1 - math.Abs(deviation)/math.Abs(g.Target)
}

func (g Goal) scoreBounds(value float64) float64 {
	if value >= g.Lo && value <= g.Hi {
		return 1
	}
	span := g.Hi - g.Lo
	if span <= 0 {
		span = math.Max(math.Abs(g.Hi), 1)
	}
	var dist float64
	if value < g.Lo {
		dist = g.Lo - value
	} else {
		dist = value - g.Hi
	}
	return 1 - dist/span
}

func (g Goal) scoreGrowth(value float64, t int64) float64 {
	target := g.TargetCurve(t)
	if target <= 0 {
		return 1
	}
	if g.Direction == Minimize {
		if value <= 0 {
			return 1
		}
		return math.Min(target/value, 1)
	}
	return math.Min(value/target, 1)
}

func statusFor(score float64) GoalStatus {
	switch {
	case score >= 0.9:
		return StatusWithin
	case score >= 0.5:
		return StatusApproaching
	default:
		return StatusOutside
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
