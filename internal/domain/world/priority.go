package world

import (
	"math"

	"github.com/proximalabs/proxima-go/internal/domain/evaluation"
)

// PriorityVector derives per-sector scheduling priorities from the
// active goals. Each goal spreads its weight over the sectors in
// proportion to their share of the goal metric's contributions; a
// sector feeding none of the goal metrics ends up with zero priority
// and falls back to the allocator's neutral weight.
func PriorityVector(eval *evaluation.Engine) map[string]float64 {
	priorities := map[string]float64{}
	for _, g := range eval.Goals() {
		if !g.Enabled || g.Weight <= 0 {
			continue
		}
		contribs := eval.Contributions(g.MetricID)
		var total float64
		for _, v := range contribs {
			total += math.Abs(v)
		}
		if total <= 0 {
			continue
		}
		for sectorID, v := range contribs {
			priorities[sectorID] += g.Weight * math.Abs(v) / total
		}
	}
	return priorities
}
