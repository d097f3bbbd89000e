package kernel

// StockSet is a sector's local inventory: resource id to a non-negative
// level. All mutation goes through the ledger; sectors read levels and
// emit flows.
type StockSet struct {
	levels map[string]float64
}

// NewStockSet creates a stock set from initial levels. Negative initial
// levels are clamped to zero.
func NewStockSet(initial map[string]float64) *StockSet {
	levels := make(map[string]float64, len(initial))
	for res, qty := range initial {
		if qty < 0 {
			qty = 0
		}
		levels[res] = qty
	}
	return &StockSet{levels: levels}
}

// Level returns the current level of a resource (0 if unknown).
func (s *StockSet) Level(resource string) float64 { return s.levels[resource] }

// Has reports whether at least qty of resource is on hand.
func (s *StockSet) Has(resource string, qty float64) bool {
	return s.levels[resource] >= qty
}

// Snapshot returns a copy of all levels.
func (s *StockSet) Snapshot() map[string]float64 {
	out := make(map[string]float64, len(s.levels))
	for res, qty := range s.levels {
		out[res] = qty
	}
	return out
}

// apply adjusts a level. Only the ledger calls this at commit.
func (s *StockSet) apply(resource string, delta float64) {
	next := s.levels[resource] + delta
	if next < 0 {
		// Commit validation guarantees this cannot happen; clamp anyway
		// so a bug never manifests as a negative inventory.
		next = 0
	}
	s.levels[resource] = next
}
