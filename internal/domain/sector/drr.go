package sector

// DRRScheduler is a priority-as-token deficit round robin. Each task
// holds a token bank. Per step the banks of available tasks top up in
// proportion to their priorities (normalized so one full turn's worth
// of tokens enters the system per step), the highest bank wins the
// turn, and a completed turn spends tau tokens. Banks of unavailable
// or zero-priority tasks reset to zero.
//
// The spend is not floored at zero: letting a bank carry negative
// deficit is what makes the long-run share of turns converge exactly
// to p_i / sum(p_j) (stride-scheduling equivalence). Ties go to a
// rotating pointer, strict round robin.
type DRRScheduler struct {
	order   []string
	banks   map[string]float64
	pointer int
	tau     float64
}

// NewDRRScheduler creates a scheduler over a fixed task order.
func NewDRRScheduler(tasks []string, tau float64) *DRRScheduler {
	if tau <= 0 {
		tau = 1
	}
	banks := make(map[string]float64, len(tasks))
	for _, t := range tasks {
		banks[t] = 0
	}
	return &DRRScheduler{order: append([]string(nil), tasks...), banks: banks, tau: tau}
}

// Bank returns a task's current token bank.
func (s *DRRScheduler) Bank(task string) float64 { return s.banks[task] }

// Select tops up the banks and picks this step's winner. available and
// priorities are consulted per task; tasks missing from either are
// treated as unavailable. Returns ("", false) when no task qualifies.
func (s *DRRScheduler) Select(priorities map[string]float64, available map[string]bool) (string, bool) {
	var total float64
	for _, t := range s.order {
		if available[t] && priorities[t] > 0 {
			total += priorities[t]
		}
	}

	for _, t := range s.order {
		if !available[t] || priorities[t] <= 0 {
			s.banks[t] = 0
			continue
		}
		s.banks[t] += priorities[t] / total * s.tau
	}

	if total <= 0 {
		return "", false
	}

	// Argmax over candidates with a positive bank; ties resolved by the
	// first candidate at or after the rotating pointer.
	best := -1
	var bestBank float64
	n := len(s.order)
	for i := 0; i < n; i++ {
		idx := (s.pointer + i) % n
		t := s.order[idx]
		if !available[t] || priorities[t] <= 0 || s.banks[t] <= 0 {
			continue
		}
		if best == -1 || s.banks[t] > bestBank {
			best = idx
			bestBank = s.banks[t]
		}
	}
	if best == -1 {
		return "", false
	}
	s.pointer = (best + 1) % n
	return s.order[best], true
}

// Spend charges the winner's bank for a completed turn. A turn that
// did no work costs nothing.
func (s *DRRScheduler) Spend(task string, worked bool) {
	if worked {
		s.banks[task] -= s.tau
	}
}
