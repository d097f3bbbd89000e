package kernel

// External is the pseudo-sector for produced and consumed resources.
// Production flows credit a sector from External; consumption flows
// debit a sector toward External.
const External = ""

// StockFlow is an atomic resource movement collected during a step.
// Amount is always positive: it debits Source (unless External) and
// credits Dest (unless External).
type StockFlow struct {
	Source   string
	Dest     string
	Resource string
	Amount   float64
}

// CommitMode selects how the ledger treats an overdrafting batch.
type CommitMode int

const (
	// CommitStrict rejects the entire step's batch on any overdraft.
	CommitStrict CommitMode = iota
	// CommitLenient drops only the offending flow groups.
	CommitLenient
)

// Ledger accumulates stock flows during a step and applies them
// together at the commit phase. Debits are validated against the
// stocks as they stood at the start of commit, so a producer and a
// consumer of the same resource in the same step never race.
type Ledger struct {
	pending []StockFlow
	errs    *ErrorLog
}

// NewLedger creates an empty ledger. Lenient-mode drops are recorded
// on errs.
func NewLedger(errs *ErrorLog) *Ledger {
	return &Ledger{errs: errs}
}

// Transfer records a movement of qty between two sectors.
func (l *Ledger) Transfer(source, dest, resource string, qty float64) {
	if qty <= 0 {
		return
	}
	l.pending = append(l.pending, StockFlow{Source: source, Dest: dest, Resource: resource, Amount: qty})
}

// Produce records creation of qty in a sector (credit only).
func (l *Ledger) Produce(sector, resource string, qty float64) {
	l.Transfer(External, sector, resource, qty)
}

// Consume records destruction of qty from a sector (debit only).
func (l *Ledger) Consume(sector, resource string, qty float64) {
	l.Transfer(sector, External, resource, qty)
}

// Pending returns the flows collected so far this step.
func (l *Ledger) Pending() []StockFlow { return l.pending }

// Commit applies the collected flows to the sector stocks resolved by
// lookup. Flows are grouped by (source, dest, resource); the total
// debit against each sector stock must fit within its pre-commit
// level. In strict mode any overdraft aborts the whole batch and the
// error is returned. In lenient mode overdrafting groups are dropped,
// recorded on the error log, and the rest commit.
func (l *Ledger) Commit(lookup func(sector string) *StockSet, mode CommitMode) error {
	batch := l.pending
	l.pending = nil
	if len(batch) == 0 {
		return nil
	}

	groups := groupFlows(batch)

	type key struct{ sector, resource string }
	debits := make(map[key]float64)
	kept := make([]StockFlow, 0, len(groups))
	var overdraft *CommitOverdraftError

	for _, g := range groups {
		if g.Source == External {
			kept = append(kept, g)
			continue
		}
		stocks := lookup(g.Source)
		if stocks == nil {
			l.errs.Record(ConfigErrorf("unknown sector %q in stock flow", g.Source))
			continue
		}
		k := key{g.Source, g.Resource}
		if debits[k]+g.Amount > stocks.Level(g.Resource) {
			err := &CommitOverdraftError{
				Sector:   g.Source,
				Resource: g.Resource,
				Level:    stocks.Level(g.Resource),
				Debit:    debits[k] + g.Amount,
			}
			if mode == CommitStrict {
				return err
			}
			overdraft = err
			l.errs.Record(err)
			continue
		}
		debits[k] += g.Amount
		kept = append(kept, g)
	}

	for _, g := range kept {
		if g.Source != External {
			if stocks := lookup(g.Source); stocks != nil {
				stocks.apply(g.Resource, -g.Amount)
			}
		}
		if g.Dest != External {
			if stocks := lookup(g.Dest); stocks != nil {
				stocks.apply(g.Resource, g.Amount)
			}
		}
	}

	// Lenient commits report nothing fatal; drops live on the error log.
	_ = overdraft
	return nil
}

// groupFlows merges flows sharing (source, dest, resource), preserving
// first-appearance order so commits stay deterministic.
func groupFlows(batch []StockFlow) []StockFlow {
	type key struct{ source, dest, resource string }
	index := make(map[key]int)
	groups := make([]StockFlow, 0, len(batch))
	for _, f := range batch {
		k := key{f.Source, f.Dest, f.Resource}
		if i, ok := index[k]; ok {
			groups[i].Amount += f.Amount
			continue
		}
		index[k] = len(groups)
		groups = append(groups, f)
	}
	return groups
}
