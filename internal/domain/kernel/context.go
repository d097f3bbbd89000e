package kernel

// Context bundles the shared kernel services handed to every sector at
// construction: the event bus, the stock-flow ledger, the step clock,
// and the step error log. There are no singletons; the world owns one
// Context and threads it explicitly.
type Context struct {
	Bus    *EventBus
	Ledger *Ledger
	Clock  *Clock
	Errors *ErrorLog
}

// NewContext wires a fresh kernel context.
func NewContext(stepsPerMonth int64) *Context {
	errs := NewErrorLog()
	return &Context{
		Bus:    NewEventBus(errs),
		Ledger: NewLedger(errs),
		Clock:  NewClock(stepsPerMonth),
		Errors: errs,
	}
}
