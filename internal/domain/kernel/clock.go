package kernel

// DefaultStepsPerMonth maps policy-level "months" onto the step clock.
// One step is one hour; a month is 30 days.
const DefaultStepsPerMonth = 720

// Clock is the integer step clock. A step is the atomic unit of
// simulation time; nothing observes a partially executed step.
type Clock struct {
	step          int64
	stepsPerMonth int64
}

// NewClock creates a clock starting at step 0.
func NewClock(stepsPerMonth int64) *Clock {
	if stepsPerMonth <= 0 {
		stepsPerMonth = DefaultStepsPerMonth
	}
	return &Clock{stepsPerMonth: stepsPerMonth}
}

// Step returns the current step number.
func (c *Clock) Step() int64 { return c.step }

// StepsPerMonth returns the step-to-month mapping in effect.
func (c *Clock) StepsPerMonth() int64 { return c.stepsPerMonth }

// Month returns the current month index (step / stepsPerMonth).
func (c *Clock) Month() int64 { return c.step / c.stepsPerMonth }

// IsMonthTick reports whether the current step is the first step of a month.
// Growth policies only re-plan on month ticks.
func (c *Clock) IsMonthTick() bool { return c.step%c.stepsPerMonth == 0 }

// Advance moves the clock forward by one step.
func (c *Clock) Advance() { c.step++ }
