package agent

import "fmt"

// Mode is an agent's top-level lifecycle state. ACTIVE sub-modes are
// agent-specific (extraction modes, mission phases) and live on the
// concrete agent types.
type Mode string

const (
	ModeIdle      Mode = "IDLE"
	ModeActive    Mode = "ACTIVE"
	ModeThrottled Mode = "THROTTLED"
	ModeFault     Mode = "FAULT"
	ModeRetired   Mode = "RETIRED"
)

// Health tracks an agent's wear state.
type Health struct {
	AgeSteps     int64
	Wear         float64
	FaultCounter int
}

// Unit is the common lifecycle core embedded in every agent: identity,
// mode, health, and end-of-life handling. Mode transitions only happen
// at step boundaries through the owning sector.
type Unit struct {
	id       string
	mode     Mode
	health   Health
	lifetime int64
}

// NewUnit creates a unit in IDLE. lifetime <= 0 means no end-of-life.
func NewUnit(kind string, ordinal int, lifetime int64) Unit {
	return Unit{
		id:       fmt.Sprintf("%s-%d", kind, ordinal),
		mode:     ModeIdle,
		lifetime: lifetime,
	}
}

// ID returns the agent's unique id.
func (u *Unit) ID() string { return u.id }

// Mode returns the current lifecycle mode.
func (u *Unit) Mode() Mode { return u.mode }

// Health returns the current health counters.
func (u *Unit) Health() Health { return u.health }

// Available reports whether the agent can be scheduled this step.
func (u *Unit) Available() bool {
	return u.mode != ModeFault && u.mode != ModeRetired
}

// Tick ages the agent by one step and retires it at end-of-life.
// Retired agents are skipped by their sector from then on.
func (u *Unit) Tick() {
	if u.mode == ModeRetired {
		return
	}
	u.health.AgeSteps++
	if u.lifetime > 0 && u.health.AgeSteps >= u.lifetime {
		u.mode = ModeRetired
	}
}

// Fault moves the agent into FAULT until a maintenance reset.
func (u *Unit) Fault() {
	if u.mode == ModeRetired {
		return
	}
	u.mode = ModeFault
	u.health.FaultCounter++
}

// ResetFault returns a faulted agent to IDLE.
func (u *Unit) ResetFault() {
	if u.mode == ModeFault {
		u.mode = ModeIdle
	}
}

// setMode is used by concrete agents for their step-boundary
// transitions. Retirement is terminal.
func (u *Unit) setMode(m Mode) {
	if u.mode == ModeRetired {
		return
	}
	u.mode = m
}
