package agent

import (
	"math"

	"github.com/proximalabs/proxima-go/internal/domain/kernel"
)

// RocketPhase is a rocket mission phase.
type RocketPhase string

const (
	PhaseIdle     RocketPhase = "IDLE"
	PhaseOutbound RocketPhase = "OUTBOUND"
	PhaseLoading  RocketPhase = "LOADING"
	PhaseInbound  RocketPhase = "INBOUND"
)

// RocketConfig holds a rocket's physical characteristics.
type RocketConfig struct {
	Template           string  `mapstructure:"template" json:"template,omitempty"`
	PropKgPerPayloadKg float64 `mapstructure:"prop_kg_per_payload_kg" json:"prop_kg_per_payload_kg"`
	CarryingCapacityKg float64 `mapstructure:"carrying_capacity_kg" json:"carrying_capacity_kg"`
	CruiseSpeedKmPerHr float64 `mapstructure:"cruise_speed_km_h" json:"cruise_speed_km_h"`
	InitialLocation    string  `mapstructure:"initial_location" json:"initial_location"`
	DustPerLaunch      float64 `mapstructure:"dust_per_launch" json:"dust_per_launch"`
	LifetimeSteps      int64   `mapstructure:"lifetime_steps" json:"lifetime_steps"`
}

// mission is a committed round trip. k counts down steps within the
// current phase.
type mission struct {
	origin          string
	destination     string
	outboundPayload map[string]float64
	returnPayload   map[string]float64
	requester       string
	phase           RocketPhase
	etaSteps        int
	oneWaySteps     int
	loadingSteps    int
	launchStep      bool
}

// Rocket is a reusable transport vehicle cycling through
// IDLE -> OUTBOUND -> LOADING -> INBOUND -> IDLE. It publishes
// payload_delivered at both arrivals; delivery is fire-and-forget.
type Rocket struct {
	Unit
	cfg      RocketConfig
	location string
	mission  *mission
}

// NewRocket creates an idle rocket at its configured location.
func NewRocket(ordinal int, cfg RocketConfig) *Rocket {
	loc := cfg.InitialLocation
	if loc == "" {
		loc = kernel.LocationEarth
	}
	return &Rocket{Unit: NewUnit("rocket", ordinal, cfg.LifetimeSteps), cfg: cfg, location: loc}
}

// Config returns the rocket's characteristics.
func (r *Rocket) Config() RocketConfig { return r.cfg }

// Phase returns the current mission phase.
func (r *Rocket) Phase() RocketPhase {
	if r.mission == nil {
		return PhaseIdle
	}
	return r.mission.phase
}

// Location returns where the rocket currently is (or last was).
func (r *Rocket) Location() string { return r.location }

// IsAvailable reports whether the rocket can take a mission.
func (r *Rocket) IsAvailable() bool { return r.Available() && r.mission == nil }

// PlanRoundTrip computes the propellant and one-way step count for a
// round trip, without committing anything. Returns (0, 0) when either
// payload leg exceeds capacity.
func (r *Rocket) PlanRoundTrip(outboundKg, returnKg, distanceKm float64) (propellantKg float64, oneWaySteps int) {
	if outboundKg > r.cfg.CarryingCapacityKg || returnKg > r.cfg.CarryingCapacityKg {
		return 0, 0
	}
	propellantKg = (outboundKg + returnKg) * r.cfg.PropKgPerPayloadKg
	if r.cfg.CruiseSpeedKmPerHr > 0 {
		oneWaySteps = int(math.Ceil(distanceKm / r.cfg.CruiseSpeedKmPerHr))
	}
	return propellantKg, oneWaySteps
}

// CommitRoundTrip locks the rocket into a mission. Fuel must already
// have been deducted by the transportation sector. The launch step is
// not counted against the outbound leg.
func (r *Rocket) CommitRoundTrip(origin, destination string, outbound, ret map[string]float64, oneWaySteps, loadingSteps int, requester string) bool {
	if !r.IsAvailable() {
		return false
	}
	r.setMode(ModeActive)
	r.mission = &mission{
		origin:          origin,
		destination:     destination,
		outboundPayload: outbound,
		returnPayload:   ret,
		requester:       requester,
		phase:           PhaseOutbound,
		etaSteps:        oneWaySteps,
		oneWaySteps:     oneWaySteps,
		loadingSteps:    loadingSteps,
		launchStep:      true,
	}
	return true
}

// Step advances the mission state machine by one step, publishing
// payload_delivered on each arrival.
func (r *Rocket) Step(bus *kernel.EventBus) {
	m := r.mission
	if m == nil {
		return
	}
	if m.launchStep {
		m.launchStep = false
		return
	}

	m.etaSteps--
	if m.etaSteps > 0 {
		return
	}

	switch m.phase {
	case PhaseOutbound:
		r.location = m.destination
		m.phase = PhaseLoading
		m.etaSteps = m.loadingSteps
		bus.Publish(kernel.TopicPayloadDelivered, kernel.PayloadDelivered{
			Requester:   m.requester,
			Destination: m.destination,
			Payload:     m.outboundPayload,
		})
	case PhaseLoading:
		m.phase = PhaseInbound
		m.etaSteps = m.oneWaySteps
	case PhaseInbound:
		r.location = m.origin
		bus.Publish(kernel.TopicPayloadDelivered, kernel.PayloadDelivered{
			Requester:   m.requester,
			Destination: m.origin,
			Payload:     m.returnPayload,
		})
		r.mission = nil
		r.setMode(ModeIdle)
	}
}
