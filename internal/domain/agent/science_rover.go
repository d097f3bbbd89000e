package agent

// ScienceRoverConfig holds a science rover's ratings.
type ScienceRoverConfig struct {
	Template           string  `mapstructure:"template" json:"template,omitempty"`
	PowerUsageKWh      float64 `mapstructure:"power_usage_kwh" json:"power_usage_kwh"`
	ScienceGeneration  float64 `mapstructure:"science_generation" json:"science_generation"`
	BatteryCapacityKWh float64 `mapstructure:"battery_capacity_kwh" json:"battery_capacity_kwh"`
	LifetimeSteps      int64   `mapstructure:"lifetime_steps" json:"lifetime_steps"`
}

// RoverResult reports one rover step.
type RoverResult struct {
	GridPowerDrawnKWh float64
	ScienceGenerated  float64
}

// ScienceRover either operates on battery, producing science units, or
// charges from the grid. The battery must cover one step of operation
// before the rover works.
type ScienceRover struct {
	Unit
	cfg        ScienceRoverConfig
	batteryKWh float64
}

// NewScienceRover creates a fully charged rover.
func NewScienceRover(ordinal int, cfg ScienceRoverConfig) *ScienceRover {
	if cfg.BatteryCapacityKWh <= 0 {
		cfg.BatteryCapacityKWh = 20
	}
	return &ScienceRover{
		Unit:       NewUnit("rover", ordinal, cfg.LifetimeSteps),
		cfg:        cfg,
		batteryKWh: cfg.BatteryCapacityKWh,
	}
}

// Config returns the rover's ratings.
func (r *ScienceRover) Config() ScienceRoverConfig { return r.cfg }

// BatteryKWh returns the current battery level.
func (r *ScienceRover) BatteryKWh() float64 { return r.batteryKWh }

// NeedsCharge reports whether the battery cannot cover one operating step.
func (r *ScienceRover) NeedsCharge() bool { return r.batteryKWh < r.cfg.PowerUsageKWh }

// PowerDemand returns the grid power the rover would like this step.
func (r *ScienceRover) PowerDemand() float64 {
	if r.NeedsCharge() {
		return r.cfg.BatteryCapacityKWh - r.batteryKWh
	}
	return 0
}

// Step runs the operate-or-charge cycle with the given grid allocation.
func (r *ScienceRover) Step(gridPowerKWh float64) RoverResult {
	if !r.Available() {
		return RoverResult{}
	}

	if r.NeedsCharge() {
		charge := min(r.cfg.BatteryCapacityKWh-r.batteryKWh, gridPowerKWh)
		if charge > 0 {
			r.batteryKWh += charge
		}
		r.setMode(ModeIdle)
		return RoverResult{GridPowerDrawnKWh: charge}
	}

	r.batteryKWh -= r.cfg.PowerUsageKWh
	r.setMode(ModeActive)
	return RoverResult{ScienceGenerated: r.cfg.ScienceGeneration}
}
