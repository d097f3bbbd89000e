package agent

// PrintingRobotConfig holds a 3D-printing robot's ratings.
type PrintingRobotConfig struct {
	Template            string  `mapstructure:"template" json:"template,omitempty"`
	MaxPowerUsageKWh    float64 `mapstructure:"max_power_usage_kwh" json:"max_power_usage_kwh"`
	ProcessingTimeSteps int     `mapstructure:"processing_time_steps" json:"processing_time_steps"`
	RegolithUsageKg     float64 `mapstructure:"regolith_usage_kg" json:"regolith_usage_kg"`
	Efficiency          float64 `mapstructure:"efficiency" json:"efficiency"`
	LifetimeSteps       int64   `mapstructure:"lifetime_steps" json:"lifetime_steps"`
}

// PrintResult reports what a printing step produced.
type PrintResult struct {
	ShellCompleted     bool
	RegolithConsumedKg float64
}

// PrintingRobot prints structural shells from regolith. A print task
// runs for ProcessingTimeSteps steps, requiring power every step;
// regolith is consumed at completion, together with the shell credit.
type PrintingRobot struct {
	Unit
	cfg            PrintingRobotConfig
	stepsRemaining int
}

// NewPrintingRobot creates an idle printing robot.
func NewPrintingRobot(ordinal int, cfg PrintingRobotConfig) *PrintingRobot {
	if cfg.ProcessingTimeSteps <= 0 {
		cfg.ProcessingTimeSteps = 80
	}
	return &PrintingRobot{Unit: NewUnit("printer", ordinal, cfg.LifetimeSteps), cfg: cfg}
}

// Config returns the robot's ratings.
func (r *PrintingRobot) Config() PrintingRobotConfig { return r.cfg }

// PowerDemand returns the power needed this step.
func (r *PrintingRobot) PowerDemand() float64 {
	if r.Mode() == ModeActive {
		return r.cfg.MaxPowerUsageKWh
	}
	return 0
}

// StartPrint begins a shell print if the robot is idle.
func (r *PrintingRobot) StartPrint() bool {
	if r.Mode() != ModeIdle {
		return false
	}
	r.setMode(ModeActive)
	r.stepsRemaining = r.cfg.ProcessingTimeSteps
	return true
}

// Step advances an in-progress print. powered reports whether the
// sector's allocation covered this robot; an unpowered step stalls the
// task without losing progress.
func (r *PrintingRobot) Step(powered bool) PrintResult {
	if r.Mode() != ModeActive || !powered {
		return PrintResult{}
	}
	r.stepsRemaining--
	if r.stepsRemaining > 0 {
		return PrintResult{}
	}
	r.setMode(ModeIdle)
	r.stepsRemaining = 0
	return PrintResult{ShellCompleted: true, RegolithConsumedKg: r.cfg.RegolithUsageKg}
}
