package agent

// AssemblyRobotConfig holds an assembly robot's ratings.
type AssemblyRobotConfig struct {
	Template          string  `mapstructure:"template" json:"template,omitempty"`
	MaxPowerUsageKWh  float64 `mapstructure:"max_power_usage_kwh" json:"max_power_usage_kwh"`
	AssemblyTimeSteps int     `mapstructure:"assembly_time_steps" json:"assembly_time_steps"`
	Efficiency        float64 `mapstructure:"efficiency" json:"efficiency"`
	LifetimeSteps     int64   `mapstructure:"lifetime_steps" json:"lifetime_steps"`
}

// AssemblyRobot assembles base modules from a shell plus specialized
// equipment. The construction sector reserves the inputs before
// StartAssembly and publishes module_completed when Step reports done.
type AssemblyRobot struct {
	Unit
	cfg            AssemblyRobotConfig
	stepsRemaining int
	currentModule  string
}

// NewAssemblyRobot creates an idle assembly robot.
func NewAssemblyRobot(ordinal int, cfg AssemblyRobotConfig) *AssemblyRobot {
	if cfg.AssemblyTimeSteps <= 0 {
		cfg.AssemblyTimeSteps = 60
	}
	return &AssemblyRobot{Unit: NewUnit("assembler", ordinal, cfg.LifetimeSteps), cfg: cfg}
}

// Config returns the robot's ratings.
func (r *AssemblyRobot) Config() AssemblyRobotConfig { return r.cfg }

// PowerDemand returns the power needed this step.
func (r *AssemblyRobot) PowerDemand() float64 {
	if r.Mode() == ModeActive {
		return r.cfg.MaxPowerUsageKWh
	}
	return 0
}

// CurrentModule returns the module under assembly, if any.
func (r *AssemblyRobot) CurrentModule() string { return r.currentModule }

// StartAssembly begins assembling moduleID if the robot is idle.
func (r *AssemblyRobot) StartAssembly(moduleID string) bool {
	if r.Mode() != ModeIdle {
		return false
	}
	r.setMode(ModeActive)
	r.currentModule = moduleID
	r.stepsRemaining = r.cfg.AssemblyTimeSteps
	return true
}

// Step advances an in-progress assembly. Returns the completed module
// id when the task finishes, otherwise "".
func (r *AssemblyRobot) Step(powered bool) string {
	if r.Mode() != ModeActive || !powered {
		return ""
	}
	r.stepsRemaining--
	if r.stepsRemaining > 0 {
		return ""
	}
	done := r.currentModule
	r.setMode(ModeIdle)
	r.currentModule = ""
	r.stepsRemaining = 0
	return done
}
