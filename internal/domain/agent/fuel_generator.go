package agent

// FuelGeneratorConfig holds a He-3 fusion fuel plant's ratings.
type FuelGeneratorConfig struct {
	Template        string  `mapstructure:"template" json:"template,omitempty"`
	Efficiency      float64 `mapstructure:"efficiency" json:"efficiency"`
	ThermalGWhPerKg float64 `mapstructure:"thermal_gwh_per_kg" json:"thermal_gwh_per_kg"`
	KWhPerKgProp    float64 `mapstructure:"kwh_per_kg_prop" json:"kwh_per_kg_prop"`
	He3KgPerStep    float64 `mapstructure:"he3_kg_per_step" json:"he3_kg_per_step"`
	LifetimeSteps   int64   `mapstructure:"lifetime_steps" json:"lifetime_steps"`
}

// FuelGenerator converts He-3 into rocket propellant. Each step it
// processes up to He3KgPerStep of the helium made available to it.
type FuelGenerator struct {
	Unit
	cfg FuelGeneratorConfig
}

// NewFuelGenerator creates a fuel generator.
func NewFuelGenerator(ordinal int, cfg FuelGeneratorConfig) *FuelGenerator {
	if cfg.ThermalGWhPerKg <= 0 {
		cfg.ThermalGWhPerKg = 163.489
	}
	if cfg.KWhPerKgProp <= 0 {
		cfg.KWhPerKgProp = 50.0
	}
	if cfg.He3KgPerStep <= 0 {
		cfg.He3KgPerStep = 5.0
	}
	if cfg.Efficiency <= 0 {
		cfg.Efficiency = 0.025
	}
	return &FuelGenerator{Unit: NewUnit("fuelgen", ordinal, cfg.LifetimeSteps), cfg: cfg}
}

// Config returns the generator's ratings.
func (g *FuelGenerator) Config() FuelGeneratorConfig { return g.cfg }

// Step processes available He-3 into propellant:
//
//	kWh = he3 * thermalGWhPerKg * 1e6 * efficiency
//	prop = kWh / kWhPerKgProp
//
// Returns the He-3 consumed and the propellant produced.
func (g *FuelGenerator) Step(availableHe3Kg float64) (he3ConsumedKg, propGeneratedKg float64) {
	if !g.Available() || availableHe3Kg <= 0 {
		return 0, 0
	}
	he3ConsumedKg = min(g.cfg.He3KgPerStep, availableHe3Kg)
	kwhAvailable := he3ConsumedKg * g.cfg.ThermalGWhPerKg * 1e6 * g.cfg.Efficiency
	propGeneratedKg = kwhAvailable / g.cfg.KWhPerKgProp
	return he3ConsumedKg, propGeneratedKg
}
