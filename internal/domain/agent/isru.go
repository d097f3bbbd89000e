package agent

import "github.com/proximalabs/proxima-go/internal/domain/kernel"

// OperationalMode is an ISRU task mode. The manufacturing scheduler
// assigns one mode per step to each idle ISRU unit.
type OperationalMode string

const (
	ModeIceExtraction      OperationalMode = "ICE_EXTRACTION"
	ModeRegolithExtraction OperationalMode = "REGOLITH_EXTRACTION"
	ModeHe3Extraction      OperationalMode = "HE3_EXTRACTION"
	ModeElectrolysis       OperationalMode = "ELECTROLYSIS"
	ModeMetalProcessing    OperationalMode = "METAL"
)

// Resource ids used across sectors.
const (
	ResourceWater      = "H2O_kg"
	ResourceRegolith   = "FeTiO3_kg"
	ResourceHe3        = "He3_kg"
	ResourceHydrogen   = "H2_kg"
	ResourceOxygen     = "O2_kg"
	ResourceMetal      = "Metal_kg"
	ResourceRocketFuel = "rocket_fuel_kg"
	ResourceShells     = "shells"
	ResourceScience    = "science_units"
)

// ISRUConfig holds the per-mode ratings of an in-situ resource
// utilization unit. Values come from component templates with
// sector-level overrides applied by the builder.
type ISRUConfig struct {
	Template                   string  `mapstructure:"template" json:"template,omitempty"`
	IceExtractionPowerKWh      float64 `mapstructure:"ice_extraction_power_kwh" json:"ice_extraction_power_kwh"`
	IceExtractionOutputKg      float64 `mapstructure:"ice_extraction_output_kg" json:"ice_extraction_output_kg"`
	RegolithExtractionPowerKWh float64 `mapstructure:"regolith_extraction_power_kwh" json:"regolith_extraction_power_kwh"`
	RegolithExtractionOutputKg float64 `mapstructure:"regolith_extraction_output_kg" json:"regolith_extraction_output_kg"`
	He3PowerKWh                float64 `mapstructure:"he3_extraction_power_kwh" json:"he3_extraction_power_kwh"`
	He3ThroughputTons          float64 `mapstructure:"he3_regolith_throughput_tons" json:"he3_regolith_throughput_tons"`
	He3MinPPB                  float64 `mapstructure:"he3_min_ppb" json:"he3_min_ppb"`
	He3ModePPB                 float64 `mapstructure:"he3_mode_ppb" json:"he3_mode_ppb"`
	He3MaxPPB                  float64 `mapstructure:"he3_max_ppb" json:"he3_max_ppb"`
	ElectrolysisPowerKWh       float64 `mapstructure:"electrolysis_power_kwh" json:"electrolysis_power_kwh"`
	ElectrolysisWaterKg        float64 `mapstructure:"electrolysis_water_kg" json:"electrolysis_water_kg"`
	MetalPowerKWh              float64 `mapstructure:"metal_power_kwh" json:"metal_power_kwh"`
	MetalRegolithKg            float64 `mapstructure:"metal_regolith_kg" json:"metal_regolith_kg"`
	MetalOutputKg              float64 `mapstructure:"metal_output_kg" json:"metal_output_kg"`
	Efficiency                 float64 `mapstructure:"efficiency" json:"efficiency"`
	LifetimeSteps              int64   `mapstructure:"lifetime_steps" json:"lifetime_steps"`
}

// ISRU is an extraction/processing unit. It is stateless between steps
// apart from its lifecycle core; the scheduler decides its mode anew
// each step.
type ISRU struct {
	Unit
	cfg ISRUConfig
}

// NewISRU creates an ISRU unit.
func NewISRU(ordinal int, cfg ISRUConfig) *ISRU {
	if cfg.Efficiency <= 0 {
		cfg.Efficiency = 0.9
	}
	return &ISRU{Unit: NewUnit("isru", ordinal, cfg.LifetimeSteps), cfg: cfg}
}

// Config returns the unit's ratings.
func (a *ISRU) Config() ISRUConfig { return a.cfg }

// PowerDemand returns the power needed to run mode for one step.
func (a *ISRU) PowerDemand(mode OperationalMode) float64 {
	switch mode {
	case ModeIceExtraction:
		return a.cfg.IceExtractionPowerKWh
	case ModeRegolithExtraction:
		return a.cfg.RegolithExtractionPowerKWh
	case ModeHe3Extraction:
		return a.cfg.He3PowerKWh
	case ModeElectrolysis:
		return a.cfg.ElectrolysisPowerKWh
	case ModeMetalProcessing:
		return a.cfg.MetalPowerKWh
	}
	return 0
}

// Inputs returns the stock requirements to run mode for one step.
func (a *ISRU) Inputs(mode OperationalMode) map[string]float64 {
	switch mode {
	case ModeElectrolysis:
		return map[string]float64{ResourceWater: a.cfg.ElectrolysisWaterKg}
	case ModeMetalProcessing:
		return map[string]float64{ResourceRegolith: a.cfg.MetalRegolithKg}
	}
	return nil
}

// Run executes mode for one step with the given power allocation,
// emitting the mode's produce/consume flows for sector onto the
// ledger. Returns false when the power allocation does not cover the
// mode's rating. He-3 yield is stochastic: a triangular concentration
// draw from the kernel PRNG.
func (a *ISRU) Run(mode OperationalMode, sector string, powerKWh float64, rng *kernel.Rand, ledger *kernel.Ledger) bool {
	if !a.Available() || powerKWh < a.PowerDemand(mode) {
		return false
	}

	switch mode {
	case ModeIceExtraction:
		ledger.Produce(sector, ResourceWater, a.cfg.IceExtractionOutputKg*a.cfg.Efficiency)
	case ModeRegolithExtraction:
		ledger.Produce(sector, ResourceRegolith, a.cfg.RegolithExtractionOutputKg*a.cfg.Efficiency)
	case ModeHe3Extraction:
		ppb := rng.Triangular(a.cfg.He3MinPPB, a.cfg.He3ModePPB, a.cfg.He3MaxPPB)
		yield := a.cfg.He3ThroughputTons * 1000 * ppb * 1e-9 * a.cfg.Efficiency
		ledger.Produce(sector, ResourceHe3, yield)
	case ModeElectrolysis:
		ledger.Consume(sector, ResourceWater, a.cfg.ElectrolysisWaterKg)
		// Water splits 1:8 hydrogen to oxygen by mass.
		ledger.Produce(sector, ResourceHydrogen, a.cfg.ElectrolysisWaterKg/9*a.cfg.Efficiency)
		ledger.Produce(sector, ResourceOxygen, a.cfg.ElectrolysisWaterKg*8/9*a.cfg.Efficiency)
	case ModeMetalProcessing:
		ledger.Consume(sector, ResourceRegolith, a.cfg.MetalRegolithKg)
		ledger.Produce(sector, ResourceMetal, a.cfg.MetalOutputKg*a.cfg.Efficiency)
	default:
		return false
	}

	a.setMode(ModeActive)
	return true
}
