package world

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"

	"github.com/proximalabs/proxima-go/internal/domain/agent"
	"github.com/proximalabs/proxima-go/internal/domain/evaluation"
	"github.com/proximalabs/proxima-go/internal/domain/kernel"
	"github.com/proximalabs/proxima-go/internal/domain/policy"
	"github.com/proximalabs/proxima-go/internal/domain/sector"
)

// EnvironmentConfig holds environmental parameters shared across
// sectors.
type EnvironmentConfig struct {
	DistanceKm    float64 `mapstructure:"distance_km" json:"distance_km"`
	StepsPerMonth int64   `mapstructure:"steps_per_month" json:"steps_per_month"`
}

// EnergyDoc declares the energy sector and its fleet.
type EnergyDoc struct {
	Config     sector.EnergyConfig          `mapstructure:"config" json:"config"`
	Generators []agent.PowerGeneratorConfig `mapstructure:"generators" json:"generators" validate:"min=1,dive"`
	Storages   []agent.PowerStorageConfig   `mapstructure:"storages" json:"storages"`
}

// ManufacturingDoc declares the manufacturing sector and its fleet.
type ManufacturingDoc struct {
	Config sector.ManufacturingConfig `mapstructure:"config" json:"config"`
	Units  []agent.ISRUConfig         `mapstructure:"units" json:"units"`
}

// ConstructionDoc declares the construction sector and its fleet.
type ConstructionDoc struct {
	Config     sector.ConstructionConfig   `mapstructure:"config" json:"config"`
	Printers   []agent.PrintingRobotConfig `mapstructure:"printers" json:"printers"`
	Assemblers []agent.AssemblyRobotConfig `mapstructure:"assemblers" json:"assemblers"`
}

// TransportationDoc declares the transportation sector and its fleet.
type TransportationDoc struct {
	Config         sector.TransportationConfig `mapstructure:"config" json:"config"`
	Rockets        []agent.RocketConfig        `mapstructure:"rockets" json:"rockets"`
	FuelGenerators []agent.FuelGeneratorConfig `mapstructure:"fuel_generators" json:"fuel_generators"`
}

// ScienceDoc declares the science sector and its starting fleet.
type ScienceDoc struct {
	Config        sector.ScienceConfig `mapstructure:"config" json:"config"`
	InitialRovers int                  `mapstructure:"initial_rovers" json:"initial_rovers" validate:"gte=0"`
}

// PoliciesDoc declares the active built-in policies. A nil entry
// leaves that policy out of the registry.
type PoliciesDoc struct {
	DustThrottle  *policy.DustThrottleConfig  `mapstructure:"dust_throttle" json:"dust_throttle,omitempty"`
	ScienceGrowth *policy.ScienceGrowthConfig `mapstructure:"science_growth" json:"science_growth,omitempty"`
}

// Config is the complete world document the builder consumes. It is
// assembled by the configuration store from the environment, sector,
// agent, goal, and policy collections, with experiment overlays
// applied.
type Config struct {
	Seed       uint64 `mapstructure:"seed" json:"seed"`
	CommitMode string `mapstructure:"commit_mode" json:"commit_mode" validate:"omitempty,oneof=strict lenient"`

	Environment    EnvironmentConfig      `mapstructure:"environment" json:"environment"`
	Energy         EnergyDoc              `mapstructure:"energy" json:"energy"`
	Manufacturing  ManufacturingDoc       `mapstructure:"manufacturing" json:"manufacturing"`
	Construction   ConstructionDoc        `mapstructure:"construction" json:"construction"`
	Equipment      sector.EquipmentConfig `mapstructure:"equipment" json:"equipment"`
	Transportation TransportationDoc      `mapstructure:"transportation" json:"transportation"`
	Science        ScienceDoc             `mapstructure:"science" json:"science"`

	Metrics  []evaluation.MetricDef `mapstructure:"metrics" json:"metrics" validate:"dive"`
	Goals    []evaluation.Goal      `mapstructure:"goals" json:"goals" validate:"dive"`
	Policies PoliciesDoc            `mapstructure:"policies" json:"policies"`
}

// Overlay deep-merges an experiment override document onto a template
// world document. Objects merge key by key; scalars and arrays in the
// override replace the template's. The merge runs over the JSON forms,
// so partial overrides never need to restate whole sections.
func Overlay(template Config, override json.RawMessage) (Config, error) {
	if len(override) == 0 {
		return template, nil
	}

	baseRaw, err := json.Marshal(template)
	if err != nil {
		return Config{}, kernel.ConfigErrorf("marshal template: %v", err)
	}
	var base, over map[string]any
	if err := json.Unmarshal(baseRaw, &base); err != nil {
		return Config{}, kernel.ConfigErrorf("decode template: %v", err)
	}
	if err := json.Unmarshal(override, &over); err != nil {
		return Config{}, kernel.ConfigErrorf("decode override: %v", err)
	}

	mergedRaw, err := json.Marshal(mergeMaps(base, over))
	if err != nil {
		return Config{}, kernel.ConfigErrorf("merge: %v", err)
	}
	var merged Config
	if err := json.Unmarshal(mergedRaw, &merged); err != nil {
		return Config{}, kernel.ConfigErrorf("decode merged document: %v", err)
	}
	return merged, nil
}

func mergeMaps(base, over map[string]any) map[string]any {
	out := make(map[string]any, len(base))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		if bm, ok := out[k].(map[string]any); ok {
			if om, ok := v.(map[string]any); ok {
				out[k] = mergeMaps(bm, om)
				continue
			}
		}
		out[k] = v
	}
	return out
}

// Build validates a world document and assembles the running world
// from it. Validation failures are configuration errors, fatal before
// the first step.
func Build(cfg Config) (*World, error) {
	if err := validator.New().Struct(cfg); err != nil {
		return nil, kernel.ConfigErrorf("world document invalid: %v", err)
	}

	mode := kernel.CommitStrict
	if cfg.CommitMode == "lenient" {
		mode = kernel.CommitLenient
	}

	ctx := kernel.NewContext(cfg.Environment.StepsPerMonth)

	generators := make([]*agent.PowerGenerator, len(cfg.Energy.Generators))
	for i, c := range cfg.Energy.Generators {
		generators[i] = agent.NewPowerGenerator(i+1, c)
	}
	storages := make([]*agent.PowerStorage, len(cfg.Energy.Storages))
	for i, c := range cfg.Energy.Storages {
		storages[i] = agent.NewPowerStorage(i+1, c)
	}
	energy := sector.NewEnergySector(cfg.Energy.Config, generators, storages)

	isrus := make([]*agent.ISRU, len(cfg.Manufacturing.Units))
	for i, c := range cfg.Manufacturing.Units {
		isrus[i] = agent.NewISRU(i+1, c)
	}
	manufacturing := sector.NewManufacturingSector(ctx, cfg.Manufacturing.Config, isrus)

	printers := make([]*agent.PrintingRobot, len(cfg.Construction.Printers))
	for i, c := range cfg.Construction.Printers {
		printers[i] = agent.NewPrintingRobot(i+1, c)
	}
	assemblers := make([]*agent.AssemblyRobot, len(cfg.Construction.Assemblers))
	for i, c := range cfg.Construction.Assemblers {
		assemblers[i] = agent.NewAssemblyRobot(i+1, c)
	}
	construction := sector.NewConstructionSector(ctx, cfg.Construction.Config, printers, assemblers)

	equipment := sector.NewEquipmentSector(ctx, cfg.Equipment)

	transportCfg := cfg.Transportation.Config
	if transportCfg.DistanceKm <= 0 {
		transportCfg.DistanceKm = cfg.Environment.DistanceKm
	}
	rockets := make([]*agent.Rocket, len(cfg.Transportation.Rockets))
	for i, c := range cfg.Transportation.Rockets {
		rockets[i] = agent.NewRocket(i+1, c)
	}
	fuelGens := make([]*agent.FuelGenerator, len(cfg.Transportation.FuelGenerators))
	for i, c := range cfg.Transportation.FuelGenerators {
		fuelGens[i] = agent.NewFuelGenerator(i+1, c)
	}
	transportation := sector.NewTransportationSector(ctx, transportCfg, rockets, fuelGens)

	rovers := make([]*agent.ScienceRover, cfg.Science.InitialRovers)
	for i := range rovers {
		rovers[i] = agent.NewScienceRover(i+1, cfg.Science.Config.RoverTemplate)
	}
	science := sector.NewScienceSector(ctx, cfg.Science.Config, rovers)

	eval := evaluation.NewEngine(cfg.Metrics, cfg.Goals)

	policies := policy.NewEngine(ctx.Errors)
	if cfg.Policies.DustThrottle != nil {
		policies.Register(policy.NewDustThrottle(*cfg.Policies.DustThrottle))
	}
	if cfg.Policies.ScienceGrowth != nil {
		policies.Register(policy.NewScienceGrowth(*cfg.Policies.ScienceGrowth))
	}

	return NewWorld(ctx, cfg.Seed, mode, energy,
		[]sector.Sector{manufacturing, construction, equipment, transportation, science},
		eval, policies), nil
}
