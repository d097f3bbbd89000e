package agent

// PowerGeneratorConfig holds a generator's ratings.
type PowerGeneratorConfig struct {
	Template      string  `mapstructure:"template" json:"template,omitempty"`
	MaxOutputKWh  float64 `mapstructure:"max_output_kwh" json:"max_output_kwh"`
	Efficiency    float64 `mapstructure:"efficiency" json:"efficiency"`
	LifetimeSteps int64   `mapstructure:"lifetime_steps" json:"lifetime_steps"`
}

// PowerGenerator produces up to its rated output per step, generating
// only what is asked of it.
type PowerGenerator struct {
	Unit
	cfg PowerGeneratorConfig
}

// NewPowerGenerator creates a power generator.
func NewPowerGenerator(ordinal int, cfg PowerGeneratorConfig) *PowerGenerator {
	if cfg.Efficiency <= 0 {
		cfg.Efficiency = 1.0
	}
	return &PowerGenerator{Unit: NewUnit("generator", ordinal, cfg.LifetimeSteps), cfg: cfg}
}

// Generate produces up to requestedKWh, capped by the rated output.
func (g *PowerGenerator) Generate(requestedKWh float64) float64 {
	if !g.Available() || requestedKWh <= 0 {
		return 0
	}
	out := min(requestedKWh, g.cfg.MaxOutputKWh*g.cfg.Efficiency)
	return out
}

// PowerStorageConfig holds a battery bank's ratings.
type PowerStorageConfig struct {
	Template         string  `mapstructure:"template" json:"template,omitempty"`
	CapacityKWh      float64 `mapstructure:"capacity_kwh" json:"capacity_kwh"`
	InitialChargeKWh float64 `mapstructure:"initial_charge_kwh" json:"initial_charge_kwh"`
	ChargeEfficiency float64 `mapstructure:"charge_efficiency" json:"charge_efficiency"`
	LifetimeSteps    int64   `mapstructure:"lifetime_steps" json:"lifetime_steps"`
}

// PowerStorage is a battery bank absorbing surplus generation and
// covering shortfalls.
type PowerStorage struct {
	Unit
	cfg       PowerStorageConfig
	chargeKWh float64
}

// NewPowerStorage creates a battery bank at its initial charge.
func NewPowerStorage(ordinal int, cfg PowerStorageConfig) *PowerStorage {
	if cfg.ChargeEfficiency <= 0 || cfg.ChargeEfficiency > 1 {
		cfg.ChargeEfficiency = 0.95
	}
	charge := min(cfg.InitialChargeKWh, cfg.CapacityKWh)
	return &PowerStorage{Unit: NewUnit("storage", ordinal, cfg.LifetimeSteps), cfg: cfg, chargeKWh: charge}
}

// ChargeLevelKWh returns the stored energy.
func (s *PowerStorage) ChargeLevelKWh() float64 { return s.chargeKWh }

// CapacityKWh returns the bank's capacity.
func (s *PowerStorage) CapacityKWh() float64 { return s.cfg.CapacityKWh }

// Headroom returns the energy the bank can still absorb.
func (s *PowerStorage) Headroom() float64 { return s.cfg.CapacityKWh - s.chargeKWh }

// Discharge draws up to requestedKWh from the bank, returning what it
// actually supplied.
func (s *PowerStorage) Discharge(requestedKWh float64) float64 {
	if !s.Available() || requestedKWh <= 0 {
		return 0
	}
	out := min(requestedKWh, s.chargeKWh)
	s.chargeKWh -= out
	return out
}

// Charge absorbs up to offeredKWh of surplus, returning the input
// power consumed (losses included).
func (s *PowerStorage) Charge(offeredKWh float64) float64 {
	if !s.Available() || offeredKWh <= 0 {
		return 0
	}
	consumed := min(offeredKWh, s.Headroom()/s.cfg.ChargeEfficiency)
	s.chargeKWh += consumed * s.cfg.ChargeEfficiency
	if s.chargeKWh > s.cfg.CapacityKWh {
		s.chargeKWh = s.cfg.CapacityKWh
	}
	return consumed
}
