package policy

import (
	"github.com/proximalabs/proxima-go/internal/domain/evaluation"
	"github.com/proximalabs/proxima-go/internal/domain/sector"
)

// DustThrottleID identifies the dust-coverage throttle policy.
const DustThrottleID = "PLCY-DUST-THROTTLE"

// DustThrottleConfig parameterizes the dust-coverage throttle.
type DustThrottleConfig struct {
	// MetricID names the dust metric the policy reads.
	MetricID string `mapstructure:"metric_id" json:"metric_id" validate:"required"`

	// DustTarget is the dust level at which throttling saturates.
	DustTarget float64 `mapstructure:"dust_target" json:"dust_target" validate:"gt=0"`

	// StartRatio places the onset of throttling at DustTarget * StartRatio.
	StartRatio float64 `mapstructure:"start_ratio" json:"start_ratio"`

	// MaxThrottle is the throttle applied at or above DustTarget.
	MaxThrottle float64 `mapstructure:"max_throttle" json:"max_throttle"`

	// Sectors lists the throttled sectors.
	Sectors []string `mapstructure:"sectors" json:"sectors"`
}

// DustThrottle ramps a throttle over its sectors as regolith dust
// approaches the target level. The mapping is pure: the same dust level
// always yields the same throttle, and dropping back below the onset
// releases the throttle entirely.
type DustThrottle struct {
	cfg     DustThrottleConfig
	enabled bool
}

// NewDustThrottle creates the policy with defaults filled in.
func NewDustThrottle(cfg DustThrottleConfig) *DustThrottle {
	if cfg.StartRatio <= 0 {
		cfg.StartRatio = 0.7
	}
	if cfg.MaxThrottle <= 0 {
		cfg.MaxThrottle = 0.8
	}
	if len(cfg.Sectors) == 0 {
		cfg.Sectors = []string{sector.Science, sector.Manufacturing}
	}
	return &DustThrottle{cfg: cfg, enabled: true}
}

func (p *DustThrottle) ID() string        { return DustThrottleID }
func (p *DustThrottle) Name() string      { return "dust-coverage throttle" }
func (p *DustThrottle) Enabled() bool     { return p.enabled }
func (p *DustThrottle) SetEnabled(v bool) { p.enabled = v }

// Throttle maps a dust level to a throttle factor.
func (p *DustThrottle) Throttle(dust float64) float64 {
	start := p.cfg.DustTarget * p.cfg.StartRatio
	switch {
	case dust <= start:
		return 0
	case dust >= p.cfg.DustTarget:
		return p.cfg.MaxThrottle
	default:
		return p.cfg.MaxThrottle * (dust - start) / (p.cfg.DustTarget - start)
	}
}

// Apply reads the dust metric and sets the throttle on every
// configured sector.
func (p *DustThrottle) Apply(w WorldMutator, res evaluation.Result) ([]Effect, error) {
	theta := p.Throttle(res.Metrics[p.cfg.MetricID])
	effects := make([]Effect, 0, len(p.cfg.Sectors))
	for _, id := range p.cfg.Sectors {
		if !w.SetThrottleFactor(id, theta) {
			continue
		}
		effects = append(effects, Effect{
			PolicyID: p.ID(),
			Action:   "set_throttle_factor",
			Target:   id,
			Value:    theta,
		})
	}
	return effects, nil
}
