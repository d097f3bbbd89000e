package config

// RunnerConfig holds the experiment runner configuration
type RunnerConfig struct {
	// ExperimentID selects the experiment document to run
	ExperimentID string `mapstructure:"experiment_id"`

	// UpdateRateMs paces the step loop; 0 runs unpaced
	UpdateRateMs int `mapstructure:"update_rate_ms" validate:"min=0"`

	// UpdateCycles caps the run length in steps; 0 means uncapped
	UpdateCycles int64 `mapstructure:"update_cycles" validate:"min=0"`

	// SnapshotEvery writes every Nth snapshot to the log
	SnapshotEvery int64 `mapstructure:"snapshot_every" validate:"min=0"`

	// ReadOnly disables log writes and command consumption
	ReadOnly bool `mapstructure:"read_only"`
}
