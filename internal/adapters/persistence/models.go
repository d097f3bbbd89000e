package persistence

import "time"

// WorldTemplateModel represents the world_templates table. The world
// document is stored as one JSON blob; structure lives in the domain.
type WorldTemplateModel struct {
	ID        string    `gorm:"column:id;primaryKey;not null"`
	Document  string    `gorm:"column:document;type:text;not null"` // JSON as text
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (WorldTemplateModel) TableName() string {
	return "world_templates"
}

// ComponentTemplateModel represents the component_templates table:
// agent-type defaults the builder overlays under sector configs
type ComponentTemplateModel struct {
	ID        string    `gorm:"column:id;primaryKey;not null"`
	Document  string    `gorm:"column:document;type:text;not null"` // JSON as text
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (ComponentTemplateModel) TableName() string {
	return "component_templates"
}

// ExperimentModel represents the experiments table
type ExperimentModel struct {
	ID         string    `gorm:"column:id;primaryKey;not null"`
	Name       string    `gorm:"column:name"`
	TemplateID string    `gorm:"column:template_id;not null"`
	Overrides  string    `gorm:"column:overrides;type:text"` // JSON as text
	MaxSteps   int64     `gorm:"column:max_steps;default:0"`
	CreatedAt  time.Time `gorm:"column:created_at;not null"`
}

func (ExperimentModel) TableName() string {
	return "experiments"
}

// SimulationLogModel represents the simulation_log table, one row per
// persisted step snapshot
type SimulationLogModel struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ExperimentID string    `gorm:"column:experiment_id;index:idx_log_experiment_step;not null"`
	Step         int64     `gorm:"column:step;index:idx_log_experiment_step;not null"`
	RunnerState  string    `gorm:"column:runner_state;not null"`
	Document     string    `gorm:"column:document;type:text;not null"` // snapshot JSON as text
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
}

func (SimulationLogModel) TableName() string {
	return "simulation_log"
}

// CommandModel represents the commands table the dashboard deposits
// control commands into
type CommandModel struct {
	ID           string    `gorm:"column:id;primaryKey;not null"`
	ExperimentID string    `gorm:"column:experiment_id;index;not null"`
	Kind         string    `gorm:"column:kind;not null"`
	Payload      string    `gorm:"column:payload;type:text"` // JSON as text
	Timestamp    time.Time `gorm:"column:ts;not null"`
	Applied      bool      `gorm:"column:applied;not null;default:false"`
}

func (CommandModel) TableName() string {
	return "commands"
}
