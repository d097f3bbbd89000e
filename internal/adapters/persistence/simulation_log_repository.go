package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/proximalabs/proxima-go/internal/application/common"
	"github.com/proximalabs/proxima-go/internal/domain/world"
)

// GormSimulationLogRepository implements LogSink on the simulation_log
// table and serves dashboard reads of persisted snapshots
type GormSimulationLogRepository struct {
	db *gorm.DB
}

// NewGormSimulationLogRepository creates a new GORM-based log repository
func NewGormSimulationLogRepository(db *gorm.DB) *GormSimulationLogRepository {
	return &GormSimulationLogRepository{db: db}
}

var _ common.LogSink = (*GormSimulationLogRepository)(nil)

// Write appends one step snapshot
func (r *GormSimulationLogRepository) Write(ctx context.Context, experimentID string, snap *world.Snapshot, runnerState string) error {
	doc, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	model := SimulationLogModel{
		ExperimentID: experimentID,
		Step:         snap.Step,
		RunnerState:  runnerState,
		Document:     string(doc),
		CreatedAt:    time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// Latest returns the most recent snapshot for an experiment, or nil
// when none has been written
func (r *GormSimulationLogRepository) Latest(ctx context.Context, experimentID string) (*world.Snapshot, error) {
	var model SimulationLogModel
	err := r.db.WithContext(ctx).
		Where("experiment_id = ?", experimentID).
		Order("step DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}

	var snap world.Snapshot
	if err := json.Unmarshal([]byte(model.Document), &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// Range returns the snapshots for an experiment between two steps,
// inclusive, in step order
func (r *GormSimulationLogRepository) Range(ctx context.Context, experimentID string, fromStep, toStep int64) ([]*world.Snapshot, error) {
	var models []SimulationLogModel
	err := r.db.WithContext(ctx).
		Where("experiment_id = ? AND step BETWEEN ? AND ?", experimentID, fromStep, toStep).
		Order("step").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot range: %w", err)
	}

	snaps := make([]*world.Snapshot, 0, len(models))
	for i := range models {
		var snap world.Snapshot
		if err := json.Unmarshal([]byte(models[i].Document), &snap); err != nil {
			return nil, fmt.Errorf("failed to unmarshal snapshot at step %d: %w", models[i].Step, err)
		}
		snaps = append(snaps, &snap)
	}
	return snaps, nil
}
