package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/proximalabs/proxima-go/internal/application/common"
)

// GormCommandRepository implements CommandRepository using GORM
type GormCommandRepository struct {
	db *gorm.DB
}

// NewGormCommandRepository creates a new GORM-based command repository
func NewGormCommandRepository(db *gorm.DB) common.CommandRepository {
	return &GormCommandRepository{db: db}
}

// FetchPending returns unapplied commands ordered by timestamp
func (r *GormCommandRepository) FetchPending(ctx context.Context, experimentID string) ([]common.ControlCommand, error) {
	var models []CommandModel
	err := r.db.WithContext(ctx).
		Where("experiment_id = ? AND applied = ?", experimentID, false).
		Order("ts").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending commands: %w", err)
	}

	cmds := make([]common.ControlCommand, len(models))
	for i, m := range models {
		cmds[i] = common.ControlCommand{
			ID:        m.ID,
			Kind:      common.CommandKind(m.Kind),
			Timestamp: m.Timestamp,
		}
		if m.Payload != "" {
			cmds[i].Payload = json.RawMessage(m.Payload)
		}
	}
	return cmds, nil
}

// MarkApplied flags commands as consumed
func (r *GormCommandRepository) MarkApplied(ctx context.Context, experimentID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Model(&CommandModel{}).
		Where("experiment_id = ? AND id IN ?", experimentID, ids).
		Update("applied", true).Error
	if err != nil {
		return fmt.Errorf("failed to mark commands applied: %w", err)
	}
	return nil
}

// Submit deposits a command for an experiment
func (r *GormCommandRepository) Submit(ctx context.Context, experimentID string, cmd common.ControlCommand) error {
	ts := cmd.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	model := CommandModel{
		ID:           cmd.ID,
		ExperimentID: experimentID,
		Kind:         string(cmd.Kind),
		Payload:      string(cmd.Payload),
		Timestamp:    ts,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("failed to submit command: %w", err)
	}
	return nil
}
