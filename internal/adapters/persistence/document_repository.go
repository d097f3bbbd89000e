package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/proximalabs/proxima-go/internal/application/common"
	"github.com/proximalabs/proxima-go/internal/domain/kernel"
	"github.com/proximalabs/proxima-go/internal/domain/world"
)

// GormDocumentRepository implements DocumentRepository using GORM
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GORM-based document repository
func NewGormDocumentRepository(db *gorm.DB) common.DocumentRepository {
	return &GormDocumentRepository{db: db}
}

// WorldTemplate retrieves a world document by id
func (r *GormDocumentRepository) WorldTemplate(ctx context.Context, id string) (world.Config, error) {
	var model WorldTemplateModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return world.Config{}, kernel.ConfigErrorf("world template %q not found", id)
		}
		return world.Config{}, fmt.Errorf("failed to get world template: %w", err)
	}

	var cfg world.Config
	if err := json.Unmarshal([]byte(model.Document), &cfg); err != nil {
		return world.Config{}, kernel.ConfigErrorf("world template %q is not valid JSON: %v", id, err)
	}
	return cfg, nil
}

// SaveWorldTemplate persists a world document (upsert)
func (r *GormDocumentRepository) SaveWorldTemplate(ctx context.Context, id string, cfg world.Config) error {
	doc, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal world template: %w", err)
	}
	model := WorldTemplateModel{
		ID:        id,
		Document:  string(doc),
		UpdatedAt: time.Now().UTC(),
	}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"document", "updated_at"}),
		}).
		Create(&model).Error
	if err != nil {
		return fmt.Errorf("failed to save world template: %w", err)
	}
	return nil
}

// ComponentTemplates returns all agent-type defaults documents keyed by id
func (r *GormDocumentRepository) ComponentTemplates(ctx context.Context) (map[string]json.RawMessage, error) {
	var models []ComponentTemplateModel
	if err := r.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list component templates: %w", err)
	}
	docs := make(map[string]json.RawMessage, len(models))
	for i := range models {
		docs[models[i].ID] = json.RawMessage(models[i].Document)
	}
	return docs, nil
}

// SaveComponentTemplate persists an agent-type defaults document (upsert)
func (r *GormDocumentRepository) SaveComponentTemplate(ctx context.Context, id string, doc json.RawMessage) error {
	if !json.Valid(doc) {
		return kernel.ConfigErrorf("component template %q is not valid JSON", id)
	}
	model := ComponentTemplateModel{
		ID:        id,
		Document:  string(doc),
		UpdatedAt: time.Now().UTC(),
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"document", "updated_at"}),
		}).
		Create(&model).Error
	if err != nil {
		return fmt.Errorf("failed to save component template: %w", err)
	}
	return nil
}

// Experiment retrieves an experiment document by id
func (r *GormDocumentRepository) Experiment(ctx context.Context, id string) (*common.ExperimentDocument, error) {
	var model ExperimentModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, kernel.ConfigErrorf("experiment %q not found", id)
		}
		return nil, fmt.Errorf("failed to get experiment: %w", err)
	}
	return experimentFromModel(&model), nil
}

// SaveExperiment persists an experiment document (upsert)
func (r *GormDocumentRepository) SaveExperiment(ctx context.Context, doc *common.ExperimentDocument) error {
	model := ExperimentModel{
		ID:         doc.ID,
		Name:       doc.Name,
		TemplateID: doc.TemplateID,
		Overrides:  string(doc.Overrides),
		MaxSteps:   doc.MaxSteps,
		CreatedAt:  time.Now().UTC(),
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "template_id", "overrides", "max_steps"}),
		}).
		Create(&model).Error
	if err != nil {
		return fmt.Errorf("failed to save experiment: %w", err)
	}
	return nil
}

// ListExperiments returns all experiment documents
func (r *GormDocumentRepository) ListExperiments(ctx context.Context) ([]*common.ExperimentDocument, error) {
	var models []ExperimentModel
	if err := r.db.WithContext(ctx).Order("created_at").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list experiments: %w", err)
	}
	docs := make([]*common.ExperimentDocument, len(models))
	for i := range models {
		docs[i] = experimentFromModel(&models[i])
	}
	return docs, nil
}

func experimentFromModel(model *ExperimentModel) *common.ExperimentDocument {
	doc := &common.ExperimentDocument{
		ID:         model.ID,
		Name:       model.Name,
		TemplateID: model.TemplateID,
		MaxSteps:   model.MaxSteps,
	}
	if model.Overrides != "" {
		doc.Overrides = json.RawMessage(model.Overrides)
	}
	return doc
}
