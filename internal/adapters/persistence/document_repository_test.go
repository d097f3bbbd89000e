package persistence_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proximalabs/proxima-go/internal/adapters/persistence"
	"github.com/proximalabs/proxima-go/internal/application/common"
	"github.com/proximalabs/proxima-go/internal/domain/kernel"
	"github.com/proximalabs/proxima-go/internal/domain/world"
	"github.com/proximalabs/proxima-go/test/helpers"
)

func TestDocumentRepository_WorldTemplateRoundTrip(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormDocumentRepository(db)
	ctx := context.Background()
	cfg := world.Config{
		Seed:       42,
		CommitMode: "lenient",
		Environment: world.EnvironmentConfig{
			DistanceKm:    384400,
			StepsPerMonth: 720,
		},
	}

	// Act
	err := repo.SaveWorldTemplate(ctx, "baseline", cfg)
	require.NoError(t, err)
	loaded, err := repo.WorldTemplate(ctx, "baseline")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, uint64(42), loaded.Seed)
	assert.Equal(t, "lenient", loaded.CommitMode)
	assert.Equal(t, int64(720), loaded.Environment.StepsPerMonth)
}

func TestDocumentRepository_ComponentTemplateRoundTrip(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormDocumentRepository(db)
	ctx := context.Background()
	doc := json.RawMessage(`{"max_output_kwh": 5000, "efficiency": 0.9}`)

	// Act
	err := repo.SaveComponentTemplate(ctx, "comp_solar_array", doc)
	require.NoError(t, err)
	require.NoError(t, repo.SaveComponentTemplate(ctx, "comp_solar_array", json.RawMessage(`{"max_output_kwh": 6000}`)))
	loaded, err := repo.ComponentTemplates(ctx)

	// Assert - the second save upserted over the first
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.JSONEq(t, `{"max_output_kwh": 6000}`, string(loaded["comp_solar_array"]))
}

func TestDocumentRepository_SaveComponentTemplateRejectsBadJSON(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormDocumentRepository(db)

	// Act
	err := repo.SaveComponentTemplate(context.Background(), "comp_bad", json.RawMessage(`{not json`))

	// Assert
	require.ErrorIs(t, err, kernel.ErrConfig)
}

func TestDocumentRepository_SaveWorldTemplateUpserts(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormDocumentRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.SaveWorldTemplate(ctx, "baseline", world.Config{Seed: 1}))

	// Act
	err := repo.SaveWorldTemplate(ctx, "baseline", world.Config{Seed: 2})

	// Assert
	require.NoError(t, err)
	loaded, err := repo.WorldTemplate(ctx, "baseline")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), loaded.Seed)
}

func TestDocumentRepository_MissingTemplateIsConfigError(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormDocumentRepository(db)

	// Act
	_, err := repo.WorldTemplate(context.Background(), "no-such-template")

	// Assert
	assert.ErrorIs(t, err, kernel.ErrConfig)
}

func TestDocumentRepository_ExperimentRoundTrip(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormDocumentRepository(db)
	ctx := context.Background()
	doc := &common.ExperimentDocument{
		ID:         "exp-1",
		Name:       "double science",
		TemplateID: "baseline",
		Overrides:  json.RawMessage(`{"seed": 7}`),
		MaxSteps:   1000,
	}

	// Act
	err := repo.SaveExperiment(ctx, doc)
	require.NoError(t, err)
	loaded, err := repo.Experiment(ctx, "exp-1")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "double science", loaded.Name)
	assert.Equal(t, "baseline", loaded.TemplateID)
	assert.JSONEq(t, `{"seed": 7}`, string(loaded.Overrides))
	assert.Equal(t, int64(1000), loaded.MaxSteps)
}

func TestDocumentRepository_MissingExperimentIsConfigError(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormDocumentRepository(db)

	// Act
	_, err := repo.Experiment(context.Background(), "no-such-experiment")

	// Assert
	assert.ErrorIs(t, err, kernel.ErrConfig)
}

func TestDocumentRepository_ListExperimentsReturnsAll(t *testing.T) {
	// Arrange
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormDocumentRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.SaveExperiment(ctx, &common.ExperimentDocument{ID: "exp-1", TemplateID: "baseline"}))
	require.NoError(t, repo.SaveExperiment(ctx, &common.ExperimentDocument{ID: "exp-2", TemplateID: "baseline"}))

	// Act
	docs, err := repo.ListExperiments(ctx)

	// Assert
	require.NoError(t, err)
	require.Len(t, docs, 2)
	// Empty overrides come back as no overrides at all.
	assert.Nil(t, docs[0].Overrides)
}
