package policy_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proximalabs/proxima-go/internal/domain/evaluation"
	"github.com/proximalabs/proxima-go/internal/domain/kernel"
	"github.com/proximalabs/proxima-go/internal/domain/policy"
	"github.com/proximalabs/proxima-go/internal/domain/sector"
)

func growthConfig() policy.ScienceGrowthConfig {
	return policy.ScienceGrowthConfig{
		BaseRate:          8,
		DoublingPeriod:    6,
		LeadMonths:        3,
		RoverProductivity: 1,
		ModuleID:          "science_module",
		ShellsPerModule:   3,
	}
}

func TestScienceGrowth_TargetRateDoubles(t *testing.T) {
	p := policy.NewScienceGrowth(policy.ScienceGrowthConfig{
		BaseRate: 10, DoublingPeriod: 6, RoverProductivity: 1,
	})

	assert.InDelta(t, 10, p.TargetRate(0), 1e-9)
	assert.InDelta(t, 20, p.TargetRate(6), 1e-9)
	assert.InDelta(t, 40, p.TargetRate(12), 1e-9)
}

func TestScienceGrowth_OnlyActsOnMonthTicks(t *testing.T) {
	p := policy.NewScienceGrowth(growthConfig())
	w := newFakeWorld(sector.Science)
	w.monthTick = false

	effects, err := p.Apply(w, evaluation.Result{Metrics: map[string]float64{}})

	require.NoError(t, err)
	assert.Empty(t, effects)
	assert.Empty(t, w.events)
}

func TestScienceGrowth_OrdersForecastShortfall(t *testing.T) {
	p := policy.NewScienceGrowth(growthConfig())
	w := newFakeWorld(sector.Science)
	w.monthTick = true

	// Horizon is month 3: target 8*2^(3/6) rounds up to 12 rovers.
	// Four are active, so eight are ordered.
	effects, err := p.Apply(w, evaluation.Result{Metrics: map[string]float64{
		sector.MetricActiveRovers: 4,
	}})

	require.NoError(t, err)
	require.Len(t, effects, 2)
	assert.Equal(t, "set_target_rate", effects[0].Action)
	assert.InDelta(t, 8*math.Sqrt2, w.targets[sector.Science], 1e-9)
	assert.Equal(t, "request_build", effects[1].Action)
	assert.Equal(t, 8.0, effects[1].Value)

	require.Len(t, w.events, 1)
	req := w.events[0].Payload.(kernel.ConstructionRequested)
	assert.Equal(t, kernel.TopicConstructionRequest, w.events[0].Topic)
	assert.Equal(t, "sci-growth-1", req.RequestID)
	assert.Equal(t, sector.Science, req.Requester)
	assert.Equal(t, "science_module", req.ModuleID)
	assert.Equal(t, 8, req.Quantity)
	assert.Equal(t, 3, req.Shells)

	assert.Equal(t, map[int64]int{3: 8}, p.Pipeline())
}

func TestScienceGrowth_PipelineCoversDemandNoReorder(t *testing.T) {
	p := policy.NewScienceGrowth(growthConfig())
	w := newFakeWorld(sector.Science)
	w.monthTick = true
	res := evaluation.Result{Metrics: map[string]float64{sector.MetricActiveRovers: 4}}

	_, err := p.Apply(w, res)
	require.NoError(t, err)
	effects, err := p.Apply(w, res)
	require.NoError(t, err)

	// The eight ordered rovers already cover the horizon's target.
	require.Len(t, effects, 1)
	assert.Equal(t, "set_target_rate", effects[0].Action)
	assert.Len(t, w.events, 1)
}

func TestScienceGrowth_SafetyMarginOverProvisions(t *testing.T) {
	cfg := growthConfig()
	cfg.SafetyMargin = 0.25
	p := policy.NewScienceGrowth(cfg)
	w := newFakeWorld(sector.Science)
	w.monthTick = true

	_, err := p.Apply(w, evaluation.Result{Metrics: map[string]float64{
		sector.MetricActiveRovers: 4,
	}})

	// ceil(1.25 * 12) - 4 = 11.
	require.NoError(t, err)
	req := w.events[0].Payload.(kernel.ConstructionRequested)
	assert.Equal(t, 11, req.Quantity)
}

func TestScienceGrowth_ExpectedLossesShrinkForecast(t *testing.T) {
	cfg := growthConfig()
	cfg.ExpectedLosses = 1
	p := policy.NewScienceGrowth(cfg)
	w := newFakeWorld(sector.Science)
	w.monthTick = true

	_, err := p.Apply(w, evaluation.Result{Metrics: map[string]float64{
		sector.MetricActiveRovers: 4,
	}})

	require.NoError(t, err)
	req := w.events[0].Payload.(kernel.ConstructionRequested)
	assert.Equal(t, 9, req.Quantity)
}

func TestScienceGrowth_CompletedModulesLeaveThePipeline(t *testing.T) {
	p := policy.NewScienceGrowth(growthConfig())
	w := newFakeWorld(sector.Science)
	w.monthTick = true
	_, err := p.Apply(w, evaluation.Result{Metrics: map[string]float64{
		sector.MetricActiveRovers: 4,
	}})
	require.NoError(t, err)
	require.Equal(t, map[int64]int{3: 8}, p.Pipeline())

	p.Observe(kernel.Event{Topic: kernel.TopicModuleCompleted, Payload: kernel.ModuleCompleted{
		Requester: sector.Science, ModuleID: "science_module", EquipmentType: "science_rover",
	}})
	p.Observe(kernel.Event{Topic: kernel.TopicModuleCompleted, Payload: kernel.ModuleCompleted{
		Requester: sector.Construction, ModuleID: "habitat_module",
	}})

	// Only the matching module id decremented the pipeline.
	assert.Equal(t, map[int64]int{3: 7}, p.Pipeline())
}
