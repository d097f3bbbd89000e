package sector_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proximalabs/proxima-go/internal/domain/agent"
	"github.com/proximalabs/proxima-go/internal/domain/kernel"
	"github.com/proximalabs/proxima-go/internal/domain/sector"
)

func manufacturingFixture(ctx *kernel.Context, cfg sector.ManufacturingConfig, units int) *sector.ManufacturingSector {
	isrus := make([]*agent.ISRU, 0, units)
	for i := 1; i <= units; i++ {
		isrus = append(isrus, agent.NewISRU(i, agent.ISRUConfig{
			IceExtractionPowerKWh:      100,
			IceExtractionOutputKg:      50,
			RegolithExtractionPowerKWh: 100,
			RegolithExtractionOutputKg: 1000,
			He3PowerKWh:                100,
			He3ThroughputTons:          100,
			He3MinPPB:                  10,
			He3ModePPB:                 10,
			He3MaxPPB:                  10,
			ElectrolysisPowerKWh:       100,
			ElectrolysisWaterKg:        18,
			MetalPowerKWh:              100,
			MetalRegolithKg:            500,
			MetalOutputKg:              40,
			Efficiency:                 1.0,
		}))
	}
	return sector.NewManufacturingSector(ctx, cfg, isrus)
}

func stepManufacturing(ctx *kernel.Context, s *sector.ManufacturingSector, step int64, powerKWh float64) {
	ctx.Bus.Deliver()
	s.Step(sector.StepInput{Step: step, Rand: kernel.NewStepRand(1, step), PowerKWh: powerKWh})
	_ = ctx.Ledger.Commit(func(name string) *kernel.StockSet {
		if name == sector.Manufacturing {
			return s.Stocks()
		}
		return kernel.NewStockSet(nil)
	}, kernel.CommitLenient)
}

func TestManufacturingSector_ServesResourceRequestFromStock(t *testing.T) {
	ctx := kernel.NewContext(720)
	s := manufacturingFixture(ctx, sector.ManufacturingConfig{
		InitialStocks: map[string]float64{agent.ResourceHe3: 50},
	}, 0)

	var allocated []kernel.ResourceAllocated
	ctx.Bus.Subscribe(kernel.TopicResourceAllocated, func(ev kernel.Event) {
		allocated = append(allocated, ev.Payload.(kernel.ResourceAllocated))
	})

	ctx.Bus.Publish(kernel.TopicResourceRequest, kernel.ResourceRequested{
		Requester: sector.Transportation,
		Resource:  agent.ResourceHe3,
		Amount:    40,
	})

	// Act - the request is delivered and served the next step.
	stepManufacturing(ctx, s, 1, 0)
	ctx.Bus.Deliver()

	// Assert
	require.Len(t, allocated, 1)
	assert.Equal(t, sector.Transportation, allocated[0].Recipient)
	assert.Equal(t, 40.0, allocated[0].Amount)
	assert.Equal(t, 10.0, s.Stocks().Level(agent.ResourceHe3))
	assert.Zero(t, s.Backlog())
}

func TestManufacturingSector_UnservableRequestWaitsThenExpires(t *testing.T) {
	ctx := kernel.NewContext(720)
	s := manufacturingFixture(ctx, sector.ManufacturingConfig{
		InitialStocks: map[string]float64{agent.ResourceHe3: 5},
		BacklogMaxAge: 2,
	}, 0)

	ctx.Bus.Publish(kernel.TopicResourceRequest, kernel.ResourceRequested{
		Requester: sector.Transportation,
		Resource:  agent.ResourceHe3,
		Amount:    40,
	})

	stepManufacturing(ctx, s, 1, 0)
	assert.Equal(t, 1, s.Backlog())
	stepManufacturing(ctx, s, 2, 0)
	assert.Equal(t, 1, s.Backlog())

	// Third failed attempt exceeds the max age: dropped and counted.
	stepManufacturing(ctx, s, 3, 0)
	assert.Zero(t, s.Backlog())
	assert.Equal(t, 1.0, s.Contributions()[sector.MetricBacklogExpired])
}

func TestManufacturingSector_NewestRequestWinsContestedStock(t *testing.T) {
	// Two requests against stock that covers only one: LIFO means the
	// newer request is served and the older one waits.
	ctx := kernel.NewContext(720)
	s := manufacturingFixture(ctx, sector.ManufacturingConfig{
		InitialStocks: map[string]float64{agent.ResourceWater: 30},
	}, 0)

	var allocated []kernel.ResourceAllocated
	ctx.Bus.Subscribe(kernel.TopicResourceAllocated, func(ev kernel.Event) {
		allocated = append(allocated, ev.Payload.(kernel.ResourceAllocated))
	})

	ctx.Bus.Publish(kernel.TopicResourceRequest, kernel.ResourceRequested{
		Requester: "older", Resource: agent.ResourceWater, Amount: 25,
	})
	ctx.Bus.Publish(kernel.TopicResourceRequest, kernel.ResourceRequested{
		Requester: "newer", Resource: agent.ResourceWater, Amount: 25,
	})

	stepManufacturing(ctx, s, 1, 0)
	ctx.Bus.Deliver()

	require.Len(t, allocated, 1)
	assert.Equal(t, "newer", allocated[0].Recipient)
	assert.Equal(t, 1, s.Backlog())
}

func TestManufacturingSector_BufferTargetGatesTask(t *testing.T) {
	// Water at its buffer minimum zeroes ice extraction's priority;
	// the single unit falls through to the next task.
	ctx := kernel.NewContext(720)
	s := manufacturingFixture(ctx, sector.ManufacturingConfig{
		InitialStocks: map[string]float64{agent.ResourceWater: 500},
		TaskPriorities: map[agent.OperationalMode]float64{
			agent.ModeIceExtraction:      5,
			agent.ModeRegolithExtraction: 1,
		},
		BufferTargets: map[string]sector.BufferTarget{
			agent.ResourceWater: {Min: 500, Max: 1000},
		},
	}, 1)

	stepManufacturing(ctx, s, 1, 1000)

	// Regolith was extracted, water untouched.
	assert.Equal(t, 1000.0, s.Stocks().Level(agent.ResourceRegolith))
	assert.Equal(t, 500.0, s.Stocks().Level(agent.ResourceWater))
}

func TestManufacturingSector_ThrottleSkipsAllActivationsAtOne(t *testing.T) {
	ctx := kernel.NewContext(720)
	s := manufacturingFixture(ctx, sector.ManufacturingConfig{
		TaskPriorities: map[agent.OperationalMode]float64{agent.ModeRegolithExtraction: 1},
	}, 4)

	s.SetThrottleFactor(1)
	for step := int64(1); step <= 20; step++ {
		stepManufacturing(ctx, s, step, 10000)
	}

	assert.Zero(t, s.Stocks().Level(agent.ResourceRegolith))
	assert.Equal(t, 1.0, s.ThrottleFactor())
}

func TestManufacturingSector_PowerBudgetLimitsActivations(t *testing.T) {
	// Four units at 100 kWh each against a 250 kWh budget: two run.
	ctx := kernel.NewContext(720)
	s := manufacturingFixture(ctx, sector.ManufacturingConfig{
		TaskPriorities: map[agent.OperationalMode]float64{agent.ModeRegolithExtraction: 1},
	}, 4)

	stepManufacturing(ctx, s, 1, 250)

	assert.Equal(t, 2000.0, s.Stocks().Level(agent.ResourceRegolith))
	assert.Equal(t, 2.0, s.Metrics()["active_operations"])
}

func TestManufacturingSector_PowerDemandSumsPeakModes(t *testing.T) {
	ctx := kernel.NewContext(720)
	s := manufacturingFixture(ctx, sector.ManufacturingConfig{}, 3)

	assert.Equal(t, 300.0, s.PowerDemand())
}
