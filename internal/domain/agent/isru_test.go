package agent_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proximalabs/proxima-go/internal/domain/agent"
	"github.com/proximalabs/proxima-go/internal/domain/kernel"
)

func testISRU() *agent.ISRU {
	return agent.NewISRU(1, agent.ISRUConfig{
		IceExtractionPowerKWh:      100,
		IceExtractionOutputKg:      50,
		RegolithExtractionPowerKWh: 80,
		RegolithExtractionOutputKg: 1000,
		He3PowerKWh:                200,
		He3ThroughputTons:          100,
		He3MinPPB:                  5,
		He3ModePPB:                 10,
		He3MaxPPB:                  20,
		ElectrolysisPowerKWh:       120,
		ElectrolysisWaterKg:        18,
		MetalPowerKWh:              150,
		MetalRegolithKg:            500,
		MetalOutputKg:              40,
		Efficiency:                 0.9,
	})
}

func flowTotal(flows []kernel.StockFlow, resource string) float64 {
	var total float64
	for _, f := range flows {
		if f.Resource == resource {
			total += f.Amount
		}
	}
	return total
}

func TestISRU_RunRefusesUnderpoweredMode(t *testing.T) {
	isru := testISRU()
	ledger := kernel.NewLedger(kernel.NewErrorLog())
	rng := kernel.NewStepRand(1, 1)

	ok := isru.Run(agent.ModeIceExtraction, "manufacturing", 99, rng, ledger)

	assert.False(t, ok)
	assert.Empty(t, ledger.Pending())
}

func TestISRU_IceExtractionYield(t *testing.T) {
	isru := testISRU()
	ledger := kernel.NewLedger(kernel.NewErrorLog())
	rng := kernel.NewStepRand(1, 1)

	ok := isru.Run(agent.ModeIceExtraction, "manufacturing", 100, rng, ledger)

	require.True(t, ok)
	assert.InDelta(t, 45.0, flowTotal(ledger.Pending(), agent.ResourceWater), 1e-9)
}

func TestISRU_ElectrolysisSplitsWaterByMass(t *testing.T) {
	isru := testISRU()
	ledger := kernel.NewLedger(kernel.NewErrorLog())
	rng := kernel.NewStepRand(1, 1)

	ok := isru.Run(agent.ModeElectrolysis, "manufacturing", 120, rng, ledger)

	require.True(t, ok)
	flows := ledger.Pending()
	require.Len(t, flows, 3)
	assert.InDelta(t, 18.0, flowTotal(flows, agent.ResourceWater), 1e-9)
	assert.InDelta(t, 18.0/9*0.9, flowTotal(flows, agent.ResourceHydrogen), 1e-9)
	assert.InDelta(t, 18.0*8/9*0.9, flowTotal(flows, agent.ResourceOxygen), 1e-9)
}

func TestISRU_He3YieldWithinConcentrationBounds(t *testing.T) {
	isru := testISRU()

	// throughput 100 t = 1e5 kg; min 5 ppb, max 20 ppb, efficiency 0.9.
	lo := 100.0 * 1000 * 5 * 1e-9 * 0.9
	hi := 100.0 * 1000 * 20 * 1e-9 * 0.9

	for step := int64(0); step < 100; step++ {
		ledger := kernel.NewLedger(kernel.NewErrorLog())
		rng := kernel.NewStepRand(9, step)
		require.True(t, isru.Run(agent.ModeHe3Extraction, "manufacturing", 200, rng, ledger))

		yield := flowTotal(ledger.Pending(), agent.ResourceHe3)
		assert.GreaterOrEqual(t, yield, lo)
		assert.LessOrEqual(t, yield, hi)
	}
}

func TestISRU_InputsPerMode(t *testing.T) {
	isru := testISRU()

	assert.Nil(t, isru.Inputs(agent.ModeIceExtraction))
	assert.Equal(t, map[string]float64{agent.ResourceWater: 18}, isru.Inputs(agent.ModeElectrolysis))
	assert.Equal(t, map[string]float64{agent.ResourceRegolith: 500}, isru.Inputs(agent.ModeMetalProcessing))
}

func TestFuelGenerator_StepConversion(t *testing.T) {
	gen := agent.NewFuelGenerator(1, agent.FuelGeneratorConfig{})

	he3, prop := gen.Step(2)

	// 2 kg He-3 at 163.489 GWh/kg thermal, 2.5% conversion, 50 kWh/kg.
	assert.Equal(t, 2.0, he3)
	assert.InDelta(t, 2*163.489*1e6*0.025/50, prop, 1e-6)
}

func TestFuelGenerator_StepCapsPerStepThroughput(t *testing.T) {
	gen := agent.NewFuelGenerator(1, agent.FuelGeneratorConfig{He3KgPerStep: 5})

	he3, _ := gen.Step(40)

	assert.Equal(t, 5.0, he3)
}

func TestPowerStorage_ChargeLossesAndDischarge(t *testing.T) {
	bank := agent.NewPowerStorage(1, agent.PowerStorageConfig{
		CapacityKWh:      100,
		InitialChargeKWh: 0,
		ChargeEfficiency: 0.95,
	})

	consumed := bank.Charge(10)

	assert.Equal(t, 10.0, consumed)
	assert.InDelta(t, 9.5, bank.ChargeLevelKWh(), 1e-9)

	supplied := bank.Discharge(20)
	assert.InDelta(t, 9.5, supplied, 1e-9)
	assert.Zero(t, bank.ChargeLevelKWh())
}

func TestPowerStorage_ChargeStopsAtCapacity(t *testing.T) {
	bank := agent.NewPowerStorage(1, agent.PowerStorageConfig{
		CapacityKWh:      10,
		InitialChargeKWh: 9.5,
		ChargeEfficiency: 1.0,
	})

	consumed := bank.Charge(5)

	assert.InDelta(t, 0.5, consumed, 1e-9)
	assert.Equal(t, 10.0, bank.ChargeLevelKWh())
	assert.Zero(t, bank.Headroom())
}

func TestPowerGenerator_GeneratesOnlyWhatIsAsked(t *testing.T) {
	gen := agent.NewPowerGenerator(1, agent.PowerGeneratorConfig{MaxOutputKWh: 500})

	assert.Equal(t, 200.0, gen.Generate(200))
	assert.Equal(t, 500.0, gen.Generate(900))
	assert.Zero(t, gen.Generate(0))
}
