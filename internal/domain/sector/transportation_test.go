package sector_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proximalabs/proxima-go/internal/domain/agent"
	"github.com/proximalabs/proxima-go/internal/domain/kernel"
	"github.com/proximalabs/proxima-go/internal/domain/sector"
)

func transportationFixture(ctx *kernel.Context, cfg sector.TransportationConfig, rockets int) *sector.TransportationSector {
	fleet := make([]*agent.Rocket, 0, rockets)
	for i := 1; i <= rockets; i++ {
		fleet = append(fleet, agent.NewRocket(i, agent.RocketConfig{
			PropKgPerPayloadKg: 15,
			CarryingCapacityKg: 2000,
			CruiseSpeedKmPerHr: 38440,
			InitialLocation:    kernel.LocationEarth,
			DustPerLaunch:      0.02,
		}))
	}
	return sector.NewTransportationSector(ctx, cfg, fleet, nil)
}

func stepTransportation(ctx *kernel.Context, s *sector.TransportationSector, step int64) {
	ctx.Bus.Deliver()
	s.Step(sector.StepInput{Step: step, Rand: kernel.NewStepRand(1, step)})
	_ = ctx.Ledger.Commit(func(name string) *kernel.StockSet {
		if name == sector.Transportation {
			return s.Stocks()
		}
		return kernel.NewStockSet(nil)
	}, kernel.CommitLenient)
}

func TestTransportationSector_DispatchesWhenFuelCoversRoundTrip(t *testing.T) {
	// 1000 kg outbound at 15 kg propellant per payload kg needs exactly
	// 15000 kg of fuel.
	ctx := kernel.NewContext(720)
	s := transportationFixture(ctx, sector.TransportationConfig{
		InitialStocks: map[string]float64{agent.ResourceRocketFuel: 15000},
		DustMetric:    sector.MetricContribution{MetricID: "DUST-IDX", Value: 1},
	}, 1)

	ctx.Bus.Publish(kernel.TopicTransportRequest, kernel.TransportRequested{
		RequestID:   "req-1",
		Requester:   sector.Equipment,
		Payload:     map[string]float64{"science_rover": 1000},
		Origin:      kernel.LocationEarth,
		Destination: kernel.LocationMoon,
	})

	stepTransportation(ctx, s, 1)

	assert.Zero(t, s.Queue())
	assert.Equal(t, 1.0, s.Metrics()["missions_launched"])
	assert.Zero(t, s.Stocks().Level(agent.ResourceRocketFuel))
	assert.InDelta(t, 0.02, s.Contributions()["DUST-IDX"], 1e-9)
}

func TestTransportationSector_DefersWhenFuelShort(t *testing.T) {
	// One kilogram of fuel short: the mission stays queued and no fuel
	// is burned.
	ctx := kernel.NewContext(720)
	s := transportationFixture(ctx, sector.TransportationConfig{
		InitialStocks: map[string]float64{agent.ResourceRocketFuel: 14999},
	}, 1)

	ctx.Bus.Publish(kernel.TopicTransportRequest, kernel.TransportRequested{
		RequestID:   "req-1",
		Requester:   sector.Equipment,
		Payload:     map[string]float64{"science_rover": 1000},
		Origin:      kernel.LocationEarth,
		Destination: kernel.LocationMoon,
	})

	stepTransportation(ctx, s, 1)

	assert.Equal(t, 1, s.Queue())
	assert.Equal(t, 14999.0, s.Stocks().Level(agent.ResourceRocketFuel))
	assert.Empty(t, s.Contributions())
}

func TestTransportationSector_SameStepCommitsShareFuelPool(t *testing.T) {
	// Fuel covers one mission, not two: the newer request launches and
	// the older one stays queued even though a second rocket is free.
	ctx := kernel.NewContext(720)
	s := transportationFixture(ctx, sector.TransportationConfig{
		InitialStocks: map[string]float64{agent.ResourceRocketFuel: 20000},
	}, 2)

	for _, id := range []string{"older", "newer"} {
		ctx.Bus.Publish(kernel.TopicTransportRequest, kernel.TransportRequested{
			RequestID:   id,
			Requester:   sector.Equipment,
			Payload:     map[string]float64{"cargo": 1000},
			Origin:      kernel.LocationEarth,
			Destination: kernel.LocationMoon,
		})
	}

	stepTransportation(ctx, s, 1)

	assert.Equal(t, 1, s.Queue())
	assert.Equal(t, 1.0, s.Metrics()["missions_launched"])
	assert.InDelta(t, 5000.0, s.Stocks().Level(agent.ResourceRocketFuel), 1e-9)
}

func TestTransportationSector_MissionDeliversAtDestinationAndReturns(t *testing.T) {
	ctx := kernel.NewContext(720)
	s := transportationFixture(ctx, sector.TransportationConfig{
		InitialStocks: map[string]float64{agent.ResourceRocketFuel: 15000},
		LoadingSteps:  24,
	}, 1)

	type arrival struct {
		step        int64
		destination string
	}
	var arrivals []arrival
	var step int64
	ctx.Bus.Subscribe(kernel.TopicPayloadDelivered, func(ev kernel.Event) {
		p := ev.Payload.(kernel.PayloadDelivered)
		arrivals = append(arrivals, arrival{step: step, destination: p.Destination})
	})

	ctx.Bus.Publish(kernel.TopicTransportRequest, kernel.TransportRequested{
		RequestID:   "req-1",
		Requester:   sector.Equipment,
		Payload:     map[string]float64{"cargo": 1000},
		Origin:      kernel.LocationEarth,
		Destination: kernel.LocationMoon,
	})

	// Commit happens at step 1; the 10-step leg lands at step 11, the
	// return departs after 24 loading steps and lands at step 45.
	for step = 1; step <= 46; step++ {
		stepTransportation(ctx, s, step)
	}

	require.Len(t, arrivals, 2)
	// Published on arrival step, delivered at the next step boundary.
	assert.Equal(t, arrival{step: 12, destination: kernel.LocationMoon}, arrivals[0])
	assert.Equal(t, arrival{step: 46, destination: kernel.LocationEarth}, arrivals[1])
	assert.Equal(t, 1.0, s.Metrics()["rockets_idle"])
}

func TestTransportationSector_He3RequestLatch(t *testing.T) {
	ctx := kernel.NewContext(720)
	s := transportationFixture(ctx, sector.TransportationConfig{
		He3ThresholdKg: 10,
		He3BatchKg:     40,
	}, 0)

	var requests []kernel.ResourceRequested
	ctx.Bus.Subscribe(kernel.TopicResourceRequest, func(ev kernel.Event) {
		requests = append(requests, ev.Payload.(kernel.ResourceRequested))
	})

	// Below threshold: exactly one request, held across later steps.
	stepTransportation(ctx, s, 1)
	stepTransportation(ctx, s, 2)
	stepTransportation(ctx, s, 3)
	ctx.Bus.Deliver()

	require.Len(t, requests, 1)
	assert.Equal(t, sector.Transportation, requests[0].Requester)
	assert.Equal(t, 40.0, requests[0].Amount)

	// Allocation clears the latch; still below threshold, so the next
	// step requests again.
	ctx.Bus.Publish(kernel.TopicResourceAllocated, kernel.ResourceAllocated{
		Recipient: sector.Transportation,
		Resource:  agent.ResourceHe3,
		Amount:    40,
	})
	stepTransportation(ctx, s, 4)

	ctx.Bus.Deliver()
	assert.Len(t, requests, 2)
}

func TestTransportationSector_FuelFloorDefersHe3Request(t *testing.T) {
	ctx := kernel.NewContext(720)
	s := transportationFixture(ctx, sector.TransportationConfig{
		InitialStocks:  map[string]float64{agent.ResourceRocketFuel: 500},
		He3ThresholdKg: 10,
		He3BatchKg:     40,
		FuelFloorKg:    200,
	}, 0)

	var requests []kernel.ResourceRequested
	ctx.Bus.Subscribe(kernel.TopicResourceRequest, func(ev kernel.Event) {
		requests = append(requests, ev.Payload.(kernel.ResourceRequested))
	})

	// Feedstock is short, but propellant sits above the floor: no order.
	stepTransportation(ctx, s, 1)
	ctx.Bus.Deliver()
	assert.Empty(t, requests)

	// Propellant burns down through the floor; feedstock is reordered.
	ctx.Ledger.Consume(sector.Transportation, agent.ResourceRocketFuel, 400)
	stepTransportation(ctx, s, 2)
	stepTransportation(ctx, s, 3)
	ctx.Bus.Deliver()

	require.Len(t, requests, 1)
	assert.Equal(t, agent.ResourceHe3, requests[0].Resource)
}

func TestTransportationSector_FuelGenerationConsumesHe3(t *testing.T) {
	ctx := kernel.NewContext(720)
	gen := agent.NewFuelGenerator(1, agent.FuelGeneratorConfig{He3KgPerStep: 2})
	s := sector.NewTransportationSector(ctx, sector.TransportationConfig{
		InitialStocks: map[string]float64{agent.ResourceHe3: 3},
	}, nil, []*agent.FuelGenerator{gen})

	stepTransportation(ctx, s, 1)

	expectedProp := 2 * 163.489 * 1e6 * 0.025 / 50
	assert.InDelta(t, 1.0, s.Stocks().Level(agent.ResourceHe3), 1e-9)
	assert.InDelta(t, expectedProp, s.Stocks().Level(agent.ResourceRocketFuel), 1e-6)
	assert.InDelta(t, expectedProp, s.Metrics()["fuel_generated_kg"], 1e-6)
}
