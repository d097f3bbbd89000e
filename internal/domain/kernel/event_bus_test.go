package kernel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proximalabs/proxima-go/internal/domain/kernel"
)

func TestEventBus_PublishIsNotVisibleUntilDeliver(t *testing.T) {
	// Arrange
	bus := kernel.NewEventBus(kernel.NewErrorLog())

	var received []kernel.ResourceRequested
	bus.Subscribe(kernel.TopicResourceRequest, func(ev kernel.Event) {
		received = append(received, ev.Payload.(kernel.ResourceRequested))
	})

	// Act
	bus.Publish(kernel.TopicResourceRequest, kernel.ResourceRequested{
		Requester: "transportation",
		Resource:  "He3_kg",
		Amount:    40,
	})

	// Assert - nothing delivered within the publishing step
	assert.Empty(t, received)
	assert.Equal(t, 1, bus.Pending())

	// Act - next step boundary
	bus.Deliver()

	// Assert
	require.Len(t, received, 1)
	assert.Equal(t, "He3_kg", received[0].Resource)
	assert.Equal(t, 0, bus.Pending())
}

func TestEventBus_EventsPublishedDuringDeliveryWaitForNextStep(t *testing.T) {
	// Arrange
	bus := kernel.NewEventBus(kernel.NewErrorLog())

	var constructionSeen int
	bus.Subscribe(kernel.TopicConstructionRequest, func(ev kernel.Event) {
		constructionSeen++
		// A handler reacting by publishing must not see its own
		// event delivered in the same batch.
		bus.Publish(kernel.TopicEquipmentRequest, kernel.EquipmentRequested{
			Requester: "construction", EquipmentType: "science_rover", Quantity: 1,
		})
	})

	var equipmentSeen int
	bus.Subscribe(kernel.TopicEquipmentRequest, func(ev kernel.Event) {
		equipmentSeen++
	})

	bus.Publish(kernel.TopicConstructionRequest, kernel.ConstructionRequested{RequestID: "r1", Quantity: 1})

	// Act
	bus.Deliver()

	// Assert
	assert.Equal(t, 1, constructionSeen)
	assert.Equal(t, 0, equipmentSeen)
	assert.Equal(t, 1, bus.Pending())

	bus.Deliver()
	assert.Equal(t, 1, equipmentSeen)
}

func TestEventBus_FIFOOrderPerTopic(t *testing.T) {
	// Arrange
	bus := kernel.NewEventBus(kernel.NewErrorLog())

	var order []string
	bus.Subscribe(kernel.TopicResourceRequest, func(ev kernel.Event) {
		order = append(order, ev.Payload.(kernel.ResourceRequested).Requester)
	})

	bus.Publish(kernel.TopicResourceRequest, kernel.ResourceRequested{Requester: "first"})
	bus.Publish(kernel.TopicResourceRequest, kernel.ResourceRequested{Requester: "second"})
	bus.Publish(kernel.TopicResourceRequest, kernel.ResourceRequested{Requester: "third"})

	// Act
	bus.Deliver()

	// Assert
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestEventBus_PanickingSubscriberIsIsolated(t *testing.T) {
	// Arrange
	errs := kernel.NewErrorLog()
	bus := kernel.NewEventBus(errs)

	bus.Subscribe(kernel.TopicModuleCompleted, func(ev kernel.Event) {
		panic("subscriber fault")
	})
	var survived int
	bus.Subscribe(kernel.TopicModuleCompleted, func(ev kernel.Event) {
		survived++
	})

	bus.Publish(kernel.TopicModuleCompleted, kernel.ModuleCompleted{ModuleID: "science_module"})

	// Act
	require.NotPanics(t, func() { bus.Deliver() })

	// Assert - remaining subscribers still ran, fault was logged once
	assert.Equal(t, 1, survived)
	faults := errs.Drain()
	require.Len(t, faults, 1)
	var deliveryErr *kernel.EventDeliveryError
	require.ErrorAs(t, faults[0], &deliveryErr)
	assert.Equal(t, kernel.TopicModuleCompleted, deliveryErr.Topic)
}
