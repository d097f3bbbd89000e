package kernel

import "fmt"

// Subscriber receives events for a topic during delivery.
type Subscriber func(Event)

// EventBus is a double-buffered publish/subscribe channel between
// sectors. Publish appends to a staging buffer; Deliver swaps the
// staging buffer in and drains it to subscribers. An event published
// in step t is therefore observed in step t+1, never in step t.
type EventBus struct {
	subscribers map[Topic][]Subscriber
	staged      []Event
	errs        *ErrorLog
}

// NewEventBus creates an empty bus. Delivery faults are recorded on errs.
func NewEventBus(errs *ErrorLog) *EventBus {
	return &EventBus{
		subscribers: make(map[Topic][]Subscriber),
		errs:        errs,
	}
}

// Subscribe registers fn for a topic. Delivery order follows
// subscription order.
func (b *EventBus) Subscribe(topic Topic, fn Subscriber) {
	b.subscribers[topic] = append(b.subscribers[topic], fn)
}

// Publish stages an event for delivery at the next step boundary.
// FIFO order per topic is preserved.
func (b *EventBus) Publish(topic Topic, payload any) {
	b.staged = append(b.staged, Event{Topic: topic, Payload: payload})
}

// Pending returns the number of staged, undelivered events.
func (b *EventBus) Pending() int { return len(b.staged) }

// Deliver swaps the staging buffer and invokes subscribers for each
// event in publication order. A panicking subscriber is isolated: the
// fault is logged, remaining subscribers still receive the event, and
// the event is not redelivered.
func (b *EventBus) Deliver() {
	batch := b.staged
	b.staged = nil

	for _, ev := range batch {
		for _, fn := range b.subscribers[ev.Topic] {
			b.dispatch(ev, fn)
		}
	}
}

func (b *EventBus) dispatch(ev Event, fn Subscriber) {
	defer func() {
		if r := recover(); r != nil && b.errs != nil {
			b.errs.Record(&EventDeliveryError{Topic: ev.Topic, Cause: fmt.Errorf("%v", r)})
		}
	}()
	fn(ev)
}
