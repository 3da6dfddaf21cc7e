package events

import (
	"time"

	"github.com/kelindar/event"
)

// Bus wraps kelindar/event dispatcher for event broadcasting
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers
// Usage: bus.Publish(LEDStripCommandEvent{...})
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case LEDStripCommandEvent:
		event.Publish(b.dispatcher, e)
	case LEDStripStateChangedEvent:
		event.Publish(b.dispatcher, e)
	case LEDStripErrorEvent:
		event.Publish(b.dispatcher, e)
	}
}

// PublishCommand publishes a serialized strip command from source.
func (b *Bus) PublishCommand(payload, source string) {
	b.Publish(LEDStripCommandEvent{
		Payload:   payload,
		Source:    source,
		Timestamp: Now(),
	})
}

// Subscribe subscribes to events with a handler function
// The handler type determines which events it receives
// Returns an unsubscribe function
// Usage: unsub := bus.Subscribe(func(e LEDStripStateChangedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(LEDStripCommandEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LEDStripStateChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LEDStripErrorEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		// Return a no-op function if handler type is not recognized
		return func() {}
	}
}

// Now formats the current time the way event timestamps are written.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
