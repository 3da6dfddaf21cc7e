package events

import "github.com/kelindar/event"

// SubscribeToChannel bridges kelindar/event callback-based subscriptions to a
// channel. Sends never block: when ch is full the event is dropped and
// onDrop, if set, is called.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- T, onDrop func(T)) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
			if onDrop != nil {
				onDrop(e)
			}
		}
	})
}

// SubscribeCommands returns a bounded queue of command payloads. Only the
// latest strip state matters, so overflow drops rather than blocks.
func (b *Bus) SubscribeCommands(capacity int, onDrop func(LEDStripCommandEvent)) (<-chan LEDStripCommandEvent, func()) {
	if capacity < 1 {
		capacity = 1
	}
	ch := make(chan LEDStripCommandEvent, capacity)
	return ch, SubscribeToChannel(b, ch, onDrop)
}
