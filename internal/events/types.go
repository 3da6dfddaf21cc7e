package events

// Event type constants for kelindar/event.
const (
	TypeLEDStripCommand uint32 = iota + 1
	TypeLEDStripStateChanged
	TypeLEDStripError
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// LEDStripCommandEvent carries a serialized strip command. The payload is
// kept as text so producers and the strip task share no Go types.
type LEDStripCommandEvent struct {
	Payload   string `json:"payload" example:"{\"enable\":false}" doc:"JSON encoded strip command"`
	Source    string `json:"source,omitempty" example:"nats" doc:"Producer of the command"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Publish timestamp"`
}

// Type returns the event type identifier for LEDStripCommandEvent.
func (e LEDStripCommandEvent) Type() uint32 { return TypeLEDStripCommand }

// LEDStripStateChangedEvent is published after the strip task applies a command.
type LEDStripStateChangedEvent struct {
	Enabled   bool    `json:"enabled" doc:"Whether the strip is lit"`
	Pattern   string  `json:"pattern" example:"breathe" doc:"Active animation"`
	Color     string  `json:"color" example:"#00007f" doc:"Pre-scaled animation color"`
	Frequency float64 `json:"frequency" example:"0.2" doc:"Animation frequency in Hz"`
	Timestamp string  `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for LEDStripStateChangedEvent.
func (e LEDStripStateChangedEvent) Type() uint32 { return TypeLEDStripStateChanged }

// LEDStripErrorEvent reports a task-level failure of the strip.
type LEDStripErrorEvent struct {
	Device    string `json:"device" example:"/dev/spidev0.1" doc:"SPI device path"`
	Error     string `json:"error" doc:"Error description"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for LEDStripErrorEvent.
func (e LEDStripErrorEvent) Type() uint32 { return TypeLEDStripError }
