package led

import "github.com/smazurov/stripnode/internal/ws2812"

// Strip is the part of the WS2812 encoder the task drives.
// *ws2812.Strip implements it.
type Strip interface {
	Len() int
	SetLEDs(colors []ws2812.Color)
	Show() error
	StartBreathe(c ws2812.Color, hz float64) error
	StopAnimation()
	Pattern() ws2812.Pattern
	// Close stops any animation, clears the strip and releases the bus.
	Close() error
}

// Opener opens the strip. It is called again on failure when the task
// is configured to retry.
type Opener func() (Strip, error)

var _ Strip = (*ws2812.Strip)(nil)
