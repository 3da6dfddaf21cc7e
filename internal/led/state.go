package led

import (
	"time"

	"github.com/smazurov/stripnode/internal/ws2812"
)

// TaskState is the lifecycle state of the strip task.
type TaskState string

// Task states.
const (
	StateIdle       TaskState = "idle"       // Not started
	StateConnecting TaskState = "connecting" // Opening the SPI device
	StateRunning    TaskState = "running"    // Processing commands
	StateStopped    TaskState = "stopped"    // Exited cleanly
	StateError      TaskState = "error"      // Exited with an error
)

// Info is a snapshot of the task and the last applied command.
type Info struct {
	State       TaskState
	Enabled     bool
	Pattern     ws2812.Pattern
	Color       ws2812.Color
	Frequency   float64
	LastCommand time.Time
	FramesShown uint64
	LastError   error
}
