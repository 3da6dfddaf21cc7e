package led

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/smazurov/stripnode/internal/ws2812"
)

// ErrMalformedCommand is returned when a command payload cannot be used.
var ErrMalformedCommand = errors.New("malformed strip command")

// Command turns the strip on with a breathing color or off.
type Command struct {
	Enable bool    `json:"enable"`
	Status *Status `json:"status,omitempty"`
}

// Status describes the breathing animation of an enabled strip.
type Status struct {
	Frequency float64 `json:"frequency"`
	Scale     float64 `json:"scale"`
	Red       uint8   `json:"red"`
	Green     uint8   `json:"green"`
	Blue      uint8   `json:"blue"`
}

// Color returns the unscaled command color.
func (s Status) Color() ws2812.Color {
	return ws2812.NewColor(s.Red, s.Green, s.Blue)
}

// ScaledColor returns the color with Scale applied once.
func (s Status) ScaledColor() ws2812.Color {
	return s.Color().Scale(float32(s.Scale))
}

// Off returns the command that clears the strip.
func Off() Command {
	return Command{Enable: false}
}

// Breathe returns an enabling command for c at hz and scale.
func Breathe(c ws2812.Color, hz, scale float64) Command {
	return Command{
		Enable: true,
		Status: &Status{
			Frequency: hz,
			Scale:     scale,
			Red:       c.R,
			Green:     c.G,
			Blue:      c.B,
		},
	}
}

// Validate checks the fields the task needs. Frequency limits are checked
// when the command is applied since they depend on the refresh rate.
func (c Command) Validate() error {
	if !c.Enable {
		return nil
	}
	if c.Status == nil {
		return fmt.Errorf("%w: status is required when enable is true", ErrMalformedCommand)
	}
	if math.IsNaN(c.Status.Scale) || math.IsInf(c.Status.Scale, 0) {
		return fmt.Errorf("%w: scale must be finite", ErrMalformedCommand)
	}
	return nil
}

// ParseCommand decodes and validates a JSON command.
func ParseCommand(data []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return Command{}, fmt.Errorf("%w: %v", ErrMalformedCommand, err)
	}
	if err := cmd.Validate(); err != nil {
		return Command{}, err
	}
	return cmd, nil
}

// EncodeCommand validates cmd and returns its JSON form for the event bus.
func EncodeCommand(cmd Command) (string, error) {
	if err := cmd.Validate(); err != nil {
		return "", err
	}
	data, err := json.Marshal(cmd)
	if err != nil {
		return "", fmt.Errorf("encode command: %w", err)
	}
	return string(data), nil
}
