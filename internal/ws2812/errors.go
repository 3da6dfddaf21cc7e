package ws2812

import "errors"

var (
	// ErrDeviceNotFound is returned when the spidev path does not exist.
	ErrDeviceNotFound = errors.New("spi device not found")
	// ErrBus is returned for port configuration or transfer failures.
	ErrBus = errors.New("spi bus error")
	// ErrIndex is returned for an LED index outside the strip.
	ErrIndex = errors.New("led index out of range")
	// ErrFrequencyTooHigh is returned when an animation cycle would need
	// fewer frames than the refresh rate can represent.
	ErrFrequencyTooHigh = errors.New("animation frequency too high")
	// ErrInvalidFrequency is returned for zero, negative or non-finite rates.
	ErrInvalidFrequency = errors.New("animation frequency must be positive")
	// ErrInvalidConfig is returned by BusConfig.Validate.
	ErrInvalidConfig = errors.New("invalid strip configuration")
	// ErrClosed is returned by operations on a closed strip.
	ErrClosed = errors.New("strip closed")
)
