package ws2812

import "fmt"

const (
	// DefaultClockHz gives a bit period of about 1.23us, eight SPI bits per
	// WS2812 data bit.
	DefaultClockHz uint32 = 6_500_000

	// ResetBytes is the zero prefix that holds the line low long enough for
	// the strip to latch the previous frame (42 bytes at 6.5MHz is ~52us).
	ResetBytes = 42

	// BytesPerLED is 3 color bytes expanded to one SPI byte per bit.
	BytesPerLED = 3 * 8
)

// BusConfig identifies the SPI device and strip geometry.
type BusConfig struct {
	Bus        uint8
	ChipSelect uint8
	LEDCount   int
	ClockHz    uint32
}

// NewBusConfig returns a config using DefaultClockHz.
func NewBusConfig(bus, chipSelect uint8, ledCount int) BusConfig {
	return BusConfig{
		Bus:        bus,
		ChipSelect: chipSelect,
		LEDCount:   ledCount,
		ClockHz:    DefaultClockHz,
	}
}

// DevicePath returns the spidev node for this bus and chip select.
func (c BusConfig) DevicePath() string {
	return fmt.Sprintf("/dev/spidev%d.%d", c.Bus, c.ChipSelect)
}

// TransmitLen is the size of a full frame on the wire.
func (c BusConfig) TransmitLen() int {
	return ResetBytes + c.LEDCount*BytesPerLED
}

// Validate checks the strip geometry and clock.
func (c BusConfig) Validate() error {
	if c.LEDCount <= 0 {
		return fmt.Errorf("%w: led count must be positive, got %d", ErrInvalidConfig, c.LEDCount)
	}
	if c.ClockHz == 0 {
		return fmt.Errorf("%w: clock must be non-zero", ErrInvalidConfig)
	}
	return nil
}
