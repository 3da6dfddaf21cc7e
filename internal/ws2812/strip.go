// Package ws2812 drives a WS2812 LED strip over an SPI bus by expanding each
// data bit into one SPI byte whose high time encodes a short or long pulse.
package ws2812

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// Strip owns the LED buffer, the transmit buffer and the SPI connection.
// All buffer access goes through mu; animations only write through it.
type Strip struct {
	cfg    BusConfig
	port   spi.Port
	conn   spi.Conn
	logger *slog.Logger

	mu     sync.Mutex
	leds   []Color
	tx     []byte
	closed bool

	animMu   sync.Mutex
	anim     *animation
	shutdown bool

	closeOnce sync.Once
	closeErr  error
}

// Open validates cfg, checks the device node exists and connects to it
// through the periph.io host drivers.
func Open(cfg BusConfig, logger *slog.Logger) (*Strip, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	path := cfg.DevicePath()
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, path)
		}
		return nil, fmt.Errorf("%w: stat %s: %v", ErrBus, path, err)
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%w: host init: %v", ErrBus, err)
	}

	port, err := spireg.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrBus, path, err)
	}

	s, err := New(port, cfg, logger)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	return s, nil
}

// New connects to an already opened port. If port implements io.Closer it
// is closed by Close.
func New(port spi.Port, cfg BusConfig, logger *slog.Logger) (*Strip, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := port.Connect(physic.Frequency(cfg.ClockHz)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("%w: connect %s: %v", ErrBus, port, err)
	}

	logger.Info("WS2812 strip connected",
		"device", cfg.DevicePath(),
		"leds", cfg.LEDCount,
		"clock_hz", cfg.ClockHz)

	return &Strip{
		cfg:    cfg,
		port:   port,
		conn:   conn,
		logger: logger,
		leds:   make([]Color, cfg.LEDCount),
		tx:     make([]byte, cfg.TransmitLen()),
	}, nil
}

// Config returns the bus configuration the strip was built with.
func (s *Strip) Config() BusConfig {
	return s.cfg
}

// Len returns the number of LEDs.
func (s *Strip) Len() int {
	return s.cfg.LEDCount
}

// SetLED sets one LED. The buffer is unchanged on error.
func (s *Strip) SetLED(i int, c Color) error {
	if i < 0 || i >= s.cfg.LEDCount {
		return fmt.Errorf("%w: %d (len %d)", ErrIndex, i, s.cfg.LEDCount)
	}
	s.mu.Lock()
	s.leds[i] = c
	s.mu.Unlock()
	return nil
}

// GetLED returns the buffered color of one LED.
func (s *Strip) GetLED(i int) (Color, error) {
	if i < 0 || i >= s.cfg.LEDCount {
		return Black, fmt.Errorf("%w: %d (len %d)", ErrIndex, i, s.cfg.LEDCount)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leds[i], nil
}

// Fill sets every LED to c.
func (s *Strip) Fill(c Color) {
	s.mu.Lock()
	fill(s.leds, c)
	s.mu.Unlock()
}

// SetLEDs copies up to Len colors and blacks out the rest.
func (s *Strip) SetLEDs(colors []Color) {
	s.mu.Lock()
	n := copy(s.leds, colors)
	fill(s.leds[n:], Black)
	s.mu.Unlock()
}

// Snapshot returns a copy of the LED buffer.
func (s *Strip) Snapshot() []Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Color, len(s.leds))
	copy(out, s.leds)
	return out
}

// Show encodes the buffer and sends it as one synchronous transfer.
func (s *Strip) Show() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	EncodeFrame(s.tx, s.leds)
	if err := s.conn.Tx(s.tx, nil); err != nil {
		return fmt.Errorf("%w: transfer: %v", ErrBus, err)
	}
	return nil
}

// Clear blacks out the buffer and shows it.
func (s *Strip) Clear() error {
	s.Fill(Black)
	return s.Show()
}

// Close stops any animation, clears the strip and releases the port.
// Calling Close more than once returns the first result.
func (s *Strip) Close() error {
	s.closeOnce.Do(func() {
		s.animMu.Lock()
		s.stopLocked()
		s.shutdown = true
		s.animMu.Unlock()

		if err := s.Clear(); err != nil {
			s.logger.Warn("Failed to clear strip on close", "error", err)
			s.closeErr = err
		}

		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		if c, ok := s.port.(io.Closer); ok {
			if err := c.Close(); err != nil && s.closeErr == nil {
				s.closeErr = fmt.Errorf("%w: close: %v", ErrBus, err)
			}
		}
		s.logger.Info("WS2812 strip closed", "device", s.cfg.DevicePath())
	})
	return s.closeErr
}

func fill(leds []Color, c Color) {
	for i := range leds {
		leds[i] = c
	}
}
