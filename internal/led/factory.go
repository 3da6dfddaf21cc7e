package led

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"
	"sync"

	"github.com/smazurov/stripnode/internal/ws2812"
)

const deviceTreeModelPath = "/proc/device-tree/model"

// Config selects the SPI device and strip geometry.
type Config struct {
	Bus        int
	ChipSelect int
	LEDCount   int
	ClockHz    int
	// DryRun replaces the SPI device with a recorder that logs frames.
	DryRun bool
}

// DevicePath returns the spidev node c refers to. It does not validate c.
func (c Config) DevicePath() string {
	return fmt.Sprintf("/dev/spidev%d.%d", c.Bus, c.ChipSelect)
}

// Validate reports flag values the encoder configuration cannot hold.
func (c Config) Validate() error {
	_, err := c.BusConfig()
	return err
}

// BusConfig converts c to the encoder configuration. Values outside the
// spidev ranges are rejected rather than truncated onto another device.
// A zero ClockHz selects the default.
func (c Config) BusConfig() (ws2812.BusConfig, error) {
	if c.Bus < 0 || c.Bus > math.MaxUint8 {
		return ws2812.BusConfig{}, fmt.Errorf("%w: bus %d out of range 0-255", ws2812.ErrInvalidConfig, c.Bus)
	}
	if c.ChipSelect < 0 || c.ChipSelect > math.MaxUint8 {
		return ws2812.BusConfig{}, fmt.Errorf("%w: chip select %d out of range 0-255", ws2812.ErrInvalidConfig, c.ChipSelect)
	}
	if c.ClockHz < 0 || uint64(c.ClockHz) > math.MaxUint32 {
		return ws2812.BusConfig{}, fmt.Errorf("%w: clock %d Hz out of range", ws2812.ErrInvalidConfig, c.ClockHz)
	}

	cfg := ws2812.NewBusConfig(uint8(c.Bus), uint8(c.ChipSelect), c.LEDCount)
	if c.ClockHz > 0 {
		cfg.ClockHz = uint32(c.ClockHz)
	}
	return cfg, cfg.Validate()
}

// OpenStrip opens the strip described by cfg, or a recording strip when
// DryRun is set.
func OpenStrip(cfg Config, logger *slog.Logger) (*ws2812.Strip, error) {
	busCfg, err := cfg.BusConfig()
	if err != nil {
		return nil, err
	}
	if cfg.DryRun {
		return newDryRun(busCfg, logger)
	}
	return ws2812.Open(busCfg, logger)
}

// NewOpener returns an Opener for cfg. Dry-run strips never fail to open.
// The target is logged on the first call only.
func NewOpener(cfg Config, logger *slog.Logger) Opener {
	var once sync.Once
	return func() (Strip, error) {
		once.Do(func() {
			device := cfg.DevicePath()
			if cfg.DryRun {
				logger.Info("Dry run enabled, frames will be logged instead of sent", "device", device)
			} else {
				logger.Info("Opening SPI strip", "board_model", detectBoard(), "device", device)
			}
		})

		// A nil *ws2812.Strip must not become a non-nil Strip.
		s, err := OpenStrip(cfg, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// detectBoard reads the device tree model to identify the board.
func detectBoard() string {
	data, err := os.ReadFile(deviceTreeModelPath)
	if err != nil {
		return "unknown"
	}

	// Device tree model contains null bytes, trim them
	model := strings.TrimRight(string(data), "\x00")
	return model
}
