package led

import (
	"errors"
	"math"
	"strconv"
	"testing"

	"github.com/smazurov/stripnode/internal/ws2812"
)

func TestConfigBusConfig(t *testing.T) {
	cfg, err := Config{Bus: 0, ChipSelect: 1, LEDCount: 11}.BusConfig()
	if err != nil {
		t.Fatalf("BusConfig failed: %v", err)
	}
	if cfg.DevicePath() != "/dev/spidev0.1" {
		t.Errorf("DevicePath = %s, want /dev/spidev0.1", cfg.DevicePath())
	}
	if cfg.ClockHz != ws2812.DefaultClockHz {
		t.Errorf("ClockHz = %d, want default", cfg.ClockHz)
	}

	cfg, err = Config{LEDCount: 1, ClockHz: 8_000_000}.BusConfig()
	if err != nil {
		t.Fatalf("BusConfig failed: %v", err)
	}
	if cfg.ClockHz != 8_000_000 {
		t.Errorf("ClockHz = %d, want override", cfg.ClockHz)
	}
}

func TestConfigRejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"bus wraps to 0", Config{Bus: 256, ChipSelect: 1, LEDCount: 11}},
		{"chip select wraps to 1", Config{Bus: 0, ChipSelect: 257, LEDCount: 11}},
		{"negative bus", Config{Bus: -1, ChipSelect: 1, LEDCount: 11}},
		{"negative clock", Config{ChipSelect: 1, LEDCount: 11, ClockHz: -1}},
		{"no leds", Config{ChipSelect: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.cfg.BusConfig(); !errors.Is(err, ws2812.ErrInvalidConfig) {
				t.Errorf("BusConfig error = %v, want ErrInvalidConfig", err)
			}
			if err := tt.cfg.Validate(); !errors.Is(err, ws2812.ErrInvalidConfig) {
				t.Errorf("Validate error = %v, want ErrInvalidConfig", err)
			}
		})
	}

	if strconv.IntSize == 64 {
		clock := int64(math.MaxUint32) + 1
		cfg := Config{ChipSelect: 1, LEDCount: 11, ClockHz: int(clock)}
		if err := cfg.Validate(); !errors.Is(err, ws2812.ErrInvalidConfig) {
			t.Errorf("clock wrapping uint32: Validate error = %v, want ErrInvalidConfig", err)
		}
	}

	// The path names what was asked for, not a truncated device
	if got := (Config{Bus: 256, ChipSelect: 257}).DevicePath(); got != "/dev/spidev256.257" {
		t.Errorf("DevicePath = %s", got)
	}
}

func TestNewOpenerRejectsOutOfRange(t *testing.T) {
	open := NewOpener(Config{Bus: 256, ChipSelect: 257, LEDCount: 3, DryRun: true}, testLogger())

	strip, err := open()
	if !errors.Is(err, ws2812.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if strip != nil {
		t.Error("expected nil strip on error")
	}
}

func TestNewOpenerDryRun(t *testing.T) {
	open := NewOpener(Config{Bus: 7, ChipSelect: 7, LEDCount: 3, DryRun: true}, testLogger())

	// Each call gets a fresh recorder, so opening twice must work.
	for i := 0; i < 2; i++ {
		strip, err := open()
		if err != nil {
			t.Fatalf("dry-run open %d failed: %v", i, err)
		}
		if strip.Len() != 3 {
			t.Errorf("Len = %d, want 3", strip.Len())
		}
		if err := strip.Show(); err != nil {
			t.Errorf("Show failed: %v", err)
		}
		if err := strip.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	}
}

func TestNewOpenerMissingDevice(t *testing.T) {
	open := NewOpener(Config{Bus: 250, ChipSelect: 250, LEDCount: 3}, testLogger())

	strip, err := open()
	if !errors.Is(err, ws2812.ErrDeviceNotFound) {
		t.Fatalf("expected ErrDeviceNotFound, got %v", err)
	}
	if strip != nil {
		t.Error("expected nil strip on error")
	}
}

func TestFrameLoggerAcceptsFrames(t *testing.T) {
	f := &frameLogger{logger: testLogger()}
	frame := make([]byte, transmitLen(2))
	ws2812.EncodeFrame(frame, []ws2812.Color{ws2812.Red, ws2812.Blue})

	n, err := f.Write(frame)
	if err != nil || n != len(frame) {
		t.Fatalf("Write = %d, %v", n, err)
	}
	if len(f.last) != 2 || f.last[1] != ws2812.Blue {
		t.Errorf("last = %v", f.last)
	}
}

func TestDetectBoard(t *testing.T) {
	model := detectBoard()

	// Should return a non-empty string (or "unknown")
	if model == "" {
		t.Error("detectBoard() returned empty string")
	}
}
