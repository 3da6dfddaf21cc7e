package led

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/smazurov/stripnode/internal/ws2812"
	"periph.io/x/conn/v3/spi/spitest"
)

// frameLogger receives the frames a dry-run strip would have transmitted
// and logs them when they change.
type frameLogger struct {
	logger *slog.Logger
	mu     sync.Mutex
	last   []ws2812.Color
}

func (f *frameLogger) Write(p []byte) (int, error) {
	leds := ws2812.DecodeFrame(p)

	f.mu.Lock()
	changed := !slices.Equal(leds, f.last)
	f.last = leds
	f.mu.Unlock()

	if changed && len(leds) > 0 {
		f.logger.Debug("Dry-run frame",
			"bytes", len(p),
			"leds", len(leds),
			"first", leds[0].String(),
			"last", leds[len(leds)-1].String())
	}
	return len(p), nil
}

// newDryRun builds a strip on a recording SPI port.
func newDryRun(cfg ws2812.BusConfig, logger *slog.Logger) (*ws2812.Strip, error) {
	return ws2812.New(spitest.NewRecordRaw(&frameLogger{logger: logger}), cfg, logger)
}
