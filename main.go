package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/stripnode/cmd"
	"github.com/smazurov/stripnode/internal/config"
	"github.com/smazurov/stripnode/internal/events"
	"github.com/smazurov/stripnode/internal/led"
	"github.com/smazurov/stripnode/internal/logging"
	"github.com/smazurov/stripnode/internal/metrics/exporters"
	"github.com/smazurov/stripnode/internal/nats"
	"github.com/smazurov/stripnode/internal/version"
	"github.com/smazurov/stripnode/internal/ws2812"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Strip settings
	StripBus             int    `help:"SPI bus number" default:"0" toml:"strip.bus" env:"STRIP_BUS"`
	StripChipSelect      int    `help:"SPI chip select" default:"1" toml:"strip.chip_select" env:"STRIP_CHIP_SELECT"`
	StripLEDCount        int    `help:"Number of LEDs on the strip" default:"11" toml:"strip.led_count" env:"STRIP_LED_COUNT"`
	StripClockHz         int    `help:"SPI clock in Hz" default:"6500000" toml:"strip.clock_hz" env:"STRIP_CLOCK_HZ"`
	StripDryRun          bool   `help:"Log frames instead of writing to SPI" default:"false" toml:"strip.dry_run" env:"STRIP_DRY_RUN"`
	StripRetryInterval   string `help:"Wait between failed opens, 0s to give up at once" default:"0s" toml:"strip.retry_interval" env:"STRIP_RETRY_INTERVAL"`
	StripRefreshInterval string `help:"Interval between strip refreshes" default:"33ms" toml:"strip.refresh_interval" env:"STRIP_REFRESH_INTERVAL"`
	StripQueueCapacity   int    `help:"Pending command limit" default:"100" toml:"strip.queue_capacity" env:"STRIP_QUEUE_CAPACITY"`

	// Metrics settings
	MetricsAddr string `help:"Prometheus listen address, empty to disable" default:":9110" toml:"metrics.addr" env:"METRICS_ADDR"`

	// NATS settings
	NatsURL     string `help:"NATS server URL, empty to disable" default:"" toml:"nats.url" env:"NATS_URL"`
	NatsSubject string `help:"Subject carrying strip commands" default:"stripnode.strip.command" toml:"nats.subject" env:"NATS_SUBJECT"`

	// Logging settings
	LoggingLevel   string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat  string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingLED     string `help:"Strip task logging level" default:"info" toml:"logging.led" env:"LOGGING_LED"`
	LoggingEncoder string `help:"Encoder logging level" default:"info" toml:"logging.ws2812" env:"LOGGING_WS2812"`
	LoggingNats    string `help:"NATS logging level" default:"info" toml:"logging.nats" env:"LOGGING_NATS"`
	LoggingConfig  string `help:"Config watcher logging level" default:"info" toml:"logging.config" env:"LOGGING_CONFIG"`
}

func (o *Options) stripConfig() led.Config {
	return led.Config{
		Bus:        o.StripBus,
		ChipSelect: o.StripChipSelect,
		LEDCount:   o.StripLEDCount,
		ClockHz:    o.StripClockHz,
		DryRun:     o.StripDryRun,
	}
}

func parseDuration(name, value string, fallback time.Duration, logger *slog.Logger) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		logger.Warn("Invalid duration, using default", "option", name, "value", value, "default", fallback)
		return fallback
	}
	return d
}

// commandPayload converts the config file command into a bus payload.
func commandPayload(dc config.DefaultCommand) (string, error) {
	if !dc.Enable {
		return led.EncodeCommand(led.Off())
	}
	c := ws2812.NewColor(dc.Red, dc.Green, dc.Blue)
	return led.EncodeCommand(led.Breathe(c, dc.Frequency, dc.Scale))
}

// logTaskStopped writes the shutdown record of the strip task, including
// the error that ended it, if any.
func logTaskStopped(logger *slog.Logger, info led.Info, err error) {
	if err != nil {
		logger.Warn("Strip task stopped", "state", info.State, "frames_shown", info.FramesShown, "error", err)
		return
	}
	logger.Info("Strip task stopped", "state", info.State, "frames_shown", info.FramesShown)
}

func main() {
	var cli humacli.CLI

	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		// Initialize logging system
		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"led":    opts.LoggingLED,
				"ws2812": opts.LoggingEncoder,
				"nats":   opts.LoggingNats,
				"config": opts.LoggingConfig,
			},
		})

		logger := logging.GetLogger("main")

		stripCfg := opts.stripConfig()
		device := stripCfg.DevicePath()

		// The config file command is applied once the strip opens.
		var initial string
		fileCfg, fileErr := config.LoadFile(opts.Config)
		switch {
		case fileErr != nil && !errors.Is(fileErr, os.ErrNotExist):
			logger.Warn("Failed to read config file", "path", opts.Config, "error", fileErr)
		case fileErr == nil && fileCfg.Command != nil:
			payload, payloadErr := commandPayload(*fileCfg.Command)
			if payloadErr != nil {
				logger.Warn("Ignoring default command", "error", payloadErr)
			} else {
				initial = payload
			}
		}

		eventBus := events.New()

		task := led.NewTask(led.TaskOptions{
			Open:            led.NewOpener(stripCfg, logging.GetLogger("ws2812")),
			EventBus:        eventBus,
			Logger:          logging.GetLogger("led"),
			Device:          device,
			RefreshInterval: parseDuration("strip-refresh-interval", opts.StripRefreshInterval, led.DefaultRefreshInterval, logger),
			QueueCapacity:   opts.StripQueueCapacity,
			RetryInterval:   parseDuration("strip-retry-interval", opts.StripRetryInterval, 0, logger),
			Initial:         initial,
		})

		var metricsServer *exporters.Server
		if opts.MetricsAddr != "" {
			metricsServer = exporters.NewServer(opts.MetricsAddr, logging.GetLogger("metrics"))
		}

		var bridge *nats.Bridge
		if opts.NatsURL != "" {
			bridge = nats.NewBridge(nats.BridgeOptions{
				URL:            opts.NatsURL,
				CommandSubject: opts.NatsSubject,
				Device:         device,
				Logger:         logging.GetLogger("nats"),
			}, eventBus)
		}

		watcher := config.NewConfigWatcher(opts.Config, config.LoadFile, logging.GetLogger("config"))
		watcher.OnReload(func(f config.File) {
			for module, level := range f.ModuleLevels() {
				if !logging.SetModuleLevel(module, level) {
					logger.Warn("Unknown logging level in config", "module", module, "level", level)
				}
			}
			if f.Command == nil {
				return
			}
			payload, payloadErr := commandPayload(*f.Command)
			if payloadErr != nil {
				logger.Warn("Ignoring default command", "error", payloadErr)
				return
			}
			eventBus.PublishCommand(payload, "config")
		})

		ctx, cancel := context.WithCancel(context.Background())
		taskDone := make(chan struct{})
		// Written before taskDone is closed.
		var taskErr error

		hooks.OnStart(func() {
			logger.Info("Starting stripnode", "version", version.String(), "device", device, "leds", stripCfg.LEDCount)

			if cfgErr := stripCfg.Validate(); cfgErr != nil {
				logger.Error("Invalid strip configuration", "error", cfgErr)
				os.Exit(1)
			}

			if metricsServer != nil {
				if _, startErr := metricsServer.Start(); startErr != nil {
					logger.Error("Failed to start metrics server", "addr", opts.MetricsAddr, "error", startErr)
					os.Exit(1)
				}
			}

			go func() {
				defer close(taskDone)
				// Failures are logged and published by the task; the
				// process stays up so metrics keep reporting it.
				taskErr = task.Run(ctx)
			}()

			if bridge != nil {
				if startErr := bridge.Start(); startErr != nil {
					logger.Warn("NATS bridge unavailable, continuing without it", "url", opts.NatsURL, "error", startErr)
				}
			}

			if startErr := watcher.Start(); startErr != nil {
				logger.Warn("Config reload disabled", "path", opts.Config, "error", startErr)
			}

			if sent, notifyErr := daemon.SdNotify(false, daemon.SdNotifyReady); notifyErr != nil {
				logger.Warn("Failed to notify systemd", "error", notifyErr)
			} else if sent {
				logger.Debug("Notified systemd of readiness")
			}

			<-ctx.Done()
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

			// Stop command sources before the task so nothing arrives late.
			if stopErr := watcher.Stop(); stopErr != nil {
				logger.Warn("Error stopping config watcher", "error", stopErr)
			}
			if bridge != nil {
				bridge.Stop()
			}

			cancel()
			select {
			case <-taskDone:
				logTaskStopped(logger, task.Info(), taskErr)
			case <-time.After(5 * time.Second):
				logger.Error("Timed out waiting for strip task", "state", task.Info().State)
			}

			if metricsServer != nil {
				stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer stopCancel()
				if stopErr := metricsServer.Stop(stopCtx); stopErr != nil {
					logger.Error("Error stopping metrics server", "error", stopErr)
				}
			}
		})
	})

	root := cli.Root()
	root.Use = "stripnode"
	root.Short = "Drive a WS2812 LED strip over SPI"
	root.Version = version.String()

	root.AddCommand(cmd.CreateFrameCmd())
	root.AddCommand(cmd.CreateDemoCmd())
	root.AddCommand(cmd.CreateSendCmd())
	root.AddCommand(cmd.CreateVersionCmd())

	// Run the CLI
	cli.Run()
}
