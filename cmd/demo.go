package cmd

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/smazurov/stripnode/internal/config"
	"github.com/smazurov/stripnode/internal/led"
	"github.com/smazurov/stripnode/internal/logging"
	"github.com/spf13/cobra"
)

// CreateDemoCmd creates the demo command.
func CreateDemoCmd() *cobra.Command {
	var (
		stripCfg led.Config
		step     time.Duration
		loop     bool
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Play a sequence of colors and animations on the strip",
		Long: `Drives the strip directly, without the event bus, through solid colors, ` +
			`a rainbow, breathe and chase animations. Use --dry-run to log frames ` +
			`instead of writing to SPI. Interrupt to stop; the strip is cleared on exit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logCfg := config.LoadLoggingConfig(configPath(cmd))
			logCfg.Output = cmd.ErrOrStderr()
			logging.Initialize(logCfg)
			logger := logging.GetLogger("led")

			strip, err := led.OpenStrip(stripCfg, logger)
			if err != nil {
				return err
			}
			defer strip.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			for {
				if err := led.RunDemo(ctx, strip, led.DemoSteps(), step, logger); err != nil {
					return err
				}
				if !loop || ctx.Err() != nil {
					return nil
				}
			}
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&stripCfg.Bus, "bus", 0, "SPI bus number")
	flags.IntVar(&stripCfg.ChipSelect, "cs", 1, "SPI chip select")
	flags.IntVarP(&stripCfg.LEDCount, "leds", "n", 11, "Number of LEDs")
	flags.IntVar(&stripCfg.ClockHz, "clock", 0, "SPI clock in Hz (0 for default)")
	flags.BoolVar(&stripCfg.DryRun, "dry-run", false, "Log frames instead of writing to SPI")
	flags.DurationVar(&step, "step", 3*time.Second, "Time spent on each step")
	flags.BoolVar(&loop, "loop", false, "Repeat until interrupted")
	return cmd
}

// configPath returns the value of the root --config flag, if any.
func configPath(cmd *cobra.Command) string {
	if f := cmd.Flag("config"); f != nil {
		return f.Value.String()
	}
	return ""
}
