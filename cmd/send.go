package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/smazurov/stripnode/internal/config"
	"github.com/smazurov/stripnode/internal/led"
	"github.com/smazurov/stripnode/internal/logging"
	"github.com/smazurov/stripnode/internal/nats"
	"github.com/smazurov/stripnode/internal/ws2812"
	"github.com/spf13/cobra"
)

// CreateSendCmd creates the send command.
func CreateSendCmd() *cobra.Command {
	var (
		off       bool
		colorHex  string
		frequency float64
		scale     float64
		natsURL   string
		subject   string
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Build a strip command and optionally publish it",
		Long: `Builds a JSON strip command from flags and prints it. With --nats-url the ` +
			`command is also published to the node's command subject.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			command := led.Off()
			if !off {
				c, err := ws2812.ParseColor(colorHex)
				if err != nil {
					return err
				}
				command = led.Breathe(c, frequency, scale)
			}

			payload, err := buildPayload(command)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), payload)

			if natsURL == "" {
				return nil
			}

			logCfg := config.LoadLoggingConfig(configPath(cmd))
			logCfg.Output = cmd.ErrOrStderr()
			logging.Initialize(logCfg)

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			pub := nats.NewPublisher(natsURL, subject, logging.GetLogger("nats"))
			return pub.Publish(ctx, []byte(payload))
		},
	}

	cmd.Flags().BoolVar(&off, "off", false, "Turn the strip off")
	cmd.Flags().StringVar(&colorHex, "color", "#0000ff", "Color as #rrggbb")
	cmd.Flags().Float64Var(&frequency, "frequency", 1, "Breathe frequency in Hz")
	cmd.Flags().Float64Var(&scale, "scale", 1, "Brightness scale (0-1)")
	cmd.Flags().StringVar(&natsURL, "nats-url", "", "NATS server to publish to")
	cmd.Flags().StringVar(&subject, "subject", nats.DefaultCommandSubject, "NATS command subject")
	cmd.Flags().DurationVar(&timeout, "timeout", nats.DefaultPublishTimeout, "Publish timeout")
	return cmd
}

// buildPayload encodes command and rejects frequencies the node would
// refuse, so mistakes surface before anything is sent.
func buildPayload(command led.Command) (string, error) {
	if command.Enable && command.Status != nil {
		if _, err := ws2812.BreatheFrames(command.Status.Frequency); err != nil {
			return "", err
		}
	}
	return led.EncodeCommand(command)
}
