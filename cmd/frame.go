package cmd

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/smazurov/stripnode/internal/ws2812"
	"github.com/spf13/cobra"
)

// CreateFrameCmd creates the frame command.
func CreateFrameCmd() *cobra.Command {
	var (
		colorHex string
		leds     int
		scale    float64
	)

	cmd := &cobra.Command{
		Use:   "frame",
		Short: "Print the SPI frame for a solid color",
		Long: `Encodes one solid-color frame the way it would be written to the SPI bus ` +
			`and prints it as a hex dump. No hardware is touched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := ws2812.ParseColor(colorHex)
			if err != nil {
				return err
			}
			return writeFrame(cmd.OutOrStdout(), c.Scale(float32(scale)), leds)
		},
	}

	cmd.Flags().StringVar(&colorHex, "color", "#0000ff", "Color as #rrggbb")
	cmd.Flags().IntVarP(&leds, "leds", "n", 11, "Number of LEDs")
	cmd.Flags().Float64Var(&scale, "scale", 1, "Brightness scale (0-1)")
	return cmd
}

func writeFrame(w io.Writer, c ws2812.Color, leds int) error {
	cfg := ws2812.NewBusConfig(0, 0, leds)
	if err := cfg.Validate(); err != nil {
		return err
	}

	colors := make([]ws2812.Color, leds)
	for i := range colors {
		colors[i] = c
	}
	frame := make([]byte, cfg.TransmitLen())
	ws2812.EncodeFrame(frame, colors)

	fmt.Fprintf(w, "color %s, %d LEDs, %d bytes (%d reset + %d per LED)\n",
		c, leds, len(frame), ws2812.ResetBytes, ws2812.BytesPerLED)
	_, err := io.WriteString(w, hex.Dump(frame))
	return err
}
