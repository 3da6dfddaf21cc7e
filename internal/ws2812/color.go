package ws2812

import (
	"encoding/hex"
	"fmt"
	"math"
	"strings"
)

// Color is an 8-bit RGB triple in storage order.
type Color struct {
	R uint8 `json:"red"`
	G uint8 `json:"green"`
	B uint8 `json:"blue"`
}

// Predefined colors.
var (
	Black = Color{}
	White = Color{R: 255, G: 255, B: 255}
	Red   = Color{R: 255}
	Green = Color{G: 255}
	Blue  = Color{B: 255}
)

// NewColor returns the color with the given channels.
func NewColor(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// Scale multiplies every channel by factor, clamped to [0, 1].
// Channels are truncated toward zero, so White.Scale(0.5) is 127 per channel.
func (c Color) Scale(factor float32) Color {
	if math.IsNaN(float64(factor)) || factor < 0 {
		factor = 0
	} else if factor > 1 {
		factor = 1
	}
	return Color{
		R: uint8(float32(c.R) * factor),
		G: uint8(float32(c.G) * factor),
		B: uint8(float32(c.B) * factor),
	}
}

// WireOrder returns the channels in the G-R-B order the strip expects.
func (c Color) WireOrder() [3]byte {
	return [3]byte{c.G, c.R, c.B}
}

// IsBlack reports whether every channel is zero.
func (c Color) IsBlack() bool {
	return c == Black
}

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseColor parses "#rrggbb" or "rrggbb".
func ParseColor(s string) (Color, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(raw) != 6 {
		return Color{}, fmt.Errorf("color %q: want 6 hex digits", s)
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return Color{}, fmt.Errorf("color %q: %w", s, err)
	}
	return Color{R: b[0], G: b[1], B: b[2]}, nil
}

// HSV converts hue in degrees and saturation/value in [0, 1] to a Color.
func HSV(h, s, v float64) Color {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c

	var r, g, b float64
	switch {
	case h < 60:
		r, g = c, x
	case h < 120:
		r, g = x, c
	case h < 180:
		g, b = c, x
	case h < 240:
		g, b = x, c
	case h < 300:
		r, b = x, c
	default:
		r, b = c, x
	}
	return Color{
		R: uint8((r + m) * 255),
		G: uint8((g + m) * 255),
		B: uint8((b + m) * 255),
	}
}
