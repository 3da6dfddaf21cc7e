package ws2812

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColorScale(t *testing.T) {
	tests := []struct {
		name   string
		color  Color
		factor float32
		want   Color
	}{
		{"zero is black", NewColor(10, 200, 255), 0, Black},
		{"one is identity", NewColor(10, 200, 255), 1, NewColor(10, 200, 255)},
		{"half white truncates", White, 0.5, NewColor(127, 127, 127)},
		{"above one clamps", NewColor(1, 2, 3), 4, NewColor(1, 2, 3)},
		{"negative clamps", White, -0.5, Black},
		{"blue half", Blue, 0.5, NewColor(0, 0, 127)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.color.Scale(tt.factor))
		})
	}
}

func TestColorScaleMonotonic(t *testing.T) {
	c := NewColor(255, 128, 3)
	prev := c.Scale(0)
	for f := float32(0.05); f <= 1; f += 0.05 {
		got := c.Scale(f)
		assert.GreaterOrEqual(t, got.R, prev.R, "factor %v", f)
		assert.GreaterOrEqual(t, got.G, prev.G, "factor %v", f)
		assert.GreaterOrEqual(t, got.B, prev.B, "factor %v", f)
		prev = got
	}
}

func TestColorWireOrder(t *testing.T) {
	assert.Equal(t, [3]byte{2, 1, 3}, NewColor(1, 2, 3).WireOrder())
	assert.Equal(t, [3]byte{255, 0, 0}, Green.WireOrder())
}

func TestColorString(t *testing.T) {
	assert.Equal(t, "#ff0080", NewColor(255, 0, 128).String())
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#ff0080")
	require.NoError(t, err)
	assert.Equal(t, NewColor(255, 0, 128), c)

	c, err = ParseColor(" 0000FF ")
	require.NoError(t, err)
	assert.Equal(t, Blue, c)

	for _, bad := range []string{"", "#fff", "#gg0000", "ff00ff00"} {
		_, err := ParseColor(bad)
		assert.Error(t, err, bad)
	}
}

func TestHSV(t *testing.T) {
	assert.Equal(t, Red, HSV(0, 1, 1))
	assert.Equal(t, Green, HSV(120, 1, 1))
	assert.Equal(t, Blue, HSV(240, 1, 1))
	assert.Equal(t, Red, HSV(360, 1, 1))
	assert.Equal(t, Black, HSV(90, 1, 0))
}
