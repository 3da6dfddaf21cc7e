package led

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/smazurov/stripnode/internal/ws2812"
)

// DemoStep is one stage of the demo sequence. Setup runs once; Frame, if
// set, runs before every refresh with the frame number within the step.
type DemoStep struct {
	Name  string
	Setup func(s *ws2812.Strip) error
	Frame func(s *ws2812.Strip, n int)
}

var purple = ws2812.NewColor(128, 0, 128)

// DemoSteps returns the built-in demo sequence.
func DemoSteps() []DemoStep {
	static := func(c ws2812.Color) func(*ws2812.Strip) error {
		return func(s *ws2812.Strip) error {
			s.Fill(c)
			return nil
		}
	}
	rainbow := func(scale float32) func(*ws2812.Strip) error {
		return func(s *ws2812.Strip) error {
			s.SetLEDs(rainbowColors(s.Len(), 0, scale))
			return nil
		}
	}

	return []DemoStep{
		{Name: "red", Setup: static(ws2812.Red)},
		{Name: "green", Setup: static(ws2812.Green)},
		{Name: "blue", Setup: static(ws2812.Blue)},
		{Name: "rainbow", Setup: rainbow(1)},
		{Name: "dim rainbow", Setup: rainbow(0.3)},
		{Name: "breathe red", Setup: func(s *ws2812.Strip) error {
			return s.StartBreathe(ws2812.Red, 1)
		}},
		{Name: "breathe green", Setup: func(s *ws2812.Strip) error {
			return s.StartBreathe(ws2812.Green, 0.5)
		}},
		{Name: "chase blue", Setup: func(s *ws2812.Strip) error {
			return s.StartChase(ws2812.Blue, 1, true)
		}},
		{Name: "chase purple", Setup: func(s *ws2812.Strip) error {
			return s.StartChase(purple, 0.5, false)
		}},
		{Name: "color cycle", Frame: func(s *ws2812.Strip, n int) {
			s.Fill(ws2812.HSV(float64(n*3), 1, 1))
		}},
		{Name: "rainbow wave", Frame: func(s *ws2812.Strip, n int) {
			s.SetLEDs(rainbowColors(s.Len(), float64(n*6), 1))
		}},
	}
}

// rainbowColors spreads the hue circle across n LEDs starting at offset.
func rainbowColors(n int, offset float64, scale float32) []ws2812.Color {
	colors := make([]ws2812.Color, n)
	for i := range colors {
		hue := offset + float64(i)*360/float64(n)
		colors[i] = ws2812.HSV(hue, 1, 1).Scale(scale)
	}
	return colors
}

// RunDemo plays steps on s, holding each for step, and refreshes the strip
// every frame period. The strip is cleared before returning.
func RunDemo(ctx context.Context, s *ws2812.Strip, steps []DemoStep, step time.Duration, logger *slog.Logger) (err error) {
	defer func() {
		s.StopAnimation()
		if clearErr := s.Clear(); clearErr != nil && err == nil {
			err = clearErr
		}
	}()

	ticker := time.NewTicker(ws2812.FramePeriod)
	defer ticker.Stop()

	for _, st := range steps {
		s.StopAnimation()
		s.SetLEDs(nil)
		if st.Setup != nil {
			if setupErr := st.Setup(s); setupErr != nil {
				return fmt.Errorf("demo step %s: %w", st.Name, setupErr)
			}
		}
		logger.Info("Demo step", "name", st.Name, "duration", step)

		deadline := time.NewTimer(step)
		for n := 0; ; n++ {
			if st.Frame != nil {
				st.Frame(s, n)
			}
			if showErr := s.Show(); showErr != nil {
				deadline.Stop()
				return showErr
			}

			select {
			case <-ctx.Done():
				deadline.Stop()
				return nil
			case <-deadline.C:
			case <-ticker.C:
				continue
			}
			break
		}
	}
	return nil
}
