package led

import (
	"context"
	"testing"
	"time"

	"github.com/smazurov/stripnode/internal/ws2812"
	"periph.io/x/conn/v3/spi/spitest"
)

func newRecordedStrip(t *testing.T, leds int) (*ws2812.Strip, *frameRecorder) {
	t.Helper()
	rec := &frameRecorder{}
	s, err := ws2812.New(spitest.NewRecordRaw(rec), ws2812.NewBusConfig(0, 1, leds), testLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, rec
}

func TestRainbowColors(t *testing.T) {
	colors := rainbowColors(3, 0, 1)
	want := []ws2812.Color{ws2812.Red, ws2812.Green, ws2812.Blue}
	for i := range want {
		if colors[i] != want[i] {
			t.Errorf("colors[%d] = %s, want %s", i, colors[i], want[i])
		}
	}

	dim := rainbowColors(1, 0, 0.3)
	if dim[0] != ws2812.Red.Scale(0.3) {
		t.Errorf("dim = %s, want %s", dim[0], ws2812.Red.Scale(0.3))
	}
}

func TestDemoStepsSetUp(t *testing.T) {
	s, _ := newRecordedStrip(t, 11)

	for _, st := range DemoSteps() {
		s.StopAnimation()
		if st.Setup != nil {
			if err := st.Setup(s); err != nil {
				t.Errorf("step %s: %v", st.Name, err)
			}
		}
		if st.Frame != nil {
			st.Frame(s, 1)
		}
	}
}

func TestRunDemo(t *testing.T) {
	s, rec := newRecordedStrip(t, 4)

	steps := []DemoStep{
		{Name: "red", Setup: func(s *ws2812.Strip) error {
			s.Fill(ws2812.Red)
			return nil
		}},
		{Name: "cycle", Frame: func(s *ws2812.Strip, n int) {
			s.Fill(ws2812.HSV(float64(n*90), 1, 1))
		}},
	}

	if err := RunDemo(context.Background(), s, steps, 100*time.Millisecond, testLogger()); err != nil {
		t.Fatalf("RunDemo failed: %v", err)
	}

	rec.mu.Lock()
	frames := len(rec.frames)
	first := ws2812.DecodeFrame(rec.frames[0])
	rec.mu.Unlock()

	if frames < 4 {
		t.Errorf("frames = %d, want several", frames)
	}
	if first[0] != ws2812.Red {
		t.Errorf("first frame LED 0 = %s, want red", first[0])
	}
	for i, c := range ws2812.DecodeFrame(rec.last()) {
		if !c.IsBlack() {
			t.Errorf("LED %d = %s after demo, want black", i, c)
		}
	}
}

func TestRunDemoCancel(t *testing.T) {
	s, _ := newRecordedStrip(t, 2)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- RunDemo(ctx, s, DemoSteps(), time.Hour, testLogger())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("RunDemo = %v, want nil on cancel", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("RunDemo did not return after cancel")
	}
	if s.IsAnimating() {
		t.Error("animation still running after demo")
	}
}
