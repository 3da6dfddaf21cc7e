package ws2812

import (
	"context"
	"fmt"
	"math"
	"time"
)

const (
	// RefreshFPS is the rate at which animation frames are computed.
	RefreshFPS = 30
	// MinBreatheFrames is the fewest samples a breathe cycle may have.
	MinBreatheFrames = 6
	// MaxCycleFrames bounds one animation cycle so frame counters never
	// overflow. At RefreshFPS it is over two years.
	MaxCycleFrames = math.MaxInt32
)

// FramePeriod is the duration of one animation frame.
const FramePeriod = time.Second / RefreshFPS

// Pattern identifies the active animation.
type Pattern int

// Animation patterns.
const (
	PatternNone Pattern = iota
	PatternBreathe
	PatternChase
)

func (p Pattern) String() string {
	switch p {
	case PatternBreathe:
		return "breathe"
	case PatternChase:
		return "chase"
	default:
		return "none"
	}
}

// pattern is the tagged variant a worker renders from.
type pattern struct {
	kind      Pattern
	color     Color
	frames    int
	perLED    int
	clockwise bool
}

type animation struct {
	pattern pattern
	cancel  context.CancelFunc
	done    chan struct{}
}

// BreatheFrames returns the number of frames in one breathe cycle at hz.
func BreatheFrames(hz float64) (int, error) {
	if err := checkFrequency(hz); err != nil {
		return 0, err
	}
	frames := math.Round(RefreshFPS / hz)
	if frames < MinBreatheFrames {
		return 0, fmt.Errorf("%w: %.3g Hz needs %d frames per cycle, minimum is %d",
			ErrFrequencyTooHigh, hz, int(frames), MinBreatheFrames)
	}
	if frames > MaxCycleFrames {
		return 0, fmt.Errorf("%w: %.3g Hz is too slow", ErrInvalidFrequency, hz)
	}
	return int(frames), nil
}

// ChaseFramesPerLED returns how many frames each LED stays lit at hz.
func ChaseFramesPerLED(hz float64, ledCount int) (int, error) {
	if err := checkFrequency(hz); err != nil {
		return 0, err
	}
	perLED := math.Max(1, math.Ceil(RefreshFPS/hz/float64(ledCount)))
	if perLED*float64(ledCount) > MaxCycleFrames {
		return 0, fmt.Errorf("%w: %.3g Hz is too slow", ErrInvalidFrequency, hz)
	}
	return int(perLED), nil
}

func checkFrequency(hz float64) error {
	if math.IsNaN(hz) || math.IsInf(hz, 0) || hz <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidFrequency, hz)
	}
	return nil
}

// StartBreathe replaces any running animation with a cosine brightness
// envelope of c at hz cycles per second. On error nothing is started and
// the previous animation is left stopped.
func (s *Strip) StartBreathe(c Color, hz float64) error {
	s.animMu.Lock()
	defer s.animMu.Unlock()

	s.stopLocked()
	if s.shutdown {
		return ErrClosed
	}

	frames, err := BreatheFrames(hz)
	if err != nil {
		return err
	}

	s.startLocked(pattern{kind: PatternBreathe, color: c, frames: frames})
	s.logger.Debug("Breathe started", "color", c.String(), "hz", hz, "frames", frames)
	return nil
}

// StartChase replaces any running animation with a single lit LED that
// travels the strip once per 1/hz seconds.
func (s *Strip) StartChase(c Color, hz float64, clockwise bool) error {
	s.animMu.Lock()
	defer s.animMu.Unlock()

	s.stopLocked()
	if s.shutdown {
		return ErrClosed
	}

	perLED, err := ChaseFramesPerLED(hz, s.cfg.LEDCount)
	if err != nil {
		return err
	}

	s.startLocked(pattern{
		kind:      PatternChase,
		color:     c,
		frames:    perLED * s.cfg.LEDCount,
		perLED:    perLED,
		clockwise: clockwise,
	})
	s.logger.Debug("Chase started", "color", c.String(), "hz", hz, "frames_per_led", perLED, "clockwise", clockwise)
	return nil
}

// StopAnimation stops the running animation and waits for its worker to
// exit. It is a no-op when nothing is running.
func (s *Strip) StopAnimation() {
	s.animMu.Lock()
	s.stopLocked()
	s.animMu.Unlock()
}

// IsAnimating reports whether an animation worker is running.
func (s *Strip) IsAnimating() bool {
	return s.Pattern() != PatternNone
}

// Pattern returns the running animation, or PatternNone.
func (s *Strip) Pattern() Pattern {
	s.animMu.Lock()
	defer s.animMu.Unlock()
	if s.anim == nil {
		return PatternNone
	}
	return s.anim.pattern.kind
}

func (s *Strip) startLocked(p pattern) {
	ctx, cancel := context.WithCancel(context.Background())
	a := &animation{
		pattern: p,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	s.anim = a
	go s.animate(ctx, a)
}

func (s *Strip) stopLocked() {
	if s.anim == nil {
		return
	}
	s.anim.cancel()
	<-s.anim.done
	s.logger.Debug("Animation stopped", "pattern", s.anim.pattern.kind.String())
	s.anim = nil
}

// animate renders frames until ctx is cancelled. Each frame sleeps for what
// is left of FramePeriod after rendering.
func (s *Strip) animate(ctx context.Context, a *animation) {
	defer close(a.done)

	timer := time.NewTimer(FramePeriod)
	timer.Stop()
	defer timer.Stop()

	frame := 0
	for {
		if ctx.Err() != nil {
			return
		}
		start := time.Now()

		s.mu.Lock()
		a.pattern.render(frame, s.leds)
		s.mu.Unlock()

		frame = (frame + 1) % a.pattern.frames

		wait := FramePeriod - time.Since(start)
		if wait < 0 {
			wait = 0
		}
		timer.Reset(wait)
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}
}

// render writes frame of the pattern into leds.
func (p pattern) render(frame int, leds []Color) {
	switch p.kind {
	case PatternBreathe:
		fill(leds, p.color.Scale(BreatheIntensity(frame, p.frames)))
	case PatternChase:
		fill(leds, Black)
		idx := frame / p.perLED
		if p.clockwise {
			idx = len(leds) - 1 - idx
		}
		if idx >= 0 && idx < len(leds) {
			leds[idx] = p.color
		}
	}
}

// BreatheIntensity is (cos(2*pi*frame/frames)+1)/2, in [0, 1].
func BreatheIntensity(frame, frames int) float32 {
	phase := 2 * math.Pi * float64(frame) / float64(frames)
	return float32((math.Cos(phase) + 1) / 2)
}
