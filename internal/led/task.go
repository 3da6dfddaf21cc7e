package led

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/smazurov/stripnode/internal/events"
	"github.com/smazurov/stripnode/internal/metrics"
	"github.com/smazurov/stripnode/internal/ws2812"
)

const (
	// DefaultRefreshInterval gives roughly 30 transfers per second.
	DefaultRefreshInterval = 33 * time.Millisecond
	// DefaultQueueCapacity bounds pending commands per task.
	DefaultQueueCapacity = 100
)

// SourceInitial tags the command given in TaskOptions.Initial.
const SourceInitial = "initial"

// TaskOptions configures a Task.
type TaskOptions struct {
	Open     Opener
	EventBus *events.Bus
	Logger   *slog.Logger
	// Device names the strip in logs and error events.
	Device string

	RefreshInterval time.Duration
	QueueCapacity   int
	// RetryInterval is the wait between failed opens. Zero disables retry
	// and Run returns the open error.
	RetryInterval time.Duration
	// Initial is a JSON command applied as soon as the strip is open,
	// before anything from the bus.
	Initial string
}

// Task binds strip commands from the event bus to the encoder and pushes
// the LED buffer to the hardware on a fixed cadence.
type Task struct {
	opts   TaskOptions
	logger *slog.Logger

	mu   sync.RWMutex
	info Info

	shown atomic.Uint64
}

// NewTask creates a strip task. It does nothing until Run is called.
func NewTask(opts TaskOptions) *Task {
	if opts.Open == nil || opts.EventBus == nil {
		panic("TaskOptions with Open and EventBus is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = DefaultRefreshInterval
	}
	if opts.QueueCapacity <= 0 {
		opts.QueueCapacity = DefaultQueueCapacity
	}

	return &Task{
		opts:   opts,
		logger: opts.Logger,
		info:   Info{State: StateIdle},
	}
}

// Info returns a snapshot of the task state.
func (t *Task) Info() Info {
	t.mu.RLock()
	info := t.info
	t.mu.RUnlock()
	info.FramesShown = t.shown.Load()
	return info
}

// Run opens the strip and processes commands until ctx is cancelled or the
// strip fails. Cancellation returns nil. On return the animation is
// stopped, the strip cleared and the bus released.
func (t *Task) Run(ctx context.Context) error {
	err := t.run(ctx)

	t.mu.Lock()
	if err != nil {
		t.info.State = StateError
		t.info.LastError = err
	} else {
		t.info.State = StateStopped
	}
	t.mu.Unlock()

	if err != nil {
		t.logger.Error("Strip task failed", "device", t.opts.Device, "error", err)
		t.opts.EventBus.Publish(events.LEDStripErrorEvent{
			Device:    t.opts.Device,
			Error:     err.Error(),
			Timestamp: events.Now(),
		})
	}
	return err
}

func (t *Task) run(ctx context.Context) error {
	// Subscribe first so commands published while the device is still
	// opening are applied once it is up.
	cmds, unsubscribe := t.opts.EventBus.SubscribeCommands(t.opts.QueueCapacity, func(e events.LEDStripCommandEvent) {
		metrics.ObserveCommand(metrics.CommandDropped)
		t.logger.Warn("Strip command queue full, dropping command", "source", e.Source)
	})
	defer unsubscribe()

	strip, err := t.open(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	metrics.SetConnected(true)
	defer func() {
		if closeErr := strip.Close(); closeErr != nil {
			t.logger.Warn("Failed to close strip", "error", closeErr)
		}
		metrics.SetConnected(false)
		metrics.SetEnabled(false)
	}()

	refresh := newRefresher(strip, &t.shown)
	refresh.start()
	defer refresh.stop()

	ticker := time.NewTicker(t.opts.RefreshInterval)
	defer ticker.Stop()

	t.setState(StateRunning)
	t.logger.Info("Strip task started", "device", t.opts.Device, "leds", strip.Len(), "refresh", t.opts.RefreshInterval)

	if t.opts.Initial != "" {
		initial := events.LEDStripCommandEvent{Payload: t.opts.Initial, Source: SourceInitial, Timestamp: events.Now()}
		if cmdErr := t.handleCommand(strip, initial); cmdErr != nil {
			return cmdErr
		}
		refresh.request()
	}

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("Strip task shutting down", "device", t.opts.Device)
			return nil

		case ev := <-cmds:
			t.logger.Debug("Received strip command", "source", ev.Source, "payload", ev.Payload)
			if cmdErr := t.handleCommand(strip, ev); cmdErr != nil {
				return cmdErr
			}
			refresh.request()

		case <-ticker.C:
			refresh.request()

		case showErr := <-refresh.errs:
			return fmt.Errorf("show %s: %w", t.opts.Device, showErr)
		}
	}
}

// open calls the opener until it succeeds, retry is disabled or ctx ends.
func (t *Task) open(ctx context.Context) (Strip, error) {
	t.setState(StateConnecting)
	for {
		strip, err := t.opts.Open()
		if err == nil {
			return strip, nil
		}
		if t.opts.RetryInterval <= 0 {
			return nil, fmt.Errorf("open strip: %w", err)
		}

		t.logger.Warn("Failed to open strip, retrying",
			"device", t.opts.Device,
			"error", err,
			"retry_in", t.opts.RetryInterval)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(t.opts.RetryInterval):
		}
	}
}

// handleCommand applies one bus event. Malformed or rejected commands are
// logged and dropped; only encoder failures are returned.
func (t *Task) handleCommand(strip Strip, ev events.LEDStripCommandEvent) error {
	cmd, err := ParseCommand([]byte(ev.Payload))
	if err != nil {
		metrics.ObserveCommand(metrics.CommandMalformed)
		t.logger.Warn("Dropping malformed strip command", "source", ev.Source, "error", err)
		return nil
	}
	return t.apply(strip, cmd)
}

func (t *Task) apply(strip Strip, cmd Command) error {
	if !cmd.Enable {
		strip.StopAnimation()
		strip.SetLEDs(nil)
		t.record(cmd, strip.Pattern(), ws2812.Black)
		t.logger.Info("Strip disabled")
		return nil
	}

	status := *cmd.Status

	// Reject before touching the strip so it keeps its previous state.
	if _, err := ws2812.BreatheFrames(status.Frequency); err != nil {
		metrics.ObserveCommand(metrics.CommandRejected)
		t.logger.Warn("Rejecting strip command", "frequency", status.Frequency, "error", err)
		return nil
	}

	scaled := status.ScaledColor()
	colors := make([]ws2812.Color, strip.Len())
	for i := range colors {
		colors[i] = scaled
	}
	strip.SetLEDs(colors)

	if err := strip.StartBreathe(scaled, status.Frequency); err != nil {
		return fmt.Errorf("start breathe: %w", err)
	}
	metrics.IncAnimationStart(ws2812.PatternBreathe.String())

	t.record(cmd, strip.Pattern(), scaled)
	t.logger.Info("Strip enabled",
		"color", scaled.String(),
		"scale", status.Scale,
		"frequency", status.Frequency)
	return nil
}

// record stores the applied command and announces it on the bus.
func (t *Task) record(cmd Command, pattern ws2812.Pattern, c ws2812.Color) {
	var hz float64
	if cmd.Status != nil && cmd.Enable {
		hz = cmd.Status.Frequency
	}

	t.mu.Lock()
	t.info.Enabled = cmd.Enable
	t.info.Pattern = pattern
	t.info.Color = c
	t.info.Frequency = hz
	t.info.LastCommand = time.Now()
	t.mu.Unlock()

	metrics.ObserveCommand(metrics.CommandApplied)
	metrics.SetEnabled(cmd.Enable)

	t.opts.EventBus.Publish(events.LEDStripStateChangedEvent{
		Enabled:   cmd.Enable,
		Pattern:   pattern.String(),
		Color:     c.String(),
		Frequency: hz,
		Timestamp: events.Now(),
	})
}

func (t *Task) setState(s TaskState) {
	t.mu.Lock()
	t.info.State = s
	t.mu.Unlock()
}
