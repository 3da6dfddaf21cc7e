// Package metrics provides Prometheus metrics for the LED strip.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "stripnode"

// Command outcomes recorded by ObserveCommand.
const (
	CommandApplied   = "applied"
	CommandMalformed = "malformed"
	CommandRejected  = "rejected"
	CommandDropped   = "dropped"
)

var (
	framesShown = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "strip",
		Name:      "frames_shown_total",
		Help:      "Frames transmitted to the strip",
	})

	showErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "strip",
		Name:      "show_errors_total",
		Help:      "Failed frame transfers",
	})

	showDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "strip",
		Name:      "show_duration_seconds",
		Help:      "Time spent encoding and transmitting one frame",
		Buckets:   []float64{.0001, .0005, .001, .0025, .005, .01, .025, .05},
	})

	refreshSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "strip",
		Name:      "refresh_coalesced_total",
		Help:      "Refresh ticks merged into a pending refresh",
	})

	commands = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "strip",
		Name:      "commands_total",
		Help:      "Strip commands by outcome",
	}, []string{"outcome"})

	animationStarts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "strip",
		Name:      "animation_starts_total",
		Help:      "Animations started by pattern",
	}, []string{"pattern"})

	enabled = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "strip",
		Name:      "enabled",
		Help:      "1 when the strip is lit by a command, 0 otherwise",
	})

	connected = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "strip",
		Name:      "connected",
		Help:      "1 while the SPI device is open",
	})
)

// ObserveShow records one Show call.
func ObserveShow(d time.Duration, err error) {
	showDuration.Observe(d.Seconds())
	if err != nil {
		showErrors.Inc()
		return
	}
	framesShown.Inc()
}

// IncRefreshCoalesced counts a refresh tick that found one already pending.
func IncRefreshCoalesced() {
	refreshSkipped.Inc()
}

// ObserveCommand counts a command by outcome.
func ObserveCommand(outcome string) {
	commands.WithLabelValues(outcome).Inc()
}

// IncAnimationStart counts an animation start.
func IncAnimationStart(pattern string) {
	animationStarts.WithLabelValues(pattern).Inc()
}

// SetEnabled records whether the strip is lit.
func SetEnabled(on bool) {
	enabled.Set(boolToFloat(on))
}

// SetConnected records whether the SPI device is open.
func SetConnected(on bool) {
	connected.Set(boolToFloat(on))
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
