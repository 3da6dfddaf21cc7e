package logging

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// swapHandler forwards to a handler that Initialize may replace later, so
// loggers handed out early follow the configured format and outputs.
type swapHandler struct {
	target *atomic.Pointer[slog.Handler]
	// derive re-applies WithAttrs and WithGroup calls to a new target.
	derive func(slog.Handler) slog.Handler
	cache  atomic.Pointer[derivedHandler]
}

type derivedHandler struct {
	from    *slog.Handler
	handler slog.Handler
}

func newSwapHandler(h slog.Handler) *swapHandler {
	target := &atomic.Pointer[slog.Handler]{}
	target.Store(&h)
	return &swapHandler{target: target, derive: func(h slog.Handler) slog.Handler { return h }}
}

// swap points every handler derived from s at h.
func (s *swapHandler) swap(h slog.Handler) {
	s.target.Store(&h)
}

func (s *swapHandler) current() slog.Handler {
	from := s.target.Load()
	if d := s.cache.Load(); d != nil && d.from == from {
		return d.handler
	}
	d := &derivedHandler{from: from, handler: s.derive(*from)}
	s.cache.Store(d)
	return d.handler
}

func (s *swapHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return s.current().Enabled(ctx, level)
}

func (s *swapHandler) Handle(ctx context.Context, r slog.Record) error {
	return s.current().Handle(ctx, r)
}

func (s *swapHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	derive := s.derive
	return &swapHandler{
		target: s.target,
		derive: func(h slog.Handler) slog.Handler { return derive(h).WithAttrs(attrs) },
	}
}

func (s *swapHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return s
	}
	derive := s.derive
	return &swapHandler{
		target: s.target,
		derive: func(h slog.Handler) slog.Handler { return derive(h).WithGroup(name) },
	}
}
