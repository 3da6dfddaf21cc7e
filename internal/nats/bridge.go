package nats

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/smazurov/stripnode/internal/events"
)

// SourceNATS tags commands that arrived through the bridge.
const SourceNATS = "nats"

// BridgeOptions configures a Bridge.
type BridgeOptions struct {
	URL            string
	CommandSubject string
	StateSubject   string
	// Device is copied into outgoing state messages.
	Device string
	Logger *slog.Logger
}

// Bridge forwards command payloads from a NATS subject onto the event bus
// and mirrors strip state changes back out. Payloads are passed through
// untouched; the strip task parses and validates them.
type Bridge struct {
	opts     BridgeOptions
	eventBus *events.Bus
	logger   *slog.Logger

	mu        sync.Mutex
	conn      *nats.Conn
	sub       *nats.Subscription
	stopState func()
}

// NewBridge creates a new NATS-to-EventBus bridge.
func NewBridge(opts BridgeOptions, eventBus *events.Bus) *Bridge {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.CommandSubject == "" {
		opts.CommandSubject = DefaultCommandSubject
	}
	if opts.StateSubject == "" {
		opts.StateSubject = StateSubject(opts.CommandSubject)
	}

	return &Bridge{
		opts:     opts,
		eventBus: eventBus,
		logger:   opts.Logger.With("component", "nats-bridge"),
	}
}

// Start connects to NATS and subscribes to the command subject. The
// client keeps reconnecting in the background after a successful start.
func (b *Bridge) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn != nil {
		return errors.New("nats bridge already started")
	}

	conn, err := nats.Connect(b.opts.URL,
		nats.Name("stripnode-bridge"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				b.logger.Warn("NATS bridge disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			b.logger.Info("NATS bridge reconnected")
		}),
	)
	if err != nil {
		return err
	}

	sub, err := conn.Subscribe(b.opts.CommandSubject, b.handleCommand)
	if err != nil {
		conn.Close()
		return err
	}

	b.conn = conn
	b.sub = sub
	b.stopState = b.eventBus.Subscribe(b.publishState)

	b.logger.Info("NATS bridge connected",
		"url", b.opts.URL,
		"commands", b.opts.CommandSubject,
		"state", b.opts.StateSubject)
	return nil
}

// handleCommand republishes a raw command payload on the event bus.
func (b *Bridge) handleCommand(msg *nats.Msg) {
	if len(msg.Data) == 0 {
		b.logger.Warn("Ignoring empty command message", "subject", msg.Subject)
		return
	}
	b.eventBus.PublishCommand(string(msg.Data), SourceNATS)
	b.logger.Debug("Forwarded command", "subject", msg.Subject, "bytes", len(msg.Data))
}

// publishState sends a state change to the state subject. Publishing is
// skipped while disconnected.
func (b *Bridge) publishState(e events.LEDStripStateChangedEvent) {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()

	if conn == nil || !conn.IsConnected() {
		return
	}

	data, err := StateMessage{
		Device:    b.opts.Device,
		Enabled:   e.Enabled,
		Pattern:   e.Pattern,
		Color:     e.Color,
		Frequency: e.Frequency,
		Timestamp: e.Timestamp,
	}.Marshal()
	if err != nil {
		b.logger.Warn("Failed to marshal state", "error", err)
		return
	}
	if err := conn.Publish(b.opts.StateSubject, data); err != nil {
		b.logger.Warn("Failed to publish state", "error", err)
	}
}

// Stop unsubscribes and closes the connection. It is safe to call more
// than once.
func (b *Bridge) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopState != nil {
		b.stopState()
		b.stopState = nil
	}
	if b.sub != nil {
		_ = b.sub.Unsubscribe()
		b.sub = nil
	}
	if b.conn != nil {
		b.conn.Close()
		b.conn = nil
		b.logger.Info("NATS bridge stopped")
	}
}

// IsConnected returns true if the bridge is connected to NATS.
func (b *Bridge) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn != nil && b.conn.IsConnected()
}
