package nats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultPublishTimeout bounds connect plus flush for one-shot publishes.
const DefaultPublishTimeout = 5 * time.Second

// Publisher sends command payloads to a strip node.
type Publisher struct {
	url     string
	subject string
	logger  *slog.Logger
}

// NewPublisher creates a publisher for subject on the server at url.
// An empty subject selects DefaultCommandSubject.
func NewPublisher(url, subject string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	if subject == "" {
		subject = DefaultCommandSubject
	}
	return &Publisher{
		url:     url,
		subject: subject,
		logger:  logger.With("component", "nats-publisher"),
	}
}

// Publish connects, sends payload and waits for the server to acknowledge
// the flush. The connection is closed before returning.
func (p *Publisher) Publish(ctx context.Context, payload []byte) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultPublishTimeout)
		defer cancel()
	}

	opts := []nats.Option{nats.Name("stripnode-send")}
	if deadline, ok := ctx.Deadline(); ok {
		opts = append(opts, nats.Timeout(time.Until(deadline)))
	}

	conn, err := nats.Connect(p.url, opts...)
	if err != nil {
		return fmt.Errorf("connect %s: %w", p.url, err)
	}
	defer conn.Close()

	if err := conn.Publish(p.subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", p.subject, err)
	}
	if err := conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush %s: %w", p.subject, err)
	}

	p.logger.Debug("Published command", "url", p.url, "subject", p.subject, "bytes", len(payload))
	return nil
}
