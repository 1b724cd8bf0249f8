// Package nats implements the message queue port using core NATS.
// Messages are not persisted: subscribers only see what is published
// while they are connected.
package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Strob0t/ssecast/internal/logger"
	"github.com/Strob0t/ssecast/internal/port/messagequeue"
)

const (
	headerRequestID = "X-Request-ID"
	connectionName  = "ssecast"
)

var _ messagequeue.Queue = (*Queue)(nil)

// Queue implements messagequeue.Queue on a single NATS connection.
type Queue struct {
	nc *nats.Conn
}

// Connect establishes a connection to NATS. The client reconnects
// indefinitely; disconnects and reconnects are logged.
func Connect(ctx context.Context, url string) (*Queue, error) {
	opts := []nats.Option{
		nats.Name(connectionName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ErrorHandler(logAsyncError),
	}
	if deadline, ok := ctx.Deadline(); ok {
		opts = append(opts, nats.Timeout(time.Until(deadline)))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	slog.Info("nats connected", "url", nc.ConnectedUrl())
	return &Queue{nc: nc}, nil
}

// logAsyncError reports errors the client raises outside any call, such as
// slow-consumer drops when a handler falls behind.
func logAsyncError(_ *nats.Conn, sub *nats.Subscription, err error) {
	attrs := []any{"error", err}
	if sub != nil {
		attrs = append(attrs, "subject", sub.Subject)
		if dropped, derr := sub.Dropped(); derr == nil {
			attrs = append(attrs, "dropped", dropped)
		}
	}
	if errors.Is(err, nats.ErrSlowConsumer) {
		slog.Warn("nats slow consumer", attrs...)
		return
	}
	slog.Error("nats async error", attrs...)
}

// Subscribe registers a handler for messages on the given subject.
// Handler errors are logged; core NATS has no redelivery.
func (q *Queue) Subscribe(ctx context.Context, subject string, handler messagequeue.Handler) (func(), error) {
	sub, err := q.nc.Subscribe(subject, func(msg *nats.Msg) {
		msgCtx := context.WithoutCancel(ctx)
		if msg.Header != nil {
			if reqID := msg.Header.Get(headerRequestID); reqID != "" {
				msgCtx = logger.WithRequestID(msgCtx, reqID)
			}
		}
		if err := handler(msgCtx, msg.Subject, msg.Data); err != nil {
			slog.Error("message handler failed", "subject", msg.Subject, "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("nats subscribe %s: %w", subject, err)
	}

	return func() {
		if err := sub.Unsubscribe(); err != nil && q.nc.IsConnected() {
			slog.Warn("nats unsubscribe failed", "subject", subject, "error", err)
		}
	}, nil
}

// Drain processes pending messages, then closes the connection.
func (q *Queue) Drain() error {
	if err := q.nc.Drain(); err != nil {
		return fmt.Errorf("nats drain: %w", err)
	}
	return nil
}

// Close shuts down the NATS connection.
func (q *Queue) Close() error {
	q.nc.Close()
	return nil
}

// IsConnected reports whether the connection is currently up.
func (q *Queue) IsConnected() bool {
	return q.nc.IsConnected()
}
