// Package broadcast defines the ports between the client registry and the
// transports that feed it.
package broadcast

import (
	"context"
	"errors"

	"github.com/Strob0t/ssecast/internal/stream"
)

// ErrUnsubscribed is the close cause of streams dropped by an explicit
// unsubscribe.
var ErrUnsubscribed = errors.New("client unsubscribed")

// Sink is a delivery handle for one connected client. Send fails once the
// underlying connection is gone.
type Sink interface {
	Send(ctx context.Context, f stream.Frame) error
}

// Receipt describes a completed broadcast. It carries no per-client status.
type Receipt struct {
	ID         string `json:"id"`
	Recipients int    `json:"recipients"`
}

// Broadcaster fans a text message out to every connected client.
type Broadcaster interface {
	Broadcast(ctx context.Context, message string) Receipt
}

// Subscriber registers new stream clients. Transports call it once per
// accepted connection and drain the returned stream until it closes. The
// stream is added to conns before it becomes visible to Unsubscribe.
type Subscriber interface {
	Subscribe(ctx context.Context, requestedID string, conns *stream.Set) (id string, s *stream.Stream, err error)
}

// Registry is the full client registry surface used by the HTTP transport.
type Registry interface {
	Subscriber
	Broadcaster
	Unsubscribe(id string) int
	Count() int
	IDs() []string
}
