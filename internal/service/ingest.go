package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Strob0t/ssecast/internal/domain"
	"github.com/Strob0t/ssecast/internal/port/broadcast"
	"github.com/Strob0t/ssecast/internal/port/messagequeue"
)

// ingressPayload is the optional JSON shape of a queued broadcast.
type ingressPayload struct {
	Message string `json:"message"`
}

// BroadcastHandler returns a queue handler that broadcasts every message it
// receives. A body of the form {"message":"..."} is unwrapped; any other
// body is broadcast verbatim.
func BroadcastHandler(b broadcast.Broadcaster) messagequeue.Handler {
	return func(ctx context.Context, subject string, data []byte) error {
		msg := decodeIngress(data)
		if msg == "" {
			return fmt.Errorf("%w: empty message on %s", domain.ErrValidation, subject)
		}
		r := b.Broadcast(ctx, msg)
		slog.Debug("queued broadcast delivered", "subject", subject, "broadcast_id", r.ID, "recipients", r.Recipients)
		return nil
	}
}

func decodeIngress(data []byte) string {
	var p ingressPayload
	if json.Unmarshal(data, &p) == nil && p.Message != "" {
		return p.Message
	}
	return string(data)
}
