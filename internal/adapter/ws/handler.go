// Package ws implements the WebSocket transport for client streams.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/Strob0t/ssecast/internal/logger"
	"github.com/Strob0t/ssecast/internal/port/broadcast"
	"github.com/Strob0t/ssecast/internal/stream"
)

// pingTimeout bounds how long a keepalive ping waits for its pong.
const pingTimeout = 10 * time.Second

// Handler upgrades requests to WebSocket and streams registry frames over
// them. The optional "name" query parameter is used verbatim as the id.
type Handler struct {
	subs           broadcast.Subscriber
	conns          *stream.Set
	allowedOrigins []string
}

// NewHandler creates a WebSocket Handler. With no allowed origins, origin
// checks are skipped (CORS is handled by middleware).
func NewHandler(subs broadcast.Subscriber, conns *stream.Set, allowedOrigins ...string) *Handler {
	return &Handler{subs: subs, conns: conns, allowedOrigins: allowedOrigins}
}

// ServeHTTP accepts the WebSocket, subscribes the client and streams frames
// until either side goes away.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: len(h.allowedOrigins) == 0,
		OriginPatterns:     h.allowedOrigins,
	})
	if err != nil {
		slog.Error("websocket accept failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	id, st, err := h.subs.Subscribe(ctx, r.URL.Query().Get("name"), h.conns)
	if err != nil {
		slog.Error("websocket subscribe failed", "error", err)
		_ = ws.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer h.conns.Remove(id, st)

	ctx = logger.WithClientID(ctx, id)
	slog.Info("websocket connected", append(logger.Attrs(ctx), "remote", r.RemoteAddr)...)

	// Read loop (to detect disconnects and consume pongs)
	go func() {
		defer cancel()
		for {
			if _, _, err := ws.Read(ctx); err != nil {
				return
			}
		}
	}()

	err = pump(ctx, ws, st)
	st.Close(err)

	status := websocket.StatusNormalClosure
	if errors.Is(err, context.Canceled) {
		status = websocket.StatusGoingAway
	}
	_ = ws.Close(status, "")
	slog.Info("websocket disconnected", append(logger.Attrs(ctx), "reason", err)...)
}

// pump writes frames in submission order. Keepalives are sent as protocol
// pings so the consumer never sees them.
func pump(ctx context.Context, ws *websocket.Conn, st *stream.Stream) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-st.Done():
			return st.Err()
		case f := <-st.Frames():
			if err := writeFrame(ctx, ws, f); err != nil {
				return err
			}
		}
	}
}

func writeFrame(ctx context.Context, ws *websocket.Conn, f stream.Frame) error {
	if f.Kind == stream.KindKeepalive {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		return ws.Ping(pingCtx)
	}

	data, err := json.Marshal(envelope(f))
	if err != nil {
		return err
	}
	return ws.Write(ctx, websocket.MessageText, data)
}
