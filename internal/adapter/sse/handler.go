package sse

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/Strob0t/ssecast/internal/logger"
	"github.com/Strob0t/ssecast/internal/port/broadcast"
	"github.com/Strob0t/ssecast/internal/stream"
)

// HeaderClientID carries the assigned id back to the subscriber.
const HeaderClientID = "X-Client-ID"

// Handler serves GET requests as long-lived event streams. The optional
// "name" query parameter is used verbatim as the client id.
type Handler struct {
	subs  broadcast.Subscriber
	conns *stream.Set
}

// NewHandler creates a Handler that registers clients with subs and records
// their streams in conns.
func NewHandler(subs broadcast.Subscriber, conns *stream.Set) *Handler {
	return &Handler{subs: subs, conns: conns}
}

// ServeHTTP subscribes the caller and streams frames until the peer goes
// away, a write fails, or the stream is closed by an unsubscribe.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	id, st, err := h.subs.Subscribe(r.Context(), r.URL.Query().Get("name"), h.conns)
	if err != nil {
		slog.Error("sse subscribe failed", append(logger.Attrs(r.Context()), "error", err)...)
		http.Error(w, "subscribe failed", http.StatusInternalServerError)
		return
	}
	defer h.conns.Remove(id, st)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.Header().Set(HeaderClientID, id)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := logger.WithClientID(r.Context(), id)
	slog.Info("sse stream opened", logger.Attrs(ctx)...)

	err = Pump(ctx, w, flusher.Flush, st)
	st.Close(err)

	slog.Info("sse stream closed", append(logger.Attrs(ctx), "reason", err)...)
}

// Pump writes frames from st to w in submission order until ctx is done,
// st is closed, or a write fails. It returns the reason it stopped.
func Pump(ctx context.Context, w io.Writer, flush func(), st *stream.Stream) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-st.Done():
			return st.Err()
		case f := <-st.Frames():
			if err := WriteFrame(w, f); err != nil {
				return err
			}
			flush()
		}
	}
}
