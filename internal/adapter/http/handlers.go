package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Strob0t/ssecast/internal/domain"
	"github.com/Strob0t/ssecast/internal/logger"
	"github.com/Strob0t/ssecast/internal/port/broadcast"
	"github.com/Strob0t/ssecast/internal/port/messagequeue"
	"github.com/Strob0t/ssecast/internal/stream"
)

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Registry broadcast.Registry
	Conns    *stream.Set
	Queue    messagequeue.Queue // nil when NATS ingress is disabled
	SSE      http.Handler
	WS       http.Handler
}

type broadcastRequest struct {
	Message string `json:"message"`
}

type unsubscribeResponse struct {
	Removed int `json:"removed"`
}

type clientsResponse struct {
	Count int      `json:"count"`
	IDs   []string `json:"ids"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Clients int    `json:"clients"`
	NATS    string `json:"nats"`
}

// Health handles GET /health
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	nats := "disabled"
	if h.Queue != nil {
		nats = "disconnected"
		if h.Queue.IsConnected() {
			nats = "connected"
		}
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Clients: h.Registry.Count(),
		NATS:    nats,
	})
}

// BroadcastQuery handles GET /broadcast?msg=...
func (h *Handlers) BroadcastQuery(w http.ResponseWriter, r *http.Request) {
	h.broadcast(w, r, r.URL.Query().Get("msg"))
}

// PostBroadcast handles POST /api/v1/broadcast
func (h *Handlers) PostBroadcast(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[broadcastRequest](w, r, maxRequestBodySize)
	if !ok {
		return
	}
	h.broadcast(w, r, req.Message)
}

func (h *Handlers) broadcast(w http.ResponseWriter, r *http.Request, message string) {
	if message == "" {
		writeDomainError(w, fmt.Errorf("%w: message is required", domain.ErrValidation))
		return
	}
	// Deliveries finish even if the caller hangs up; each send is bounded by
	// the registry's send timeout.
	receipt := h.Registry.Broadcast(context.WithoutCancel(r.Context()), message)
	slog.Info("broadcast sent", append(logger.Attrs(r.Context()),
		"broadcast_id", receipt.ID, "recipients", receipt.Recipients)...)
	writeJSON(w, http.StatusOK, receipt)
}

// Unsubscribe handles GET /stop/{id} and DELETE /api/v1/clients/{id}.
// Every entry under the id leaves the registry and its open streams are
// closed.
func (h *Handlers) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	removed := h.Registry.Unsubscribe(id)
	closed := 0
	if h.Conns != nil {
		closed = h.Conns.CloseID(id, broadcast.ErrUnsubscribed)
	}
	slog.Info("unsubscribe requested", append(logger.Attrs(logger.WithClientID(r.Context(), id)),
		"removed", removed, "streams_closed", closed)...)
	writeJSON(w, http.StatusOK, unsubscribeResponse{Removed: removed})
}

// ListClients handles GET /api/v1/clients
func (h *Handlers) ListClients(w http.ResponseWriter, _ *http.Request) {
	ids := h.Registry.IDs()
	writeJSON(w, http.StatusOK, clientsResponse{Count: len(ids), IDs: ids})
}
