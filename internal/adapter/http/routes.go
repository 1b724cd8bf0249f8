package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// RouteOptions carries the per-route middleware. Nil middleware is skipped.
type RouteOptions struct {
	RateLimit      func(http.Handler) http.Handler
	Idempotency    func(http.Handler) http.Handler
	RequestTimeout time.Duration
}

// MountRoutes registers all routes on the given chi router. Streams and
// broadcasts run without the request timeout: a broadcast is bounded by the
// registry's per-client send timeout instead.
func MountRoutes(r chi.Router, h *Handlers, opts RouteOptions) {
	limited := optional(opts.RateLimit)
	timeout := optional(nil)
	if opts.RequestTimeout > 0 {
		timeout = chimw.Timeout(opts.RequestTimeout)
	}

	// Long-lived streams
	if h.SSE != nil {
		r.With(limited).Get("/events", h.SSE.ServeHTTP)
	}
	if h.WS != nil {
		r.With(limited).Get("/ws", h.WS.ServeHTTP)
	}

	r.With(limited).Get("/broadcast", h.BroadcastQuery)
	r.With(timeout).Get("/health", h.Health)
	r.With(timeout).Get("/stop/{id}", h.Unsubscribe)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(optional(opts.Idempotency))

		r.With(limited).Post("/broadcast", h.PostBroadcast)
		r.With(timeout).Get("/clients", h.ListClients)
		r.With(timeout).Delete("/clients/{id}", h.Unsubscribe)
	})
}

func optional(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	if mw == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return mw
}
