package logger

import "context"

type contextKey int

const (
	requestIDKey contextKey = iota
	clientIDKey
)

// WithRequestID returns a new context with the given request ID stored.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID extracts the request ID from the context.
// Returns an empty string if no request ID is set.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithClientID stores the subscriber id served by the current connection.
func WithClientID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, clientIDKey, id)
}

// ClientID extracts the subscriber id, or "" when none is set.
func ClientID(ctx context.Context) string {
	id, _ := ctx.Value(clientIDKey).(string)
	return id
}

// Attrs returns the request and client ids found in ctx as slog key/value
// pairs, skipping empty ones.
func Attrs(ctx context.Context) []any {
	var out []any
	if id := RequestID(ctx); id != "" {
		out = append(out, "request_id", id)
	}
	if id := ClientID(ctx); id != "" {
		out = append(out, "client_id", id)
	}
	return out
}
