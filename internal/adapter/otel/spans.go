package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "ssecast"

// StartBroadcastSpan starts a span for one broadcast fan-out.
func StartBroadcastSpan(ctx context.Context, broadcastID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "broadcast",
		trace.WithAttributes(
			attribute.String("broadcast.id", broadcastID),
		),
	)
}

// StartSweepSpan starts a span for one liveness sweep.
func StartSweepSpan(ctx context.Context) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "sweep")
}
