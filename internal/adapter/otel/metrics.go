package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "ssecast"

// Metrics holds all broadcaster metric instruments.
type Metrics struct {
	Clients       metric.Int64UpDownCounter
	Broadcasts    metric.Int64Counter
	Deliveries    metric.Int64Counter
	Evictions     metric.Int64Counter
	SweepDuration metric.Float64Histogram
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	return NewMetricsFrom(otel.GetMeterProvider())
}

// NewMetricsFrom creates all metric instruments on the given provider.
func NewMetricsFrom(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(meterName)
	m := &Metrics{}
	var err error

	m.Clients, err = meter.Int64UpDownCounter("ssecast.clients",
		metric.WithDescription("Number of registered clients"))
	if err != nil {
		return nil, err
	}

	m.Broadcasts, err = meter.Int64Counter("ssecast.broadcasts",
		metric.WithDescription("Number of broadcast calls"))
	if err != nil {
		return nil, err
	}

	m.Deliveries, err = meter.Int64Counter("ssecast.deliveries",
		metric.WithDescription("Broadcast deliveries by result"))
	if err != nil {
		return nil, err
	}

	m.Evictions, err = meter.Int64Counter("ssecast.evictions",
		metric.WithDescription("Clients evicted by the liveness sweep"))
	if err != nil {
		return nil, err
	}

	m.SweepDuration, err = meter.Float64Histogram("ssecast.sweep.duration_seconds",
		metric.WithDescription("Liveness sweep duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
