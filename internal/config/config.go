// Package config provides hierarchical configuration loading for ssecast.
// Precedence: defaults < YAML file < environment variables (.env included).
package config

import "time"

// Config holds all runtime configuration for the broadcaster service.
type Config struct {
	Server      Server      `yaml:"server"`
	Broadcast   Broadcast   `yaml:"broadcast"`
	Logging     Logging     `yaml:"logging"`
	Rate        Rate        `yaml:"rate"`
	NATS        NATS        `yaml:"nats"`
	OTEL        OTEL        `yaml:"otel"`
	Idempotency Idempotency `yaml:"idempotency"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port            string        `yaml:"port"`
	CORSOrigin      string        `yaml:"cors_origin"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Broadcast holds client registry configuration.
type Broadcast struct {
	SweepInterval    time.Duration `yaml:"sweep_interval"`     // Keepalive sweep period (default: 5s)
	StreamBuffer     int           `yaml:"stream_buffer"`      // Queued frames per client before Send blocks (default: 10)
	MaxParallelSends int           `yaml:"max_parallel_sends"` // Concurrent sends per fan-out; 0 = unbounded
	SendTimeout      time.Duration `yaml:"send_timeout"`       // Max wait for one client's full queue; 0 = unbounded (default: 10s)
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	Async   bool   `yaml:"async"`
	File    string `yaml:"file"` // Optional rotated log file, written next to stdout
}

// Rate holds per-IP rate limiter configuration for subscribe and broadcast.
type Rate struct {
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval"`
	MaxIdleTime       time.Duration `yaml:"max_idle_time"`
}

// NATS holds the optional broadcast ingress configuration. An empty URL
// disables it.
type NATS struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// OTEL holds OpenTelemetry exporter configuration. An empty endpoint keeps
// the global no-op providers.
type OTEL struct {
	Endpoint    string `yaml:"endpoint"`
	Insecure    bool   `yaml:"insecure"`
	ServiceName string `yaml:"service_name"`
}

// Idempotency holds the Idempotency-Key response cache configuration.
type Idempotency struct {
	MaxSizeMB int64         `yaml:"max_size_mb"`
	TTL       time.Duration `yaml:"ttl"`
}

// Defaults returns a Config with sensible default values for local development.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:            "8000",
			CORSOrigin:      "*",
			ShutdownTimeout: 10 * time.Second,
		},
		Broadcast: Broadcast{
			SweepInterval:    5 * time.Second,
			StreamBuffer:     10,
			MaxParallelSends: 0,
			SendTimeout:      10 * time.Second,
		},
		Logging: Logging{
			Level:   "info",
			Service: "ssecast",
		},
		Rate: Rate{
			RequestsPerSecond: 10,
			Burst:             50,
			CleanupInterval:   5 * time.Minute,
			MaxIdleTime:       10 * time.Minute,
		},
		NATS: NATS{
			Subject: "ssecast.broadcast",
		},
		OTEL: OTEL{
			ServiceName: "ssecast",
		},
		Idempotency: Idempotency{
			MaxSizeMB: 16,
			TTL:       10 * time.Minute,
		},
	}
}
