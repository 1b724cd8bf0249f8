package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "ssecast.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	// .env values only fill variables that are not already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Debug("failed to load .env file", "error", err)
	}
	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "SSECAST_PORT")
	setString(&cfg.Server.CORSOrigin, "SSECAST_CORS_ORIGIN")
	setDuration(&cfg.Server.ShutdownTimeout, "SSECAST_SHUTDOWN_TIMEOUT")

	// Broadcast
	setDuration(&cfg.Broadcast.SweepInterval, "SSECAST_SWEEP_INTERVAL")
	setInt(&cfg.Broadcast.StreamBuffer, "SSECAST_STREAM_BUFFER")
	setInt(&cfg.Broadcast.MaxParallelSends, "SSECAST_MAX_PARALLEL_SENDS")
	setDuration(&cfg.Broadcast.SendTimeout, "SSECAST_SEND_TIMEOUT")

	setString(&cfg.Logging.Level, "SSECAST_LOG_LEVEL")
	setString(&cfg.Logging.Service, "SSECAST_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "SSECAST_LOG_ASYNC")
	setString(&cfg.Logging.File, "SSECAST_LOG_FILE")

	setFloat64(&cfg.Rate.RequestsPerSecond, "SSECAST_RATE_RPS")
	setInt(&cfg.Rate.Burst, "SSECAST_RATE_BURST")
	setDuration(&cfg.Rate.CleanupInterval, "SSECAST_RATE_CLEANUP_INTERVAL")
	setDuration(&cfg.Rate.MaxIdleTime, "SSECAST_RATE_MAX_IDLE_TIME")

	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.NATS.Subject, "SSECAST_NATS_SUBJECT")

	setString(&cfg.OTEL.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setBool(&cfg.OTEL.Insecure, "OTEL_EXPORTER_OTLP_INSECURE")
	setString(&cfg.OTEL.ServiceName, "OTEL_SERVICE_NAME")

	// Idempotency
	setInt64(&cfg.Idempotency.MaxSizeMB, "SSECAST_IDEMPOTENCY_SIZE_MB")
	setDuration(&cfg.Idempotency.TTL, "SSECAST_IDEMPOTENCY_TTL")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Broadcast.SweepInterval <= 0 {
		return errors.New("broadcast.sweep_interval must be > 0")
	}
	if cfg.Broadcast.StreamBuffer < 1 {
		return errors.New("broadcast.stream_buffer must be >= 1")
	}
	if cfg.Broadcast.MaxParallelSends < 0 {
		return errors.New("broadcast.max_parallel_sends must be >= 0")
	}
	if cfg.Broadcast.SendTimeout < 0 {
		return errors.New("broadcast.send_timeout must be >= 0")
	}
	if cfg.Rate.RequestsPerSecond <= 0 {
		return errors.New("rate.requests_per_second must be > 0")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	if cfg.NATS.URL != "" && cfg.NATS.Subject == "" {
		return errors.New("nats.subject is required when nats.url is set")
	}
	if cfg.Idempotency.MaxSizeMB < 0 {
		return errors.New("idempotency.max_size_mb must be >= 0")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
