package config

import (
	"flag"
	"fmt"
	"time"
)

// CLIFlags holds command-line overrides. Nil fields were not given.
type CLIFlags struct {
	ConfigPath    *string
	Port          *string
	LogLevel      *string
	NatsURL       *string
	SweepInterval *time.Duration
}

// ParseFlags parses args (without the program name). Long and short forms
// share a value: --port/-p, --config/-c.
func ParseFlags(args []string) (CLIFlags, error) {
	fs := flag.NewFlagSet("ssecast", flag.ContinueOnError)

	var (
		configPath, port, logLevel, natsURL string
		sweep                               time.Duration
	)
	fs.StringVar(&configPath, "config", "", "path to YAML config file")
	fs.StringVar(&configPath, "c", "", "shorthand for --config")
	fs.StringVar(&port, "port", "", "HTTP listen port")
	fs.StringVar(&port, "p", "", "shorthand for --port")
	fs.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.StringVar(&natsURL, "nats-url", "", "NATS URL for broadcast ingress")
	fs.DurationVar(&sweep, "sweep-interval", 0, "keepalive sweep interval")

	if err := fs.Parse(args); err != nil {
		return CLIFlags{}, fmt.Errorf("parse flags: %w", err)
	}

	var out CLIFlags
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "config", "c":
			out.ConfigPath = &configPath
		case "port", "p":
			out.Port = &port
		case "log-level":
			out.LogLevel = &logLevel
		case "nats-url":
			out.NatsURL = &natsURL
		case "sweep-interval":
			out.SweepInterval = &sweep
		}
	})
	return out, nil
}

// LoadWithCLI loads configuration with the hierarchy
// defaults < YAML < ENV < CLI and returns the YAML path that was used.
func LoadWithCLI(flags CLIFlags) (*Config, string, error) {
	path := DefaultConfigFile
	if flags.ConfigPath != nil && *flags.ConfigPath != "" {
		path = *flags.ConfigPath
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		return nil, path, err
	}

	applyCLI(cfg, flags)
	if err := validate(cfg); err != nil {
		return nil, path, fmt.Errorf("config validate: %w", err)
	}
	return cfg, path, nil
}

func applyCLI(cfg *Config, flags CLIFlags) {
	if flags.Port != nil {
		cfg.Server.Port = *flags.Port
	}
	if flags.LogLevel != nil {
		cfg.Logging.Level = *flags.LogLevel
	}
	if flags.NatsURL != nil {
		cfg.NATS.URL = *flags.NatsURL
	}
	if flags.SweepInterval != nil {
		cfg.Broadcast.SweepInterval = *flags.SweepInterval
	}
}
