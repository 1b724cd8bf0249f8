// Package logger provides structured logging setup for ssecast.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Strob0t/ssecast/internal/config"
)

// New creates a *slog.Logger from the given Logging config.
// Output is JSON to stdout with a "service" attribute on every record. When
// cfg.File is set, records are also written to a size-rotated file. The
// returned Closer flushes async output and closes the file.
func New(cfg config.Logging) (*slog.Logger, Closer) {
	return newWithWriter(cfg, os.Stdout)
}

func newWithWriter(cfg config.Logging, stdout io.Writer) (*slog.Logger, Closer) {
	level := parseLevel(cfg.Level)

	out := stdout
	var file *lumberjack.Logger
	if cfg.File != "" {
		file = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    25,
			MaxBackups: 10,
			MaxAge:     14,
			Compress:   true,
		}
		out = io.MultiWriter(stdout, file)
	}

	var handler slog.Handler = slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: level,
	})

	closers := closerChain{}
	if cfg.Async {
		ah := NewAsyncHandler(handler, 4096, 2)
		handler = ah
		closers = append(closers, ah)
	}
	if file != nil {
		closers = append(closers, fileCloser{file})
	}

	return slog.New(handler).With("service", cfg.Service), closers
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// closerChain closes in order: async drain first, then the file.
type closerChain []Closer

func (c closerChain) Close() {
	for _, cl := range c {
		cl.Close()
	}
}

type fileCloser struct{ l *lumberjack.Logger }

func (f fileCloser) Close() { _ = f.l.Close() }
