package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"

	cfhttp "github.com/Strob0t/ssecast/internal/adapter/http"
	cfnats "github.com/Strob0t/ssecast/internal/adapter/nats"
	cfotel "github.com/Strob0t/ssecast/internal/adapter/otel"
	"github.com/Strob0t/ssecast/internal/adapter/ristretto"
	"github.com/Strob0t/ssecast/internal/adapter/sse"
	"github.com/Strob0t/ssecast/internal/adapter/ws"
	"github.com/Strob0t/ssecast/internal/config"
	"github.com/Strob0t/ssecast/internal/logger"
	"github.com/Strob0t/ssecast/internal/middleware"
	"github.com/Strob0t/ssecast/internal/port/cache"
	"github.com/Strob0t/ssecast/internal/port/messagequeue"
	"github.com/Strob0t/ssecast/internal/service"
	"github.com/Strob0t/ssecast/internal/stream"
)

const requestTimeout = 30 * time.Second

var errShutdown = errors.New("server shutting down")

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	flags, err := config.ParseFlags(os.Args[1:])
	if err != nil {
		return fmt.Errorf("flags: %w", err)
	}
	cfg, cfgPath, err := config.LoadWithCLI(flags)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logCloser := logger.New(cfg.Logging)
	defer logCloser.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"file", cfgPath,
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"sweep_interval", cfg.Broadcast.SweepInterval,
		"nats", cfg.NATS.URL != "",
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Infrastructure ---

	// OpenTelemetry
	otelShutdown, err := cfotel.Init(ctx, cfg.OTEL)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("otel shutdown failed", "error", err)
		}
	}()

	metrics, err := cfotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("otel metrics: %w", err)
	}

	// Idempotency cache
	var idemCache cache.Cache
	if cfg.Idempotency.MaxSizeMB > 0 {
		rc, err := ristretto.New(cfg.Idempotency.MaxSizeMB << 20)
		if err != nil {
			return fmt.Errorf("idempotency cache: %w", err)
		}
		defer rc.Close()
		idemCache = rc
	}

	// --- Services ---
	registry := service.NewBroadcasterService(cfg.Broadcast, clockwork.NewRealClock())
	registry.SetMetrics(metrics)

	sweepCtx, stopSweep := context.WithCancel(ctx)
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		registry.Run(sweepCtx)
	}()

	// NATS ingress (optional)
	var queue messagequeue.Queue
	if cfg.NATS.URL != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		q, err := cfnats.Connect(connectCtx, cfg.NATS.URL)
		cancel()
		if err != nil {
			stopSweep()
			return fmt.Errorf("nats: %w", err)
		}
		if _, err := q.Subscribe(ctx, cfg.NATS.Subject, service.BroadcastHandler(registry)); err != nil {
			_ = q.Close()
			stopSweep()
			return fmt.Errorf("nats subscribe: %w", err)
		}
		slog.Info("nats ingress started", "subject", cfg.NATS.Subject)
		queue = q
	}

	// --- HTTP ---
	conns := stream.NewSet()
	limiter := middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)
	stopCleanup := limiter.StartCleanup(cfg.Rate.CleanupInterval, cfg.Rate.MaxIdleTime)
	defer stopCleanup()

	handlers := &cfhttp.Handlers{
		Registry: registry,
		Conns:    conns,
		Queue:    queue,
		SSE:      sse.NewHandler(registry, conns),
		WS:       ws.NewHandler(registry, conns, wsOrigins(cfg.Server.CORSOrigin)...),
	}

	r := chi.NewRouter()

	r.Use(cfhttp.Stack(cfg.Server.CORSOrigin, cfg.OTEL.ServiceName)...)

	cfhttp.MountRoutes(r, handlers, cfhttp.RouteOptions{
		RateLimit:      limiter.Handler,
		Idempotency:    middleware.Idempotency(idemCache, cfg.Idempotency.TTL),
		RequestTimeout: requestTimeout,
	})

	addr := ":" + cfg.Server.Port

	// WriteTimeout stays zero: event streams are open-ended responses.
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-srvErr:
		stopSweep()
		<-sweepDone
		return fmt.Errorf("server: %w", err)
	}
	slog.Info("shutting down server")

	stopSweep()
	<-sweepDone

	if queue != nil {
		if err := queue.Drain(); err != nil {
			slog.Warn("nats drain failed", "error", err)
		}
	}

	closed := conns.CloseAll(errShutdown)
	slog.Info("streams closed", "count", closed)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// wsOrigins turns the CORS origin into a WebSocket origin pattern. "*"
// disables the origin check.
func wsOrigins(corsOrigin string) []string {
	if corsOrigin == "" || corsOrigin == "*" {
		return nil
	}
	u, err := url.Parse(corsOrigin)
	if err != nil || u.Host == "" {
		return []string{corsOrigin}
	}
	return []string{u.Host}
}
