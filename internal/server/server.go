package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/scaffold/pkg/middleware"
)

const (
	// HealthPath answers liveness probes.
	HealthPath = "/healthz"

	// MetricsPath exposes Prometheus metrics.
	MetricsPath = "/metrics"
)

// Options configures the router built by NewRouter.
type Options struct {
	// Logger receives request logs. Defaults to slog.Default().
	Logger *slog.Logger

	// Metrics enables request metrics and the /metrics endpoint.
	Metrics bool

	// Gatherer is served at /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	// MetricsOptions are passed to the metrics middleware.
	MetricsOptions []middleware.MetricsOption

	// TracingOptions are passed to the tracing middleware.
	TracingOptions []middleware.TracingOption

	// Routes registers extra routes before the application catch-all.
	Routes func(r chi.Router)
}

// Config controls the HTTP server lifecycle.
type Config struct {
	// ReadHeaderTimeout bounds reading request headers.
	// Default: 10 seconds.
	ReadHeaderTimeout time.Duration

	// IdleTimeout bounds keep-alive connections.
	// Default: 2 minutes.
	IdleTimeout time.Duration

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	// Default: 10 seconds.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
		ShutdownTimeout:   10 * time.Second,
	}
}

// NewRouter wraps app in the standard middleware stack. Requests that no
// other route claims are passed to app.
func NewRouter(app http.Handler, opts Options) chi.Router {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	if opts.Metrics {
		r.Use(middleware.Metrics(opts.MetricsOptions...))
	}
	r.Use(middleware.Tracing(opts.TracingOptions...))
	r.Use(middleware.Logging(logger))
	r.Use(chimw.Recoverer)

	r.Get(HealthPath, func(w http.ResponseWriter, r *http.Request) {
		middleware.SetRouteName(r.Context(), "healthz")
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write([]byte("ok\n"))
	})

	if opts.Metrics {
		gatherer := opts.Gatherer
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		metrics := promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
		r.Get(MetricsPath, func(w http.ResponseWriter, r *http.Request) {
			middleware.SetRouteName(r.Context(), "metrics")
			metrics.ServeHTTP(w, r)
		})
	}

	if opts.Routes != nil {
		opts.Routes(r)
	}

	r.NotFound(app.ServeHTTP)
	r.MethodNotAllowed(app.ServeHTTP)
	r.Handle("/*", app)
	return r
}

// Run listens on addr and serves handler until ctx is cancelled, then shuts
// down gracefully.
func Run(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return Serve(ctx, ln, handler, logger, DefaultConfig())
}

// Serve serves handler on ln until ctx is cancelled. The listener is closed
// when Serve returns.
func Serve(ctx context.Context, ln net.Listener, handler http.Handler, logger *slog.Logger, cfg Config) error {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultConfig()
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = defaults.ReadHeaderTimeout
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaults.IdleTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaults.ShutdownTimeout
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "address", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err

	case <-ctx.Done():
		logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
			return err
		}
		logger.Info("server shutdown complete")
		return nil
	}
}
