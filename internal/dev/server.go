package dev

import (
	"context"
	stderrors "errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/atomic"

	"github.com/vango-dev/scaffold/internal/build"
	"github.com/vango-dev/scaffold/internal/config"
	"github.com/vango-dev/scaffold/internal/errors"
	"github.com/vango-dev/scaffold/internal/server"
	"github.com/vango-dev/scaffold/pkg/assets"
	"github.com/vango-dev/scaffold/pkg/middleware"
	"github.com/vango-dev/scaffold/pkg/shell"
)

// ReloadPath is the path of the hot reload socket.
const ReloadPath = "/_scaffold/reload"

// AppFunc builds the mounted application for a host document. Bundles
// resolve through res and are served from static.
type AppFunc func(doc *shell.Document, res assets.Resolver, static fs.FS) (http.Handler, error)

// ServerOptions configures the development server.
type ServerOptions struct {
	// Config is the project configuration. Its mode should be development.
	Config *config.Config

	// App builds the application. It is called again when the document
	// template changes.
	App AppFunc

	// Logger receives server logs. Defaults to slog.Default().
	Logger *slog.Logger

	// OnBuild is called after every build with its result or error.
	OnBuild func(result *build.Result, err error)

	// OnReload is called when browsers are reloaded.
	OnReload func(clients int)
}

// Server is the development server.
type Server struct {
	config   *config.Config
	options  ServerOptions
	logger   *slog.Logger
	builder  *build.Builder
	watcher  *Watcher
	reload   *ReloadHub
	manifest *assets.Manifest
	resolver assets.Resolver
	changeCh chan Change

	mu  sync.RWMutex
	app http.Handler

	builds  atomic.Int64
	running atomic.Bool
}

// NewServer creates a development server and mounts the application.
func NewServer(options ServerOptions) (*Server, error) {
	cfg := options.Config
	if options.App == nil {
		return nil, stderrors.New("dev: ServerOptions.App is required")
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config:   cfg,
		options:  options,
		logger:   logger,
		manifest: assets.NewManifest(),
		watcher: NewWatcher(WatcherConfig{
			Paths:  cfg.WatchPaths(),
			Ignore: append(append([]string{}, DefaultIgnore...), cfg.Dev.Ignore...),
		}),
		changeCh: make(chan Change, 64),
	}
	s.resolver = assets.NewResolver(s.manifest, cfg.Output.PublicPath)
	s.builder = build.New(cfg, build.Options{
		OnProgress: func(step string) { logger.Debug(step) },
	})
	if cfg.HotReload() {
		s.reload = NewReloadHub()
	}

	if err := s.mountApp(); err != nil {
		return nil, err
	}
	return s, nil
}

// Handler returns the HTTP handler of the dev server.
func (s *Server) Handler() http.Handler {
	return server.NewRouter(http.HandlerFunc(s.serveApp), server.Options{
		Logger:  s.logger,
		Metrics: true,
		Routes: func(r chi.Router) {
			if s.reload != nil {
				r.Get(ReloadPath, func(w http.ResponseWriter, r *http.Request) {
					middleware.SetRouteName(r.Context(), "reload")
					s.reload.HandleWebSocket(w, r)
				})
			}
		},
	})
}

// Start builds the project, watches for changes and serves until ctx is
// done. A failing initial build is reported but does not stop the server.
func (s *Server) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}
	defer s.Close()

	handler := s.Handler()
	_ = s.Build(ctx)

	s.watcher.OnChange(func(change Change) {
		select {
		case s.changeCh <- change:
		default:
		}
	})
	go s.watcher.Start(ctx)
	go s.processChanges(ctx)

	s.logger.Info("dev server running", "url", s.config.DevURL(), "watch", s.config.Dev.Watch)
	return server.Run(ctx, s.config.DevAddress(), handler, s.logger)
}

// Close stops the watcher and releases the bundler.
func (s *Server) Close() {
	s.watcher.Stop()
	if s.reload != nil {
		s.reload.Close()
	}
	s.builder.Close()
}

// Builds returns the number of successful builds.
func (s *Server) Builds() int64 {
	return s.builds.Load()
}

// Manifest returns the manifest of the last successful build.
func (s *Server) Manifest() *assets.Manifest {
	return s.manifest
}

// Build rebuilds the bundle. On failure the previous bundle keeps being
// served and the error is pushed to connected browsers.
func (s *Server) Build(ctx context.Context) error {
	res, err := s.builder.Build(ctx)
	if s.options.OnBuild != nil {
		s.options.OnBuild(res, err)
	}
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		middleware.RecordBuild("error")
		s.logger.Error("build failed", "error", err)
		if s.config.ErrorOverlay() && s.reload != nil {
			s.reload.NotifyError(errorText(err))
		}
		return err
	}

	middleware.RecordBuild("success")
	s.manifest.Replace(res.Manifest.All())
	s.builds.Inc()
	s.logger.Info("built",
		"duration", res.Duration.Round(time.Millisecond),
		"files", len(res.Files))
	for _, w := range res.Warnings {
		s.logger.Warn("bundler warning", "message", w)
	}
	if s.reload != nil {
		s.reload.ClearError()
	}
	return nil
}

// processChanges serializes file change handling and coalesces bursts.
func (s *Server) processChanges(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case change := <-s.changeCh:
			changes := []Change{change}
			draining := true
			for draining {
				select {
				case next := <-s.changeCh:
					changes = append(changes, next)
				default:
					draining = false
				}
			}
			s.handleChanges(ctx, changes)
		}
	}
}

// handleChanges rebuilds after source changes and remounts the application
// after document template changes, then reloads browsers.
func (s *Server) handleChanges(ctx context.Context, changes []Change) {
	if len(changes) == 0 {
		return
	}

	template, bundle := false, false
	stylesOnly := true
	for _, change := range changes {
		s.logger.Debug("changed", "path", change.Path, "type", change.Type)
		switch change.Type {
		case ChangeTemplate:
			template = true
			stylesOnly = false
		case ChangeStyle:
			bundle = true
		default:
			bundle = true
			stylesOnly = false
		}
	}

	if template {
		if err := s.mountApp(); err != nil {
			s.logger.Error("document reload failed", "error", err)
			if s.config.ErrorOverlay() && s.reload != nil {
				s.reload.NotifyError(errorText(err))
			}
			return
		}
	}
	if bundle {
		if err := s.Build(ctx); err != nil {
			return
		}
	}

	if s.reload == nil {
		return
	}
	if stylesOnly && s.config.ExtractCSS() {
		s.reload.NotifyCSS(s.resolver.Asset(assets.EntryStyle))
	} else {
		s.reload.NotifyReload()
	}
	if s.options.OnReload != nil {
		s.options.OnReload(s.reload.ClientCount())
	}
}

// mountApp loads the document template and builds a new application.
func (s *Server) mountApp() error {
	doc, err := build.LoadDocument(s.config)
	if err != nil {
		return err
	}
	app, err := s.options.App(doc, s.resolver, os.DirFS(s.config.OutputPath()))
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.app = app
	s.mu.Unlock()
	return nil
}

func (s *Server) serveApp(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	app := s.app
	s.mu.RUnlock()
	app.ServeHTTP(w, r)
}

// errorText renders err for the browser overlay.
func errorText(err error) string {
	var se *errors.ScaffoldError
	if stderrors.As(err, &se) {
		return se.FormatCompact()
	}
	return err.Error()
}
