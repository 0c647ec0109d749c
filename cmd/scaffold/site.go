package main

import (
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/vango-dev/scaffold/app"
	"github.com/vango-dev/scaffold/internal/config"
	"github.com/vango-dev/scaffold/pkg/assets"
	"github.com/vango-dev/scaffold/pkg/shell"
)

// siteOptions maps the configuration onto the application options.
func siteOptions(cfg *config.Config, doc *shell.Document, res assets.Resolver, static fs.FS, logger *slog.Logger) app.Options {
	opts := app.Options{
		Assets:   res,
		StaticFS: static,
		Document: doc,
		Inject:   cfg.HTML.Inject,
		Logger:   logger,
		DevMode:  cfg.IsDev(),
		Overlay:  cfg.ErrorOverlay(),
	}
	if cfg.HTML.Favicon != "" {
		opts.Favicon = filepath.Base(cfg.HTML.Favicon)
	}
	return opts
}
