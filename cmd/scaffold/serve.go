package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/scaffold/app"
	"github.com/vango-dev/scaffold/internal/build"
	"github.com/vango-dev/scaffold/internal/config"
	"github.com/vango-dev/scaffold/internal/errors"
	"github.com/vango-dev/scaffold/internal/server"
	"github.com/vango-dev/scaffold/pkg/assets"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the production build",
		Long: `Serve the output of 'scaffold build'.

Bundles are served with immutable caching, pages are rendered by the
route table, and unknown paths get the not-found page with status 404.
Prometheus metrics are exposed at /metrics unless serve.metrics is false.

Examples:
  scaffold build && scaffold serve
  scaffold serve --port=9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			cfg.Mode = config.ModeProduction

			if port > 0 {
				cfg.Serve.Port = port
			}
			if host != "" {
				cfg.Serve.Host = host
			}
			return runServe(cfg, flags)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from scaffold.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from scaffold.json)")

	return cmd
}

func runServe(cfg *config.Config, flags *globalFlags) error {
	logger := flags.logger()

	outDir := cfg.OutputPath()
	manifest, err := assets.Load(filepath.Join(outDir, assets.FileName))
	if err != nil {
		return errors.New("E204").
			WithDetail("Cannot read " + filepath.Join(outDir, assets.FileName)).
			WithSuggestion("Run 'scaffold build' first").
			Wrap(err)
	}

	doc, err := build.LoadDocument(cfg)
	if err != nil {
		return err
	}
	site, err := app.New(siteOptions(cfg, doc, assets.NewResolver(manifest, cfg.Output.PublicPath), os.DirFS(outDir), logger))
	if err != nil {
		return err
	}
	handler, err := site.Mount()
	if err != nil {
		return err
	}

	router := server.NewRouter(handler, server.Options{
		Logger:  logger,
		Metrics: cfg.MetricsEnabled(),
	})

	printBanner()
	fmt.Println("  serve")
	fmt.Println()
	info("Serving %s on %s", outDir, cfg.ServeAddress())
	fmt.Println()

	ctx, cancel := signalContext()
	defer cancel()
	return server.Run(ctx, cfg.ServeAddress(), router, logger)
}
