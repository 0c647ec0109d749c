package main

import (
	"fmt"
	"io/fs"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/scaffold/app"
	"github.com/vango-dev/scaffold/internal/build"
	"github.com/vango-dev/scaffold/internal/config"
	"github.com/vango-dev/scaffold/internal/dev"
	"github.com/vango-dev/scaffold/pkg/assets"
	"github.com/vango-dev/scaffold/pkg/shell"
)

func devCmd(flags *globalFlags) *cobra.Command {
	var (
		port        int
		host        string
		openBrowser bool
	)

	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Start the development server",
		Long: `Start the development server with hot reload.

The dev server bundles web/src in development mode, watches for file
changes, rebuilds and automatically refreshes connected browsers.

Features:
  • Hot reload on file change
  • Error overlay in browser
  • Inline source maps

Examples:
  scaffold dev
  scaffold dev --port=3000
  scaffold dev --host=127.0.0.1 --open`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			cfg.Mode = config.ModeDevelopment

			if port > 0 {
				cfg.Dev.Port = port
			}
			if host != "" {
				cfg.Dev.Host = host
			}
			if openBrowser {
				cfg.Dev.Open = true
			}
			return runDev(cfg, flags)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to run on (default from scaffold.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from scaffold.json)")
	cmd.Flags().BoolVarP(&openBrowser, "open", "o", false, "Open browser on start")

	return cmd
}

func runDev(cfg *config.Config, flags *globalFlags) error {
	logger := flags.logger()

	printBanner()
	fmt.Println("  dev")
	fmt.Println()

	server, err := dev.NewServer(dev.ServerOptions{
		Config: cfg,
		Logger: logger,
		App: func(doc *shell.Document, res assets.Resolver, static fs.FS) (http.Handler, error) {
			opts := siteOptions(cfg, doc, res, static, logger)
			if cfg.HotReload() {
				opts.ReloadPath = dev.ReloadPath
			}
			site, err := app.New(opts)
			if err != nil {
				return nil, err
			}
			return site.Mount()
		},
		OnBuild: func(result *build.Result, err error) {
			if err == nil {
				success("Built in %s", result.Duration.Round(time.Millisecond))
			}
		},
		OnReload: func(clients int) {
			success("Reloaded %d browsers", clients)
		},
	})
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	info("Listening on %s", cfg.DevURL())
	if cfg.Dev.Open {
		go func() {
			time.Sleep(500 * time.Millisecond)
			openURL(cfg.DevURL())
		}()
	}

	return server.Start(ctx)
}

// openURL opens a URL in the default browser.
func openURL(url string) {
	var cmd *exec.Cmd

	switch {
	case runtime.GOOS == "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	case commandExists("xdg-open"):
		cmd = exec.Command("xdg-open", url)
	case commandExists("open"):
		cmd = exec.Command("open", url)
	default:
		return
	}

	cmd.Start()
}

// commandExists checks if a command exists in PATH.
func commandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
