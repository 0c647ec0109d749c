package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/scaffold/internal/config"
	"github.com/vango-dev/scaffold/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌─┐┌─┐┌─┐┌─┐┌─┐┌─┐┬  ┌┬┐
  └─┐│  ├─┤├┤ ├┤ │ ││   ││
  └─┘└─┘┴ ┴└  └  └─┘┴─┘─┴┘
`

// globalFlags are shared by every command.
type globalFlags struct {
	dir     string
	verbose bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "scaffold",
		Short: "A Go-hosted single-page application scaffold",
		Long: `Scaffold serves a client-side routed web front end from Go.

The route table lives in app/routes.go and is mounted into #app of the
host document. Browser sources under web/ are bundled with esbuild.

  • Development server with hot reload and error overlay
  • Hashed production bundles and prerendered pages
  • Production server with metrics and tracing
  • Deploy to S3 or any S3 compatible store`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&flags.dir, "dir", "C", "", "Project directory (default: nearest directory with scaffold.json)")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Verbose logging")

	rootCmd.AddCommand(
		devCmd(flags),
		buildCmd(flags),
		serveCmd(flags),
		routesCmd(),
		deployCmd(flags),
		versionCmd(),
	)
	return rootCmd
}

// loadConfig loads the project configuration from --dir or the working
// directory.
func (f *globalFlags) loadConfig() (*config.Config, error) {
	if f.dir != "" {
		return config.Load(f.dir)
	}
	return config.LoadFromWorkingDir()
}

// logger returns a text logger at info level, or debug with --verbose.
func (f *globalFlags) logger() *slog.Logger {
	level := slog.LevelInfo
	if f.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// printBanner prints the ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}

// formatBytes formats bytes as a human-readable string.
func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
