package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/scaffold/app"
	"github.com/vango-dev/scaffold/internal/build"
	"github.com/vango-dev/scaffold/internal/config"
	"github.com/vango-dev/scaffold/pkg/assets"
	"github.com/vango-dev/scaffold/pkg/shell"
)

func buildCmd(flags *globalFlags) *cobra.Command {
	var (
		output     string
		mode       string
		sourceMaps bool
		noPages    bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Bundle the front end",
		Long: `Bundle web/src with esbuild and write the output directory.

This command:
  • Bundles and minifies JavaScript into hashed files
  • Extracts CSS to styles/style.[hash].css
  • Inlines small images and hashes the rest
  • Prerenders every route, plus 404.html
  • Writes manifest.json for 'scaffold serve'

Examples:
  scaffold build
  scaffold build --output=public
  SCAFFOLD_ENV=development scaffold build`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			if output != "" {
				cfg.Output.Dir = output
			}
			if mode != "" {
				cfg.Mode = config.ParseMode(mode)
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			if sourceMaps {
				cfg.Build.SourceMaps = true
			}
			return runBuild(cfg, flags, !noPages)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (default from scaffold.json)")
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Build mode: production or development")
	cmd.Flags().BoolVar(&sourceMaps, "sourcemaps", false, "Write linked source maps")
	cmd.Flags().BoolVar(&noPages, "no-pages", false, "Skip prerendering pages")

	return cmd
}

func runBuild(cfg *config.Config, flags *globalFlags, pages bool) error {
	logger := flags.logger()

	fmt.Printf("  Building for %s...\n\n", cfg.Mode)

	opts := build.Options{
		OnProgress: func(step string) {
			info(step)
		},
	}
	if pages {
		doc, err := build.LoadDocument(cfg)
		if err != nil {
			return err
		}
		opts.Prerender = func(ctx context.Context, m *assets.Manifest) ([]shell.Page, error) {
			site, err := app.New(siteOptions(cfg, doc, assets.NewResolver(m, cfg.Output.PublicPath), nil, logger))
			if err != nil {
				return nil, err
			}
			return site.Prerender(ctx)
		}
	}

	builder := build.New(cfg, opts)
	defer builder.Close()

	ctx, cancel := signalContext()
	defer cancel()

	result, err := builder.Build(ctx)
	if err != nil {
		return err
	}

	fmt.Println()
	success("Build complete in %s", result.Duration.Round(1000000))
	for _, w := range result.Warnings {
		warn("%s", w)
	}
	fmt.Println()
	fmt.Printf("  Output: %s\n", result.OutputDir)
	for _, f := range result.Files {
		fmt.Printf("    %-48s %s\n", f.Path, formatBytes(f.Size))
	}
	fmt.Println()
	if result.Pages > 0 {
		info("%d pages prerendered", result.Pages)
	}
	fmt.Println("  To run:")
	fmt.Println("    scaffold serve")
	fmt.Println()

	return nil
}
