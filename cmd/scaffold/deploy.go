package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/scaffold/internal/config"
	"github.com/vango-dev/scaffold/internal/deploy"
)

func deployCmd(flags *globalFlags) *cobra.Command {
	var (
		bucket   string
		prefix   string
		region   string
		endpoint string
		dryRun   bool
		prune    bool
		rebuild  bool
	)

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Upload the production build to S3",
		Long: `Upload the output directory to an S3 bucket.

Hashed bundles are uploaded first with immutable caching; pages and
manifest.json follow with no-cache. Credentials are read from
AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and AWS_SESSION_TOKEN.

Examples:
  scaffold deploy --bucket=www.example.com
  scaffold deploy --build --prune
  scaffold deploy --endpoint=http://localhost:9000 --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			cfg.Mode = config.ModeProduction

			if bucket != "" {
				cfg.Deploy.Bucket = bucket
			}
			if cmd.Flags().Changed("prefix") {
				cfg.Deploy.Prefix = prefix
			}
			if region != "" {
				cfg.Deploy.Region = region
			}
			if endpoint != "" {
				cfg.Deploy.Endpoint = endpoint
			}

			if rebuild {
				if err := runBuild(cfg, flags, true); err != nil {
					return err
				}
			}
			return runDeploy(cfg, flags, dryRun, prune)
		},
	}

	cmd.Flags().StringVar(&bucket, "bucket", "", "Destination bucket (default from scaffold.json or SCAFFOLD_DEPLOY_BUCKET)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Key prefix")
	cmd.Flags().StringVar(&region, "region", "", "Bucket region (default AWS_REGION)")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "S3 compatible endpoint URL")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List the objects without uploading")
	cmd.Flags().BoolVar(&prune, "prune", false, "Delete objects that are no longer part of the build")
	cmd.Flags().BoolVar(&rebuild, "build", false, "Run 'scaffold build' first")

	return cmd
}

func runDeploy(cfg *config.Config, flags *globalFlags, dryRun, prune bool) error {
	ctx, cancel := signalContext()
	defer cancel()

	client := deploy.NewClient(cfg.Deploy.Region, cfg.Deploy.Endpoint)
	result, err := deploy.Upload(ctx, client, deploy.Options{
		Bucket: cfg.Deploy.Bucket,
		Prefix: cfg.Deploy.Prefix,
		Dir:    cfg.OutputPath(),
		DryRun: dryRun,
		Prune:  prune && !dryRun,
		Logger: flags.logger(),
	})
	if err != nil {
		return err
	}

	fmt.Println()
	var total int64
	for _, obj := range result.Uploaded {
		total += obj.Size
	}
	verb := "Uploaded"
	if dryRun {
		verb = "Would upload"
	}
	success("%s %d files (%s) to s3://%s/%s", verb, len(result.Uploaded), formatBytes(total), cfg.Deploy.Bucket, deploy.Key(cfg.Deploy.Prefix, ""))
	if len(result.Deleted) > 0 {
		info("Deleted %d stale objects", len(result.Deleted))
	}
	fmt.Println()
	return nil
}
