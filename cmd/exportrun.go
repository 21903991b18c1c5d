package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/drillops/survey-cli/internal/model"
	"github.com/drillops/survey-cli/internal/resilience"
	"github.com/drillops/survey-cli/pkg/dirsurvey"
)

var (
	exportRunID     string
	exportRunFormat string
	exportRunView   string
	exportRunDir    string
)

var exportRunCmd = &cobra.Command{
	Use:   "exportrun",
	Short: "Export every saved extrapolation of a run",
	Long:  "Lists a run's extrapolations and exports each one concurrently with the standard download filename. Transient failures are retried with backoff.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("batch"); err != nil {
			return err
		}
		client, err := initClient()
		if err != nil {
			return err
		}

		results, err := client.ListByRun(ctx, exportRunID)
		if err != nil {
			return eris.Wrap(err, "list extrapolations")
		}

		dir := exportRunDir
		if dir == "" {
			dir = cfg.Export.Dir
		}
		if len(results) == 0 {
			fmt.Fprintln(os.Stderr, "No extrapolations found.")
			return nil
		}

		retryCfg := resilience.DefaultRetryConfig()
		retryCfg.MaxAttempts = cfg.Batch.MaxRetries + 1
		retryCfg.ShouldRetry = dirsurvey.IsRetryable
		retryCfg.OnRetry = resilience.RetryLogger("export extrapolation")

		g, ctx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.Batch.MaxConcurrent)

		for _, r := range results {
			id := r.ID
			g.Go(func() error {
				// The list payload carries the full point series already, but a
				// per-id fetch keeps the export consistent if the run changes
				// while the batch drains.
				result, err := resilience.DoVal(ctx, retryCfg,
					func(ctx context.Context) (*model.ExtrapolationResult, error) {
						return client.Get(ctx, id)
					})
				if err != nil {
					return eris.Wrapf(err, "export %s", id)
				}

				path, err := exportResult(result, exportRunFormat, exportRunView, "", dir)
				if err != nil {
					return eris.Wrapf(err, "export %s", id)
				}
				zap.L().Info("export written",
					zap.String("id", id),
					zap.String("path", path),
				)
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "Exported %d extrapolations.\n", len(results))
		return nil
	},
}

func init() {
	exportRunCmd.Flags().StringVar(&exportRunID, "run", "", "run ID (required)")
	exportRunCmd.Flags().StringVar(&exportRunFormat, "format", "csv", "output format (csv, xlsx, geojson)")
	exportRunCmd.Flags().StringVar(&exportRunView, "view", "combined", "series view for geojson")
	exportRunCmd.Flags().StringVar(&exportRunDir, "dir", "", "output directory (default: configured export dir)")
	_ = exportRunCmd.MarkFlagRequired("run")
	rootCmd.AddCommand(exportRunCmd)
}
