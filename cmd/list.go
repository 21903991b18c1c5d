package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/drillops/survey-cli/internal/model"
)

var listRunID string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved extrapolations for a run",
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := initClient()
		if err != nil {
			return err
		}

		results, err := client.ListByRun(cmd.Context(), listRunID)
		if err != nil {
			return eris.Wrap(err, "list extrapolations")
		}

		if len(results) == 0 {
			fmt.Fprintln(os.Stderr, "No extrapolations found.")
			return nil
		}

		formatResultsList(os.Stdout, results)
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listRunID, "run", "", "run ID (required)")
	_ = listCmd.MarkFlagRequired("run")
	rootCmd.AddCommand(listCmd)
}

// formatResultsList writes a tabular list of extrapolations to w.
func formatResultsList(out io.Writer, results []model.ExtrapolationResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSURVEY\tMETHOD\tLENGTH\tPOINTS\tFINAL_MD\tFINAL_TVD\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t------\t------\t------\t------\t--------\t---------\t-------")

	for _, r := range results {
		created := ""
		if !r.CreatedAt.IsZero() {
			created = r.CreatedAt.Format("2006-01-02 15:04")
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.1f\t%d\t%.2f\t%.2f\t%s\n",
			truncateID(r.ID),
			truncateID(r.SurveyDataID),
			r.Params.Method,
			r.Params.Length,
			r.ExtrapolatedPointCount,
			r.FinalMD,
			r.FinalTVD,
			created,
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
