package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/drillops/survey-cli/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the local calculation history",
	Long:  "Commands for listing, viewing, and pruning calculations recorded locally by the calculate command.",
}

// -- history list --

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded calculations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		runID, _ := cmd.Flags().GetString("run")
		limit, _ := cmd.Flags().GetInt("limit")

		recs, err := st.ListCalculations(ctx, store.ListFilter{RunID: runID, Limit: limit})
		if err != nil {
			return eris.Wrap(err, "history list")
		}

		if len(recs) == 0 {
			fmt.Fprintln(os.Stderr, "No calculations recorded.")
			return nil
		}

		formatHistoryList(os.Stdout, recs)
		return nil
	},
}

// -- history show --

var historyShowCmd = &cobra.Command{
	Use:   "show <calculation-id>",
	Short: "Show full details of a recorded calculation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		rec, err := st.GetCalculation(ctx, args[0])
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				fmt.Fprintf(os.Stderr, "Calculation %s not found.\n", args[0])
				return nil
			}
			return eris.Wrap(err, "history show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	},
}

// -- history delete --

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <calculation-id>",
	Short: "Delete a recorded calculation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		if err := st.DeleteCalculation(ctx, args[0]); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				fmt.Fprintf(os.Stderr, "Calculation %s not found.\n", args[0])
				return nil
			}
			return eris.Wrap(err, "history delete")
		}

		fmt.Fprintf(os.Stderr, "Deleted calculation %s.\n", args[0])
		return nil
	},
}

func init() {
	historyListCmd.Flags().String("run", "", "filter by run ID")
	historyListCmd.Flags().Int("limit", 50, "max number of calculations to display")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	rootCmd.AddCommand(historyCmd)
}

// formatHistoryList writes a tabular list of calculation records to w.
func formatHistoryList(out io.Writer, recs []store.CalculationRecord) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tRUN\tMETHOD\tLENGTH\tFINAL_MD\tSAVED\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t---\t------\t------\t--------\t-----\t-------")

	for _, r := range recs {
		saved := ""
		if r.Saved {
			saved = "yes"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.1f\t%.2f\t%s\t%s\n",
			truncateID(r.ID),
			truncateID(r.RunID),
			r.Params.Method,
			r.Params.Length,
			r.FinalMD,
			saved,
			r.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}
