package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/drillops/survey-cli/pkg/dirsurvey"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <extrapolation-id>",
	Short: "Delete a saved extrapolation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := initClient()
		if err != nil {
			return err
		}

		if err := client.Delete(cmd.Context(), args[0]); err != nil {
			var nf *dirsurvey.NotFoundError
			if errors.As(err, &nf) {
				fmt.Fprintf(os.Stderr, "Extrapolation %s not found.\n", args[0])
				return nil
			}
			return eris.Wrap(err, "delete extrapolation")
		}

		fmt.Fprintf(os.Stderr, "Deleted extrapolation %s.\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
