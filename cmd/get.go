package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <extrapolation-id>",
	Short: "Fetch a saved extrapolation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := initClient()
		if err != nil {
			return err
		}

		result, err := client.Get(cmd.Context(), args[0])
		if err != nil {
			return eris.Wrap(err, "get extrapolation")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
