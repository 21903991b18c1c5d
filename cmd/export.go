package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/drillops/survey-cli/internal/export"
	"github.com/drillops/survey-cli/internal/model"
	"github.com/drillops/survey-cli/internal/view"
)

var (
	exportFormat string
	exportView   string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export <extrapolation-id>",
	Short: "Export a saved extrapolation to a file",
	Long:  "Fetches a saved extrapolation and writes it as CSV, XLSX, or GeoJSON. The --view flag selects which series the GeoJSON path traces; CSV and XLSX always carry every row with a Type column.",
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

		path, err := exportResult(result, exportFormat, exportView, exportOut, cfg.Export.Dir)
		if err != nil {
			return err
		}

		zap.L().Info("export written",
			zap.String("id", result.ID),
			zap.String("format", exportFormat),
			zap.String("path", path),
		)
		fmt.Fprintln(os.Stderr, path)
		return nil
	},
}

// exportResult writes one result in the requested format. An empty out falls
// back to dir with the standard download filename.
func exportResult(result *model.ExtrapolationResult, format, viewName, out, dir string) (string, error) {
	mode, err := view.ParseMode(viewName)
	if err != nil {
		return "", err
	}

	path := out
	if path == "" {
		path = filepath.Join(dir, export.Filename(result.ID, time.Now(), format))
	}

	switch format {
	case "csv":
		err = export.SaveCSV(path, result)
	case "xlsx":
		err = export.SaveXLSX(path, result)
	case "geojson":
		err = export.SaveGeoJSON(path, result, mode)
	default:
		return "", eris.Errorf("unsupported export format: %s", format)
	}
	if err != nil {
		return "", err
	}
	return path, nil
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format (csv, xlsx, geojson)")
	exportCmd.Flags().StringVar(&exportView, "view", "combined", "series view for geojson (original, extrapolated, combined)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output path (default: export dir with standard filename)")
	rootCmd.AddCommand(exportCmd)
}
