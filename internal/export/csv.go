// Package export flattens extrapolation results into downloadable artifacts.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/drillops/survey-cli/internal/model"
)

// csvColumns is the fixed CSV column order.
var csvColumns = []string{"MD", "INC", "AZI", "Northing", "Easting", "TVD", "Type"}

// Row type discriminators.
const (
	typeOriginal     = "Original"
	typeInterpolated = "Interpolated"
	typeExtrapolated = "Extrapolated"
)

// ErrNoResult is returned when an exporter is invoked without a result. No
// output is produced in that case.
var ErrNoResult = eris.New("export: no result to export")

// WriteCSV writes the result as a CSV table: header, then all original rows
// in index order, then interpolated, then extrapolated. The row order is
// fixed here and independent of the combined series' internal order.
func WriteCSV(w io.Writer, result *model.ExtrapolationResult) error {
	if result == nil {
		return ErrNoResult
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvColumns); err != nil {
		return eris.Wrap(err, "export: write header")
	}

	for _, group := range []struct {
		series model.PointSeries
		label  string
	}{
		{result.Original, typeOriginal},
		{result.Interpolated, typeInterpolated},
		{result.Extrapolated, typeExtrapolated},
	} {
		for i := 0; i < group.series.Len(); i++ {
			row := []string{
				formatFixed(group.series.MD[i]),
				formatFixed(group.series.Inc[i]),
				formatFixed(group.series.Azi[i]),
				formatFixed(group.series.Northing[i]),
				formatFixed(group.series.Easting[i]),
				formatFixed(group.series.TVD[i]),
				group.label,
			}
			if err := cw.Write(row); err != nil {
				return eris.Wrapf(err, "export: write %s row %d", group.label, i)
			}
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush")
}

// SaveCSV writes the CSV file at path. The table is assembled in memory
// first, so a failure never leaves a partially written file behind.
func SaveCSV(path string, result *model.ExtrapolationResult) error {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, result); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return eris.Wrapf(err, "export: write %s", path)
	}
	return nil
}

// Filename returns the download filename for a result exported at time t:
// extrapolation_{id}_{yyyy-mm-dd}.{ext}. An unsaved result has no id and uses
// "unsaved" instead.
func Filename(id string, t time.Time, ext string) string {
	if id == "" {
		id = "unsaved"
	}
	return fmt.Sprintf("extrapolation_%s_%s.%s", id, t.Format("2006-01-02"), ext)
}

// formatFixed renders a numeric field with exactly two decimal places,
// rounding halves away from zero: 100.125 becomes "100.13". strconv's own
// rounding is half-to-even, so the value is rounded before formatting.
func formatFixed(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', 2, 64)
}
