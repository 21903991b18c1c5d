package export

import (
	"bytes"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/drillops/survey-cli/internal/model"
)

// WriteXLSX writes the result as a single-sheet workbook with the same table
// layout and numeric formatting as the CSV export.
func WriteXLSX(w io.Writer, result *model.ExtrapolationResult) error {
	if result == nil {
		return ErrNoResult
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Extrapolation")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range csvColumns {
		header.AddCell().SetString(col)
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
			row := sheet.AddRow()
			for _, v := range []float64{
				group.series.MD[i],
				group.series.Inc[i],
				group.series.Azi[i],
				group.series.Northing[i],
				group.series.Easting[i],
				group.series.TVD[i],
			} {
				row.AddCell().SetFloatWithFormat(v, "0.00")
			}
			row.AddCell().SetString(group.label)
		}
	}

	if err := file.Write(w); err != nil {
		return eris.Wrap(err, "export: write workbook")
	}
	return nil
}

// SaveXLSX writes the workbook at path, assembled in memory first.
func SaveXLSX(path string, result *model.ExtrapolationResult) error {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, result); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return eris.Wrapf(err, "export: write %s", path)
	}
	return nil
}
