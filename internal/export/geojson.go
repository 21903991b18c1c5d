package export

import (
	"bytes"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/drillops/survey-cli/internal/model"
	"github.com/drillops/survey-cli/internal/view"
)

// WriteGeoJSON writes the selected view of a result as a GeoJSON feature
// holding the 3D wellbore path. Coordinates are local plan axes (Easting,
// Northing, -TVD), not geographic; consumers plotting the path supply their
// own reference.
func WriteGeoJSON(w io.Writer, result *model.ExtrapolationResult, mode view.Mode) error {
	if result == nil {
		return ErrNoResult
	}

	series, err := view.Select(result, mode)
	if err != nil {
		return err
	}

	feature := geojson.Feature{
		Geometry: view.PathLineString(series),
		Properties: map[string]any{
			"view":                 mode.String(),
			"survey_data_id":       result.SurveyDataID,
			"run_id":               result.RunID,
			"extrapolation_method": result.Params.Method.String(),
			"extrapolation_length": result.Params.Length,
			"final_md":             result.FinalMD,
			"final_tvd":            result.FinalTVD,
		},
	}
	if result.ID != "" {
		feature.ID = result.ID
	}

	data, err := feature.MarshalJSON()
	if err != nil {
		return eris.Wrap(err, "export: encode geojson")
	}
	if _, err := w.Write(data); err != nil {
		return eris.Wrap(err, "export: write geojson")
	}
	return nil
}

// SaveGeoJSON writes the feature at path, assembled in memory first.
func SaveGeoJSON(path string, result *model.ExtrapolationResult, mode view.Mode) error {
	var buf bytes.Buffer
	if err := WriteGeoJSON(&buf, result, mode); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return eris.Wrapf(err, "export: write %s", path)
	}
	return nil
}
