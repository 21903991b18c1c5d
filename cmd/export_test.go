package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drillops/survey-cli/internal/export"
	"github.com/drillops/survey-cli/internal/model"
	"github.com/drillops/survey-cli/internal/store"
)

// exportFixture builds a small result with one point per series.
func exportFixture() *model.ExtrapolationResult {
	return &model.ExtrapolationResult{
		ID:           "ex-123",
		SurveyDataID: "sd-1",
		RunID:        "run-1",
		Params:       model.DefaultParams(),
		Original: model.PointSeries{
			MD: []float64{0}, Inc: []float64{0}, Azi: []float64{0},
			Northing: []float64{0}, Easting: []float64{0}, TVD: []float64{0},
		},
		Extrapolated: model.PointSeries{
			MD: []float64{100.125}, Inc: []float64{1.5}, Azi: []float64{45},
			Northing: []float64{10}, Easting: []float64{5}, TVD: []float64{99.8},
		},
		Combined: model.PointSeries{
			MD: []float64{0, 100.125}, Inc: []float64{0, 1.5}, Azi: []float64{0, 45},
			Northing: []float64{0, 10}, Easting: []float64{0, 5}, TVD: []float64{0, 99.8},
		},
		OriginalPointCount:     1,
		ExtrapolatedPointCount: 1,
		FinalMD:                100.125,
		FinalTVD:               99.8,
	}
}

func TestExportResult_CSV(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.csv")

	path, err := exportResult(exportFixture(), "csv", "combined", out, "")
	require.NoError(t, err)
	assert.Equal(t, out, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3) // header + original + extrapolated
	assert.Equal(t, "MD,INC,AZI,Northing,Easting,TVD,Type", lines[0])
	assert.Contains(t, lines[2], "100.13")
	assert.Contains(t, lines[2], "Extrapolated")
}

func TestExportResult_XLSX(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.xlsx")

	path, err := exportResult(exportFixture(), "xlsx", "combined", out, "")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// XLSX files are zip archives.
	assert.True(t, bytes.HasPrefix(data, []byte("PK")))
}

func TestExportResult_GeoJSON(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.geojson")

	path, err := exportResult(exportFixture(), "geojson", "extrapolated", out, "")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"LineString"`)
	assert.Contains(t, string(data), `"run_id":"run-1"`)
}

func TestExportResult_DefaultFilename(t *testing.T) {
	dir := t.TempDir()

	path, err := exportResult(exportFixture(), "csv", "combined", "", dir)
	require.NoError(t, err)

	want := filepath.Join(dir, export.Filename("ex-123", time.Now(), "csv"))
	assert.Equal(t, want, path)
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestExportResult_UnsupportedFormat(t *testing.T) {
	_, err := exportResult(exportFixture(), "parquet", "combined", "ignored", "")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported export format")
}

func TestExportResult_BadView(t *testing.T) {
	_, err := exportResult(exportFixture(), "geojson", "sideways", "ignored", "")
	assert.Error(t, err)
}

func TestFormatResultsList(t *testing.T) {
	r := *exportFixture()
	r.CreatedAt = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	var buf bytes.Buffer
	formatResultsList(&buf, []model.ExtrapolationResult{r})

	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "ex-123")
	assert.Contains(t, out, "Constant")
	assert.Contains(t, out, "2026-03-14 09:30")
}

func TestFormatHistoryList(t *testing.T) {
	rec := store.RecordFromResult(exportFixture(), true)
	rec.ID = "0123456789abcdef"
	rec.CreatedAt = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	var buf bytes.Buffer
	formatHistoryList(&buf, []store.CalculationRecord{rec})

	out := buf.String()
	assert.Contains(t, out, "01234567") // truncated id
	assert.NotContains(t, out, "0123456789abcdef")
	assert.Contains(t, out, "yes")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "01234567", truncateID("0123456789"))
	assert.Equal(t, "short", truncateID("short"))
}
