package model

import "github.com/rotisserie/eris"

// PointSeries holds six parallel sequences describing a wellbore path.
// All six slices must have the same length.
type PointSeries struct {
	MD       []float64 `json:"md"`
	Inc      []float64 `json:"inc"`
	Azi      []float64 `json:"azi"`
	Northing []float64 `json:"northing"`
	Easting  []float64 `json:"easting"`
	TVD      []float64 `json:"tvd"`
}

// Len returns the number of points in the series.
func (s PointSeries) Len() int {
	return len(s.MD)
}

// Validate checks that all six sequences have identical length.
func (s PointSeries) Validate() error {
	n := len(s.MD)
	if len(s.Inc) != n || len(s.Azi) != n || len(s.Northing) != n ||
		len(s.Easting) != n || len(s.TVD) != n {
		return eris.Errorf(
			"point series: mismatched lengths md=%d inc=%d azi=%d northing=%d easting=%d tvd=%d",
			len(s.MD), len(s.Inc), len(s.Azi), len(s.Northing), len(s.Easting), len(s.TVD),
		)
	}
	return nil
}

// Append returns a new series with all points of other appended to s.
func (s PointSeries) Append(other PointSeries) PointSeries {
	return PointSeries{
		MD:       append(append([]float64{}, s.MD...), other.MD...),
		Inc:      append(append([]float64{}, s.Inc...), other.Inc...),
		Azi:      append(append([]float64{}, s.Azi...), other.Azi...),
		Northing: append(append([]float64{}, s.Northing...), other.Northing...),
		Easting:  append(append([]float64{}, s.Easting...), other.Easting...),
		TVD:      append(append([]float64{}, s.TVD...), other.TVD...),
	}
}
