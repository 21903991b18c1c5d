package view

import (
	"github.com/twpayne/go-geom"

	"github.com/drillops/survey-cli/internal/model"
)

// PathLineString converts a series into a 3D linestring for plot and GIS
// consumers. Coordinates are local well-plan axes: X=Easting, Y=Northing,
// Z=-TVD so depth renders downward.
func PathLineString(s *model.PointSeries) *geom.LineString {
	if s == nil {
		return nil
	}

	flat := make([]float64, 0, s.Len()*3)
	for i := 0; i < s.Len(); i++ {
		flat = append(flat, s.Easting[i], s.Northing[i], -s.TVD[i])
	}
	return geom.NewLineStringFlat(geom.XYZ, flat)
}

// PathXY converts a series into a 2D plan-view linestring (Easting,
// Northing).
func PathXY(s *model.PointSeries) *geom.LineString {
	if s == nil {
		return nil
	}

	flat := make([]float64, 0, s.Len()*2)
	for i := 0; i < s.Len(); i++ {
		flat = append(flat, s.Easting[i], s.Northing[i])
	}
	return geom.NewLineStringFlat(geom.XY, flat)
}
