package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointSeries_Validate(t *testing.T) {
	tests := []struct {
		name    string
		series  PointSeries
		wantErr bool
	}{
		{
			name:   "empty series",
			series: PointSeries{},
		},
		{
			name: "aligned series",
			series: PointSeries{
				MD:       []float64{0, 100},
				Inc:      []float64{0, 5},
				Azi:      []float64{0, 90},
				Northing: []float64{0, 10},
				Easting:  []float64{0, 20},
				TVD:      []float64{0, 99},
			},
		},
		{
			name: "short tvd",
			series: PointSeries{
				MD:       []float64{0, 100},
				Inc:      []float64{0, 5},
				Azi:      []float64{0, 90},
				Northing: []float64{0, 10},
				Easting:  []float64{0, 20},
				TVD:      []float64{0},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.series.Validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestPointSeries_Append(t *testing.T) {
	a := PointSeries{
		MD:       []float64{0, 100},
		Inc:      []float64{0, 5},
		Azi:      []float64{0, 90},
		Northing: []float64{0, 10},
		Easting:  []float64{0, 20},
		TVD:      []float64{0, 99},
	}
	b := PointSeries{
		MD:       []float64{200},
		Inc:      []float64{6},
		Azi:      []float64{91},
		Northing: []float64{15},
		Easting:  []float64{25},
		TVD:      []float64{195},
	}

	got := a.Append(b)
	require.NoError(t, got.Validate())
	assert.Equal(t, 3, got.Len())
	assert.Equal(t, []float64{0, 100, 200}, got.MD)
	assert.Equal(t, []float64{0, 99, 195}, got.TVD)

	// Source series are untouched.
	assert.Equal(t, 2, a.Len())
	assert.Equal(t, 1, b.Len())
}
