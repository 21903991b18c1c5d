package model

import (
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
)

// ExtrapolationResult is a single extrapolation of a survey path. ID is empty
// for an in-memory calculation and set once the result has been persisted by
// the calculation service. SurveyDataID and RunID are immutable linkage to
// the source survey and owning run.
type ExtrapolationResult struct {
	ID           string
	SurveyDataID string
	RunID        string

	Params Params

	Original     PointSeries
	Interpolated PointSeries
	Extrapolated PointSeries
	Combined     PointSeries

	// Server-computed display scalars, consumed verbatim.
	OriginalPointCount          int
	ExtrapolatedPointCount      int
	FinalMD                     float64
	FinalTVD                    float64
	FinalHorizontalDisplacement float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Saved reports whether the result has been persisted by the service.
func (r *ExtrapolationResult) Saved() bool {
	return r.ID != ""
}

// Validate checks that each series is internally aligned and that the
// combined series length equals the sum of the three component series.
func (r *ExtrapolationResult) Validate() error {
	for _, s := range []struct {
		name   string
		series PointSeries
	}{
		{"original", r.Original},
		{"interpolated", r.Interpolated},
		{"extrapolated", r.Extrapolated},
		{"combined", r.Combined},
	} {
		if err := s.series.Validate(); err != nil {
			return eris.Wrapf(err, "result: %s series", s.name)
		}
	}

	want := r.Original.Len() + r.Interpolated.Len() + r.Extrapolated.Len()
	if r.Combined.Len() != want {
		return eris.Errorf("result: combined length %d != original %d + interpolated %d + extrapolated %d",
			r.Combined.Len(), r.Original.Len(), r.Interpolated.Len(), r.Extrapolated.Len())
	}
	return nil
}

// resultWire is the flat JSON document exchanged with the calculation API.
// Each logical series is transmitted as six prefixed parallel arrays.
type resultWire struct {
	ID           string `json:"id,omitempty"`
	SurveyDataID string `json:"survey_data_id"`
	RunID        string `json:"run_id"`

	Length     float64 `json:"extrapolation_length"`
	Step       float64 `json:"extrapolation_step"`
	InterpStep float64 `json:"interpolation_step"`
	Method     Method  `json:"extrapolation_method"`

	OriginalMD       []float64 `json:"original_md"`
	OriginalInc      []float64 `json:"original_inc"`
	OriginalAzi      []float64 `json:"original_azi"`
	OriginalNorthing []float64 `json:"original_northing"`
	OriginalEasting  []float64 `json:"original_easting"`
	OriginalTVD      []float64 `json:"original_tvd"`

	InterpolatedMD       []float64 `json:"interpolated_md"`
	InterpolatedInc      []float64 `json:"interpolated_inc"`
	InterpolatedAzi      []float64 `json:"interpolated_azi"`
	InterpolatedNorthing []float64 `json:"interpolated_northing"`
	InterpolatedEasting  []float64 `json:"interpolated_easting"`
	InterpolatedTVD      []float64 `json:"interpolated_tvd"`

	ExtrapolatedMD       []float64 `json:"extrapolated_md"`
	ExtrapolatedInc      []float64 `json:"extrapolated_inc"`
	ExtrapolatedAzi      []float64 `json:"extrapolated_azi"`
	ExtrapolatedNorthing []float64 `json:"extrapolated_northing"`
	ExtrapolatedEasting  []float64 `json:"extrapolated_easting"`
	ExtrapolatedTVD      []float64 `json:"extrapolated_tvd"`

	CombinedMD       []float64 `json:"combined_md"`
	CombinedInc      []float64 `json:"combined_inc"`
	CombinedAzi      []float64 `json:"combined_azi"`
	CombinedNorthing []float64 `json:"combined_northing"`
	CombinedEasting  []float64 `json:"combined_easting"`
	CombinedTVD      []float64 `json:"combined_tvd"`

	OriginalPointCount          int     `json:"original_point_count"`
	ExtrapolatedPointCount      int     `json:"extrapolated_point_count"`
	FinalMD                     float64 `json:"final_md"`
	FinalTVD                    float64 `json:"final_tvd"`
	FinalHorizontalDisplacement float64 `json:"final_horizontal_displacement"`

	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// MarshalJSON encodes the result in the flat wire layout.
func (r ExtrapolationResult) MarshalJSON() ([]byte, error) {
	w := resultWire{
		ID:           r.ID,
		SurveyDataID: r.SurveyDataID,
		RunID:        r.RunID,
		Length:       r.Params.Length,
		Step:         r.Params.Step,
		InterpStep:   r.Params.InterpStep,
		Method:       r.Params.Method,

		OriginalMD:       r.Original.MD,
		OriginalInc:      r.Original.Inc,
		OriginalAzi:      r.Original.Azi,
		OriginalNorthing: r.Original.Northing,
		OriginalEasting:  r.Original.Easting,
		OriginalTVD:      r.Original.TVD,

		InterpolatedMD:       r.Interpolated.MD,
		InterpolatedInc:      r.Interpolated.Inc,
		InterpolatedAzi:      r.Interpolated.Azi,
		InterpolatedNorthing: r.Interpolated.Northing,
		InterpolatedEasting:  r.Interpolated.Easting,
		InterpolatedTVD:      r.Interpolated.TVD,

		ExtrapolatedMD:       r.Extrapolated.MD,
		ExtrapolatedInc:      r.Extrapolated.Inc,
		ExtrapolatedAzi:      r.Extrapolated.Azi,
		ExtrapolatedNorthing: r.Extrapolated.Northing,
		ExtrapolatedEasting:  r.Extrapolated.Easting,
		ExtrapolatedTVD:      r.Extrapolated.TVD,

		CombinedMD:       r.Combined.MD,
		CombinedInc:      r.Combined.Inc,
		CombinedAzi:      r.Combined.Azi,
		CombinedNorthing: r.Combined.Northing,
		CombinedEasting:  r.Combined.Easting,
		CombinedTVD:      r.Combined.TVD,

		OriginalPointCount:          r.OriginalPointCount,
		ExtrapolatedPointCount:      r.ExtrapolatedPointCount,
		FinalMD:                     r.FinalMD,
		FinalTVD:                    r.FinalTVD,
		FinalHorizontalDisplacement: r.FinalHorizontalDisplacement,
	}
	if !r.CreatedAt.IsZero() {
		t := r.CreatedAt
		w.CreatedAt = &t
	}
	if !r.UpdatedAt.IsZero() {
		t := r.UpdatedAt
		w.UpdatedAt = &t
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the flat wire layout into the grouped form.
func (r *ExtrapolationResult) UnmarshalJSON(data []byte) error {
	var w resultWire
	if err := json.Unmarshal(data, &w); err != nil {
		return eris.Wrap(err, "decode extrapolation result")
	}

	r.ID = w.ID
	r.SurveyDataID = w.SurveyDataID
	r.RunID = w.RunID
	r.Params = Params{
		Length:     w.Length,
		Step:       w.Step,
		InterpStep: w.InterpStep,
		Method:     w.Method,
	}
	r.Original = PointSeries{MD: w.OriginalMD, Inc: w.OriginalInc, Azi: w.OriginalAzi,
		Northing: w.OriginalNorthing, Easting: w.OriginalEasting, TVD: w.OriginalTVD}
	r.Interpolated = PointSeries{MD: w.InterpolatedMD, Inc: w.InterpolatedInc, Azi: w.InterpolatedAzi,
		Northing: w.InterpolatedNorthing, Easting: w.InterpolatedEasting, TVD: w.InterpolatedTVD}
	r.Extrapolated = PointSeries{MD: w.ExtrapolatedMD, Inc: w.ExtrapolatedInc, Azi: w.ExtrapolatedAzi,
		Northing: w.ExtrapolatedNorthing, Easting: w.ExtrapolatedEasting, TVD: w.ExtrapolatedTVD}
	r.Combined = PointSeries{MD: w.CombinedMD, Inc: w.CombinedInc, Azi: w.CombinedAzi,
		Northing: w.CombinedNorthing, Easting: w.CombinedEasting, TVD: w.CombinedTVD}

	r.OriginalPointCount = w.OriginalPointCount
	r.ExtrapolatedPointCount = w.ExtrapolatedPointCount
	r.FinalMD = w.FinalMD
	r.FinalTVD = w.FinalTVD
	r.FinalHorizontalDisplacement = w.FinalHorizontalDisplacement

	if w.CreatedAt != nil {
		r.CreatedAt = *w.CreatedAt
	}
	if w.UpdatedAt != nil {
		r.UpdatedAt = *w.UpdatedAt
	}
	return nil
}
