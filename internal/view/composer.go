// Package view derives the plot- and table-facing datasets from an
// extrapolation result. Selection is pure: a view can be recomputed at any
// time from the result alone.
package view

import (
	"github.com/rotisserie/eris"

	"github.com/drillops/survey-cli/internal/model"
)

// Mode selects which logical dataset of a result to present.
type Mode int

const (
	ModeOriginal Mode = iota
	ModeExtrapolated
	ModeCombined
)

var modeNames = map[Mode]string{
	ModeOriginal:     "original",
	ModeExtrapolated: "extrapolated",
	ModeCombined:     "combined",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return "unknown"
}

// ParseMode converts a user-facing mode name into a Mode.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return 0, eris.Errorf("unknown view mode %q (want original, extrapolated, or combined)", s)
}

// Select returns the point series for the requested mode. The output shape is
// identical across modes, so plot and table consumers never special-case the
// mode. A nil result yields a nil series. Unknown modes are rejected rather
// than falling through to a default.
func Select(result *model.ExtrapolationResult, mode Mode) (*model.PointSeries, error) {
	if result == nil {
		return nil, nil
	}

	switch mode {
	case ModeOriginal:
		s := result.Original
		return &s, nil
	case ModeExtrapolated:
		s := result.Extrapolated
		return &s, nil
	case ModeCombined:
		s := result.Combined
		return &s, nil
	default:
		return nil, eris.Errorf("view: unhandled mode %d", int(mode))
	}
}
