// Package store keeps a local history of calculation runs. The calculation
// service holds the authoritative saved extrapolations; this store records
// what was calculated from this machine so past runs can be audited offline.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/drillops/survey-cli/internal/model"
)

// ErrNotFound is returned when a history record does not exist.
var ErrNotFound = eris.New("store: record not found")

// CalculationRecord is one calculation run recorded locally.
type CalculationRecord struct {
	ID           string       `json:"id"`
	RemoteID     string       `json:"remote_id,omitempty"`
	SurveyDataID string       `json:"survey_data_id"`
	RunID        string       `json:"run_id"`
	Params       model.Params `json:"params"`
	Saved        bool         `json:"saved"`

	OriginalPointCount          int     `json:"original_point_count"`
	ExtrapolatedPointCount      int     `json:"extrapolated_point_count"`
	FinalMD                     float64 `json:"final_md"`
	FinalTVD                    float64 `json:"final_tvd"`
	FinalHorizontalDisplacement float64 `json:"final_horizontal_displacement"`

	CreatedAt time.Time `json:"created_at"`
}

// RecordFromResult builds a history record from a calculation result.
func RecordFromResult(result *model.ExtrapolationResult, saved bool) CalculationRecord {
	return CalculationRecord{
		RemoteID:     result.ID,
		SurveyDataID: result.SurveyDataID,
		RunID:        result.RunID,
		Params:       result.Params,
		Saved:        saved,

		OriginalPointCount:          result.OriginalPointCount,
		ExtrapolatedPointCount:      result.ExtrapolatedPointCount,
		FinalMD:                     result.FinalMD,
		FinalTVD:                    result.FinalTVD,
		FinalHorizontalDisplacement: result.FinalHorizontalDisplacement,
	}
}

// ListFilter specifies criteria for listing history records.
type ListFilter struct {
	RunID  string
	Limit  int
	Offset int
}

// Store defines the local calculation-history interface.
type Store interface {
	RecordCalculation(ctx context.Context, rec CalculationRecord) (*CalculationRecord, error)
	GetCalculation(ctx context.Context, id string) (*CalculationRecord, error)
	ListCalculations(ctx context.Context, filter ListFilter) ([]CalculationRecord, error)
	DeleteCalculation(ctx context.Context, id string) error
	// MarkSaved flags a record as persisted remotely and stores the remote id.
	MarkSaved(ctx context.Context, id, remoteID string) error

	Migrate(ctx context.Context) error
	Close() error
}
