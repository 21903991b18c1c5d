package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/drillops/survey-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS calculations (
	id             TEXT PRIMARY KEY,
	remote_id      TEXT NOT NULL DEFAULT '',
	survey_data_id TEXT NOT NULL,
	run_id         TEXT NOT NULL,
	params         TEXT NOT NULL,
	saved          INTEGER NOT NULL DEFAULT 0,
	summary        TEXT NOT NULL,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_calculations_run_id ON calculations(run_id);
CREATE INDEX IF NOT EXISTS idx_calculations_created_at ON calculations(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// summaryColumn is the JSON document stored per record for the server-derived
// display scalars.
type summaryColumn struct {
	OriginalPointCount          int     `json:"original_point_count"`
	ExtrapolatedPointCount      int     `json:"extrapolated_point_count"`
	FinalMD                     float64 `json:"final_md"`
	FinalTVD                    float64 `json:"final_tvd"`
	FinalHorizontalDisplacement float64 `json:"final_horizontal_displacement"`
}

func (s *SQLiteStore) RecordCalculation(ctx context.Context, rec CalculationRecord) (*CalculationRecord, error) {
	rec.ID = uuid.New().String()
	rec.CreatedAt = time.Now().UTC()

	paramsJSON, err := json.Marshal(rec.Params)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal params")
	}
	summaryJSON, err := json.Marshal(summaryColumn{
		OriginalPointCount:          rec.OriginalPointCount,
		ExtrapolatedPointCount:      rec.ExtrapolatedPointCount,
		FinalMD:                     rec.FinalMD,
		FinalTVD:                    rec.FinalTVD,
		FinalHorizontalDisplacement: rec.FinalHorizontalDisplacement,
	})
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal summary")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO calculations (id, remote_id, survey_data_id, run_id, params, saved, summary, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.RemoteID, rec.SurveyDataID, rec.RunID, string(paramsJSON), rec.Saved, string(summaryJSON), rec.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert calculation")
	}
	return &rec, nil
}

func (s *SQLiteStore) GetCalculation(ctx context.Context, id string) (*CalculationRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, remote_id, survey_data_id, run_id, params, saved, summary, created_at
		 FROM calculations WHERE id = ?`, id)

	rec, err := scanCalculation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "sqlite: calculation %s", id)
		}
		return nil, eris.Wrapf(err, "sqlite: get calculation %s", id)
	}
	return rec, nil
}

func (s *SQLiteStore) ListCalculations(ctx context.Context, filter ListFilter) ([]CalculationRecord, error) {
	query := `SELECT id, remote_id, survey_data_id, run_id, params, saved, summary, created_at
		FROM calculations`
	var args []any
	if filter.RunID != "" {
		query += ` WHERE run_id = ?`
		args = append(args, filter.RunID)
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list calculations")
	}
	defer rows.Close()

	var records []CalculationRecord
	for rows.Next() {
		rec, err := scanCalculation(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan calculation")
		}
		records = append(records, *rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: iterate calculations")
}

func (s *SQLiteStore) DeleteCalculation(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM calculations WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete calculation %s", id)
	}
	return checkRowsAffected(res, id)
}

func (s *SQLiteStore) MarkSaved(ctx context.Context, id, remoteID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE calculations SET saved = 1, remote_id = ? WHERE id = ?`, remoteID, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark saved %s", id)
	}
	return checkRowsAffected(res, id)
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCalculation(row scanner) (*CalculationRecord, error) {
	var rec CalculationRecord
	var paramsJSON, summaryJSON string
	if err := row.Scan(&rec.ID, &rec.RemoteID, &rec.SurveyDataID, &rec.RunID,
		&paramsJSON, &rec.Saved, &summaryJSON, &rec.CreatedAt); err != nil {
		return nil, err
	}

	var params model.Params
	if err := json.Unmarshal([]byte(paramsJSON), &params); err != nil {
		return nil, eris.Wrap(err, "decode params")
	}
	rec.Params = params

	var summary summaryColumn
	if err := json.Unmarshal([]byte(summaryJSON), &summary); err != nil {
		return nil, eris.Wrap(err, "decode summary")
	}
	rec.OriginalPointCount = summary.OriginalPointCount
	rec.ExtrapolatedPointCount = summary.ExtrapolatedPointCount
	rec.FinalMD = summary.FinalMD
	rec.FinalTVD = summary.FinalTVD
	rec.FinalHorizontalDisplacement = summary.FinalHorizontalDisplacement

	return &rec, nil
}

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "sqlite: calculation %s", id)
	}
	return nil
}
