package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/drillops/survey-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store needs; pgxmock satisfies it in
// tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 5
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS calculations (
	id             TEXT PRIMARY KEY,
	remote_id      TEXT NOT NULL DEFAULT '',
	survey_data_id TEXT NOT NULL,
	run_id         TEXT NOT NULL,
	params         JSONB NOT NULL,
	saved          BOOLEAN NOT NULL DEFAULT FALSE,
	summary        JSONB NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_calculations_run_id ON calculations(run_id);
CREATE INDEX IF NOT EXISTS idx_calculations_created_at ON calculations(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) RecordCalculation(ctx context.Context, rec CalculationRecord) (*CalculationRecord, error) {
	rec.ID = uuid.New().String()
	rec.CreatedAt = time.Now().UTC()

	paramsJSON, err := json.Marshal(rec.Params)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal params")
	}
	summaryJSON, err := json.Marshal(summaryColumn{
		OriginalPointCount:          rec.OriginalPointCount,
		ExtrapolatedPointCount:      rec.ExtrapolatedPointCount,
		FinalMD:                     rec.FinalMD,
		FinalTVD:                    rec.FinalTVD,
		FinalHorizontalDisplacement: rec.FinalHorizontalDisplacement,
	})
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal summary")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO calculations (id, remote_id, survey_data_id, run_id, params, saved, summary, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.RemoteID, rec.SurveyDataID, rec.RunID, paramsJSON, rec.Saved, summaryJSON, rec.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert calculation")
	}
	return &rec, nil
}

func (s *PostgresStore) GetCalculation(ctx context.Context, id string) (*CalculationRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, remote_id, survey_data_id, run_id, params, saved, summary, created_at
		 FROM calculations WHERE id = $1`, id)

	rec, err := scanPgCalculation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "postgres: calculation %s", id)
		}
		return nil, eris.Wrapf(err, "postgres: get calculation %s", id)
	}
	return rec, nil
}

func (s *PostgresStore) ListCalculations(ctx context.Context, filter ListFilter) ([]CalculationRecord, error) {
	query := `SELECT id, remote_id, survey_data_id, run_id, params, saved, summary, created_at
		FROM calculations`
	var args []any
	if filter.RunID != "" {
		query += ` WHERE run_id = $1`
		args = append(args, filter.RunID)
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
		if filter.Offset > 0 {
			args = append(args, filter.Offset)
			query += ` OFFSET $` + strconv.Itoa(len(args))
		}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list calculations")
	}
	defer rows.Close()

	var records []CalculationRecord
	for rows.Next() {
		rec, err := scanPgCalculation(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan calculation")
		}
		records = append(records, *rec)
	}
	return records, eris.Wrap(rows.Err(), "postgres: iterate calculations")
}

func (s *PostgresStore) DeleteCalculation(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM calculations WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete calculation %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: calculation %s", id)
	}
	return nil
}

func (s *PostgresStore) MarkSaved(ctx context.Context, id, remoteID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE calculations SET saved = TRUE, remote_id = $1 WHERE id = $2`, remoteID, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark saved %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: calculation %s", id)
	}
	return nil
}

func scanPgCalculation(row pgx.Row) (*CalculationRecord, error) {
	var rec CalculationRecord
	var paramsJSON, summaryJSON []byte
	if err := row.Scan(&rec.ID, &rec.RemoteID, &rec.SurveyDataID, &rec.RunID,
		&paramsJSON, &rec.Saved, &summaryJSON, &rec.CreatedAt); err != nil {
		return nil, err
	}

	var params model.Params
	if err := json.Unmarshal(paramsJSON, &params); err != nil {
		return nil, eris.Wrap(err, "decode params")
	}
	rec.Params = params

	var summary summaryColumn
	if err := json.Unmarshal(summaryJSON, &summary); err != nil {
		return nil, eris.Wrap(err, "decode summary")
	}
	rec.OriginalPointCount = summary.OriginalPointCount
	rec.ExtrapolatedPointCount = summary.ExtrapolatedPointCount
	rec.FinalMD = summary.FinalMD
	rec.FinalTVD = summary.FinalTVD
	rec.FinalHorizontalDisplacement = summary.FinalHorizontalDisplacement

	return &rec, nil
}

