package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drillops/survey-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_RecordCalculation(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO calculations`).
		WithArgs(pgxmock.AnyArg(), "", "s1", "r1", pgxmock.AnyArg(), false, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	created, err := s.RecordCalculation(context.Background(), sampleRecord())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCalculation(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	paramsJSON, err := json.Marshal(model.DefaultParams())
	require.NoError(t, err)
	summaryJSON, err := json.Marshal(summaryColumn{FinalMD: 1000})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT id, remote_id, survey_data_id, run_id, params, saved, summary, created_at FROM calculations WHERE id = \$1`).
		WithArgs("calc-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "remote_id", "survey_data_id", "run_id", "params", "saved", "summary", "created_at",
		}).AddRow("calc-1", "ex-3", "s1", "r1", paramsJSON, true, summaryJSON, time.Now().UTC()))

	got, err := s.GetCalculation(context.Background(), "calc-1")
	require.NoError(t, err)
	assert.Equal(t, "ex-3", got.RemoteID)
	assert.True(t, got.Saved)
	assert.Equal(t, 1000.0, got.FinalMD)
	assert.Equal(t, model.MethodConstant, got.Params.Method)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCalculation_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, remote_id, survey_data_id, run_id, params, saved, summary, created_at FROM calculations WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetCalculation(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteCalculation_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM calculations WHERE id = \$1`).
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.ErrorIs(t, s.DeleteCalculation(context.Background(), "missing"), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MarkSaved(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE calculations SET saved = TRUE, remote_id = \$1 WHERE id = \$2`).
		WithArgs("ex-7", "calc-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, s.MarkSaved(context.Background(), "calc-1", "ex-7"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
