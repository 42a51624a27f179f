package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/edgeboard/internal/models"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
	}{
		{name: "no rows", err: pgx.ErrNoRows, target: models.ErrNotFound},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505", Message: "dup"}, target: models.ErrDuplicateKey},
		{name: "network", err: fmt.Errorf("dial: %w", timeoutErr{}), target: models.ErrStorageUnavailable},
		{name: "deadline", err: context.DeadlineExceeded, target: models.ErrStorageUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, Classify(tt.err), tt.target)
		})
	}
}

func TestClassifyKeepsCause(t *testing.T) {
	err := Classify(context.DeadlineExceeded)
	assert.ErrorIs(t, err, models.ErrStorageUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	var timeout timeoutErr
	err = Classify(fmt.Errorf("dial: %w", timeoutErr{}))
	assert.True(t, errors.As(err, &timeout))

	err = Classify(pgx.ErrNoRows)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestClassifyPassesThroughOtherErrors(t *testing.T) {
	plain := errors.New("syntax error")
	assert.Equal(t, plain, Classify(plain))
	assert.Nil(t, Classify(nil))

	pgErr := &pgconn.PgError{Code: "42601"}
	assert.Equal(t, error(pgErr), Classify(pgErr))
}

func TestWithTransactionCommits(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE games").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	db := NewFromPool(mock)
	err = db.WithTransaction(context.Background(), func(ctx context.Context, q Querier) error {
		_, err := q.Exec(ctx, "UPDATE games SET finalized = true")
		return err
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTransactionRollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	db := NewFromPool(mock)
	failure := errors.New("boom")
	err = db.WithTransaction(context.Background(), func(ctx context.Context, q Querier) error {
		return failure
	})
	assert.ErrorIs(t, err, failure)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifySchemaReportsMissingTables(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	for _, table := range RequiredTables {
		exists := table != "upload_logs"
		mock.ExpectQuery("SELECT to_regclass").
			WithArgs("public." + table).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(exists))
	}

	db := NewFromPool(mock)
	err = db.VerifySchema(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload_logs")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthCheckUnavailable(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("SELECT 1").WillReturnError(fmt.Errorf("dial tcp: %w", timeoutErr{}))

	db := NewFromPool(mock)
	err = db.HealthCheck(context.Background())
	assert.ErrorIs(t, err, models.ErrStorageUnavailable)
}
