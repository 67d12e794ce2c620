package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return sqlx.NewDb(db, "postgres"), mock
}

func TestWithTx_Commit(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM item`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := WithTx(context.Background(), db, func(ctx context.Context, tx DBTX) error {
		_, err := tx.ExecContext(ctx, "DELETE FROM item WHERE owner_id = $1", 1)
		return err
	})
	assert.NoError(t, err)
}

func TestWithTx_RollbackOnError(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := WithTx(context.Background(), db, func(context.Context, DBTX) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.PanicsWithValue(t, "kaboom", func() {
		_ = WithTx(context.Background(), db, func(context.Context, DBTX) error { panic("kaboom") })
	})
}

func TestWithTx_BeginFails(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	mock.ExpectBegin().WillReturnError(errors.New("no connection"))

	called := false
	err := WithTx(context.Background(), db, func(context.Context, DBTX) error {
		called = true
		return nil
	})
	assert.ErrorContains(t, err, "db error: no connection")
	assert.False(t, called)
}
