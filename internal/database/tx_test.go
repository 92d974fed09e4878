package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return &DB{mockDB}, mock
}

func TestWithinTxCommitsOnSuccess(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	calls := 0
	err := db.WithinTx(context.Background(), func(tx *sql.Tx) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTxRetriesSerializationFailure(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectCommit()

	calls := 0
	err := db.WithinTx(context.Background(), func(tx *sql.Tx) error {
		calls++
		if calls == 1 {
			return &pq.Error{Code: "40001"}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTxGivesUpAfterMaxRetries(t *testing.T) {
	db, mock := newMockDB(t)
	for i := 0; i < txMaxRetries; i++ {
		mock.ExpectBegin()
		mock.ExpectRollback()
	}

	calls := 0
	err := db.WithinTx(context.Background(), func(tx *sql.Tx) error {
		calls++
		return &pq.Error{Code: "40P01"}
	})

	require.Error(t, err)
	assert.Equal(t, txMaxRetries, calls)

	var pqErr *pq.Error
	assert.True(t, errors.As(err, &pqErr))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTxDoesNotRetryBusinessErrors(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	sentinel := errors.New("user already holds a confirmed slot")
	calls := 0
	err := db.WithinTx(context.Background(), func(tx *sql.Tx) error {
		calls++
		return sentinel
	})

	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, isRetryableError(nil))
	assert.False(t, isRetryableError(errors.New("syntax error")))
	assert.False(t, isRetryableError(&pq.Error{Code: "23505"}))

	assert.True(t, isRetryableError(&pq.Error{Code: "40001"}))
	assert.True(t, isRetryableError(&pq.Error{Code: "40P01"}))
	assert.True(t, isRetryableError(errors.New("read tcp: connection reset by peer")))
	assert.True(t, isRetryableError(errors.New("driver: bad connection")))
}
