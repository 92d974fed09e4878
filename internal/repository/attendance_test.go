package repository

import (
	"context"
	"testing"
	"time"

	"attendly/internal/database"
	"attendly/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*AttendanceStore, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return NewAttendanceStore(&database.DB{DB: mockDB}), mock
}

var recordCols = []string{
	"id", "event_id", "user_id", "status", "waitlisted_at", "confirmed_at",
	"cancelled_at", "checked_in_at", "created_at", "updated_at",
}

func TestSnapshotComputesIsFull(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT e.max_attendees`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"max_attendees", "confirmed", "waitlisted"}).
			AddRow(2, 2, 3))
	mock.ExpectCommit()

	var snap *models.CapacitySnapshot
	err := store.WithinTx(context.Background(), func(tx Tx) error {
		var err error
		snap, err = tx.Snapshot(context.Background(), 7)
		return err
	})

	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 2, snap.Confirmed)
	assert.Equal(t, 3, snap.Waitlisted)
	require.NotNil(t, snap.Capacity)
	assert.Equal(t, 2, *snap.Capacity)
	assert.True(t, snap.IsFull)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotUnlimitedCapacityNeverFull(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT e.max_attendees`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"max_attendees", "confirmed", "waitlisted"}).
			AddRow(nil, 500, 0))
	mock.ExpectCommit()

	var snap *models.CapacitySnapshot
	err := store.WithinTx(context.Background(), func(tx Tx) error {
		var err error
		snap, err = tx.Snapshot(context.Background(), 7)
		return err
	})

	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Nil(t, snap.Capacity)
	assert.False(t, snap.IsFull)
}

func TestSnapshotMissingEvent(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT e.max_attendees`).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"max_attendees", "confirmed", "waitlisted"}))
	mock.ExpectCommit()

	err := store.WithinTx(context.Background(), func(tx Tx) error {
		snap, err := tx.Snapshot(context.Background(), 99)
		assert.Nil(t, snap)
		return err
	})
	require.NoError(t, err)
}

func TestGetRecordMissingIsNil(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM attendance_records`).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows(recordCols))
	mock.ExpectCommit()

	err := store.WithinTx(context.Background(), func(tx Tx) error {
		rec, err := tx.GetRecord(context.Background(), 1, 2)
		assert.Nil(t, rec)
		return err
	})
	require.NoError(t, err)
}

func TestOldestWaiterFIFO(t *testing.T) {
	store, mock := newMockStore(t)
	waitlistedAt := time.Now().Add(-time.Hour)
	mock.ExpectBegin()
	mock.ExpectQuery(`ORDER BY waitlisted_at ASC`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(recordCols).
			AddRow(10, 1, 42, "WAITLISTED", waitlistedAt, nil, nil, nil, time.Now(), time.Now()))
	mock.ExpectCommit()

	err := store.WithinTx(context.Background(), func(tx Tx) error {
		rec, err := tx.OldestWaiter(context.Background(), 1)
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, int64(42), rec.UserID)
		assert.Equal(t, models.StatusWaitlisted, rec.Status)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertRecordRejectsUnknownStatus(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	err := store.WithinTx(context.Background(), func(tx Tx) error {
		_, err := tx.UpsertRecord(context.Background(), 1, 2, "PENDING", time.Now())
		return err
	})
	assert.Error(t, err)
}

func TestListFeedback(t *testing.T) {
	store, mock := newMockStore(t)
	comment := "great venue"
	now := time.Now()
	mock.ExpectQuery(`FROM feedback`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "user_id", "rating", "comment", "created_at", "updated_at"}).
			AddRow(1, 1, 5, 4, comment, now, now).
			AddRow(2, 1, 6, 2, nil, now, now))

	records, err := store.ListFeedback(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 4, records[0].Rating)
	require.NotNil(t, records[0].Comment)
	assert.Equal(t, comment, *records[0].Comment)
	assert.Nil(t, records[1].Comment)
}

func TestUpcomingEventsWithWaiters(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT DISTINCT e.id`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3).AddRow(9))

	ids, err := store.UpcomingEventsWithWaiters(context.Background(), 48*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 9}, ids)
}
