package service

import (
	"context"
	"testing"
	"time"

	"attendly/internal/apperrors"
	"attendly/internal/metrics"
	"attendly/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSweepFixture(t *testing.T) (*SweepService, *AttendanceService, *fakeStore, *fakeNotifier) {
	t.Helper()
	store := newFakeStore()
	notifier := &fakeNotifier{}
	m := metrics.New()
	attendance := NewAttendanceService(store, notifier, nil, m)
	sweep := NewSweepService(store, attendance, m)
	return sweep, attendance, store, notifier
}

func TestSweepEventPromotesAfterCapacityBump(t *testing.T) {
	sweep, attendance, store, notifier := newSweepFixture(t)
	store.addEvent(1, organizerID, intPtr(1), true)
	ctx := context.Background()

	_, err := attendance.Join(ctx, 1, userA)
	require.NoError(t, err)
	_, err = attendance.Join(ctx, 1, userB)
	require.NoError(t, err)
	_, err = attendance.Join(ctx, 1, userC)
	require.NoError(t, err)

	// Capacity raised out of band, no transition fired.
	*store.events[1].MaxAttendees = 3

	result, err := sweep.SweepEvent(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{userB, userC}, result.Promoted)

	assert.Equal(t, models.StatusConfirmed, store.statusOf(1, userB))
	assert.Equal(t, models.StatusConfirmed, store.statusOf(1, userC))
	assert.True(t, store.events[1].IsSoldOut)
	assert.Contains(t, notifier.subjects, models.SubjectWaitlistPromoted)
}

func TestSweepEventNothingToDo(t *testing.T) {
	sweep, attendance, store, notifier := newSweepFixture(t)
	store.addEvent(1, organizerID, intPtr(2), true)
	ctx := context.Background()

	_, err := attendance.Join(ctx, 1, userA)
	require.NoError(t, err)
	notifier.subjects = nil

	result, err := sweep.SweepEvent(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, result.Promoted)
	assert.Empty(t, notifier.subjects)
}

func TestSweepEventNotFound(t *testing.T) {
	sweep, _, _, _ := newSweepFixture(t)

	_, err := sweep.SweepEvent(context.Background(), 42)
	assert.ErrorIs(t, err, apperrors.ErrEventNotFound)
}

func TestSweepUpcomingWindow(t *testing.T) {
	sweep, attendance, store, _ := newSweepFixture(t)
	ctx := context.Background()

	// Starts in 2h, inside the window, has a waiter after the bump.
	store.addEvent(1, organizerID, intPtr(1), true)
	// Starts far outside the window.
	far := store.addEvent(2, organizerID, intPtr(1), true)
	far.StartsAt = time.Now().Add(200 * time.Hour)

	for _, eventID := range []int64{1, 2} {
		_, err := attendance.Join(ctx, eventID, userA)
		require.NoError(t, err)
		_, err = attendance.Join(ctx, eventID, userB)
		require.NoError(t, err)
		*store.events[eventID].MaxAttendees = 2
	}

	resp, err := sweep.SweepUpcoming(ctx, 48*time.Hour)
	require.NoError(t, err)
	require.Len(t, resp.Events, 1)
	assert.Equal(t, int64(1), resp.Events[0].EventID)
	assert.Equal(t, []int64{userB}, resp.Events[0].Promoted)
	assert.Equal(t, 1, resp.Total)

	// The event outside the window was left alone.
	assert.Equal(t, models.StatusWaitlisted, store.statusOf(2, userB))
}
