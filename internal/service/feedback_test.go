package service

import (
	"context"
	"testing"

	"attendly/internal/apperrors"
	"attendly/internal/metrics"
	"attendly/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestSubmitFeedbackRatingBounds(t *testing.T) {
	store := newFakeStore()
	store.addEvent(1, organizerID, nil, false)
	svc := NewFeedbackService(store, Policy{})
	ctx := context.Background()

	for _, rating := range []int{0, -1, 6, 100} {
		err := svc.Submit(ctx, 1, userA, &models.SubmitFeedbackRequest{Rating: rating})
		assert.ErrorIs(t, err, apperrors.ErrInvalidFeedbackRating, "rating %d", rating)
	}

	for rating := 1; rating <= 5; rating++ {
		err := svc.Submit(ctx, 1, userA, &models.SubmitFeedbackRequest{Rating: rating})
		assert.NoError(t, err, "rating %d", rating)
	}
}

func TestSubmitFeedbackEventNotFound(t *testing.T) {
	svc := NewFeedbackService(newFakeStore(), Policy{})

	err := svc.Submit(context.Background(), 42, userA, &models.SubmitFeedbackRequest{Rating: 3})
	assert.ErrorIs(t, err, apperrors.ErrEventNotFound)
}

func TestSubmitFeedbackUpsert(t *testing.T) {
	store := newFakeStore()
	store.addEvent(1, organizerID, nil, false)
	svc := NewFeedbackService(store, Policy{})
	ctx := context.Background()

	require.NoError(t, svc.Submit(ctx, 1, userA, &models.SubmitFeedbackRequest{
		Rating:  2,
		Comment: strPtr("too crowded"),
	}))
	require.NoError(t, svc.Submit(ctx, 1, userA, &models.SubmitFeedbackRequest{
		Rating: 5,
	}))

	records, err := svc.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, records, 1, "resubmission must overwrite, not append")
	assert.Equal(t, 5, records[0].Rating)
	assert.Nil(t, records[0].Comment)
}

func TestSubmitFeedbackAttendanceGate(t *testing.T) {
	store := newFakeStore()
	store.addEvent(1, organizerID, intPtr(5), true)
	attendance := NewAttendanceService(store, &fakeNotifier{}, nil, metrics.New())
	svc := NewFeedbackService(store, Policy{FeedbackRequireAttendance: true})
	ctx := context.Background()

	err := svc.Submit(ctx, 1, userA, &models.SubmitFeedbackRequest{Rating: 4})
	assert.ErrorIs(t, err, apperrors.ErrFeedbackNotEligible)

	_, err = attendance.Join(ctx, 1, userA)
	require.NoError(t, err)

	assert.NoError(t, svc.Submit(ctx, 1, userA, &models.SubmitFeedbackRequest{Rating: 4}))

	// A cancelled record still counts as having attended once confirmed.
	_, err = attendance.Leave(ctx, 1, userA)
	require.NoError(t, err)
	assert.NoError(t, svc.Submit(ctx, 1, userA, &models.SubmitFeedbackRequest{Rating: 3}))
}
