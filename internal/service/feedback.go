package service

import (
	"context"
	"fmt"

	"attendly/internal/apperrors"
	"attendly/internal/models"
	"attendly/internal/repository"
)

// FeedbackService maintains the per-attendee feedback ledger. A user holds
// at most one feedback row per event; resubmission overwrites it.
type FeedbackService struct {
	store  repository.Store
	policy Policy
}

func NewFeedbackService(store repository.Store, policy Policy) *FeedbackService {
	return &FeedbackService{store: store, policy: policy}
}

func (s *FeedbackService) Submit(ctx context.Context, eventID, userID int64, req *models.SubmitFeedbackRequest) error {
	if req.Rating < 1 || req.Rating > 5 {
		return apperrors.ErrInvalidFeedbackRating
	}

	return s.store.WithinTx(ctx, func(tx repository.Tx) error {
		event, err := tx.GetEvent(ctx, eventID)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if event == nil {
			return apperrors.ErrEventNotFound
		}

		if s.policy.FeedbackRequireAttendance {
			attended, err := tx.HasAttended(ctx, eventID, userID)
			if err != nil {
				return fmt.Errorf("check attendance: %w", err)
			}
			if !attended {
				return apperrors.ErrFeedbackNotEligible
			}
		}

		if err := tx.UpsertFeedback(ctx, eventID, userID, req.Rating, req.Comment); err != nil {
			return fmt.Errorf("upsert feedback: %w", err)
		}
		return nil
	})
}

func (s *FeedbackService) List(ctx context.Context, eventID int64) ([]models.FeedbackRecord, error) {
	records, err := s.store.ListFeedback(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	return records, nil
}
