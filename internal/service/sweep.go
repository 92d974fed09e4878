package service

import (
	"context"
	"fmt"
	"time"

	"attendly/internal/apperrors"
	"attendly/internal/logger"
	"attendly/internal/metrics"
	"attendly/internal/models"
	"attendly/internal/repository"
)

// SweepService reconciles events whose waitlist drifted out of sync with
// free capacity, for example after an organizer raised max_attendees
// directly in the database.
type SweepService struct {
	store      repository.Store
	attendance *AttendanceService
	metrics    *metrics.Metrics
}

func NewSweepService(store repository.Store, attendance *AttendanceService, m *metrics.Metrics) *SweepService {
	return &SweepService{
		store:      store,
		attendance: attendance,
		metrics:    m,
	}
}

// SweepEvent promotes waiters into free slots for a single event. Each call
// runs in its own transaction.
func (s *SweepService) SweepEvent(ctx context.Context, eventID int64) (*models.SweepResult, error) {
	now := time.Now()
	var promoted []int64

	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		event, err := tx.GetEvent(ctx, eventID)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if event == nil {
			return apperrors.ErrEventNotFound
		}

		promoted, err = promoteFreedSlots(ctx, tx, eventID, now)
		if err != nil {
			return err
		}
		if _, err := recomputeSoldOut(ctx, tx, eventID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(promoted) > 0 {
		actions := make([]models.LogAction, len(promoted))
		for i := range actions {
			actions[i] = models.ActionConfirmed
		}
		s.attendance.afterCommit(ctx, eventID, promotionEvents(eventID, promoted), actions)
		if s.metrics != nil {
			s.metrics.Promotions.Add(float64(len(promoted)))
			s.metrics.SweepPromoted.Add(float64(len(promoted)))
		}
	}

	return &models.SweepResult{EventID: eventID, Promoted: promoted}, nil
}

// SweepUpcoming sweeps every capacity-limited event starting within the
// given window that still has waiters. Per-event failures are logged and do
// not stop the pass.
func (s *SweepService) SweepUpcoming(ctx context.Context, within time.Duration) (*models.SweepResponse, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.SweepDuration.Observe(time.Since(start).Seconds())
		}
	}()

	eventIDs, err := s.store.UpcomingEventsWithWaiters(ctx, within)
	if err != nil {
		return nil, fmt.Errorf("list events with waiters: %w", err)
	}

	resp := &models.SweepResponse{Events: []models.SweepResult{}}
	for _, eventID := range eventIDs {
		result, err := s.SweepEvent(ctx, eventID)
		if err != nil {
			logger.WithContext(ctx).Error("Sweep failed for event",
				"error", err, "event_id", eventID)
			continue
		}
		if len(result.Promoted) > 0 {
			resp.Events = append(resp.Events, *result)
			resp.Total += len(result.Promoted)
		}
	}
	return resp, nil
}
