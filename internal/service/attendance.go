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

// AttendanceService is the RSVP transition engine. Every operation that
// reads capacity and writes a record runs inside one serializable
// transaction; notifications and cache invalidation happen strictly after
// commit.
type AttendanceService struct {
	store    repository.Store
	notifier Notifier
	cache    SnapshotCache
	metrics  *metrics.Metrics
}

func NewAttendanceService(store repository.Store, notifier Notifier, cache SnapshotCache, m *metrics.Metrics) *AttendanceService {
	return &AttendanceService{
		store:    store,
		notifier: notifier,
		cache:    cache,
		metrics:  m,
	}
}

// outbound is a notification staged during a transaction and published only
// after the transaction commits.
type outbound struct {
	subject string
	payload interface{}
}

func (s *AttendanceService) afterCommit(ctx context.Context, eventID int64, events []outbound, actions []models.LogAction) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, eventID); err != nil {
			logger.WithContext(ctx).Warn("Failed to invalidate capacity cache",
				"error", err, "event_id", eventID)
		}
	}

	if s.metrics != nil {
		for _, action := range actions {
			s.metrics.Transitions.WithLabelValues(string(action)).Inc()
		}
	}

	if s.notifier == nil {
		return
	}
	for _, ev := range events {
		if err := s.notifier.Publish(ev.subject, ev.payload); err != nil {
			// Log error but don't fail the operation
			logger.WithContext(ctx).Error("Failed to publish attendance notification",
				"error", err,
				"event_id", eventID,
				"subject", ev.subject)
		}
	}
}

func changedEvent(eventID, userID int64, action models.LogAction, reason string, actorID *int64) outbound {
	return outbound{
		subject: models.SubjectFor(action),
		payload: models.AttendanceChangedEvent{
			EventID:   eventID,
			UserID:    userID,
			Action:    action,
			Reason:    reason,
			ActorID:   actorID,
			Timestamp: time.Now(),
		},
	}
}

func promotionEvents(eventID int64, promoted []int64) []outbound {
	events := make([]outbound, 0, len(promoted))
	for _, userID := range promoted {
		events = append(events, outbound{
			subject: models.SubjectWaitlistPromoted,
			payload: models.WaitlistPromotedEvent{
				EventID:   eventID,
				UserID:    userID,
				Timestamp: time.Now(),
			},
		})
	}
	return events
}

// Capacity returns the live capacity snapshot for one event.
func (s *AttendanceService) Capacity(ctx context.Context, eventID int64) (*models.CapacitySnapshot, error) {
	var snap *models.CapacitySnapshot
	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		event, err := tx.GetEvent(ctx, eventID)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if event == nil {
			return apperrors.ErrEventNotFound
		}
		snap, err = tx.Snapshot(ctx, eventID)
		if err != nil {
			return fmt.Errorf("read capacity snapshot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Join is the self-service RSVP. Organizers and co-organizers are always
// confirmed regardless of capacity; everyone else gets CONFIRMED while
// capacity allows and WAITLISTED once the event is full, or
// ErrWaitlistDisabled when waitlisting is off.
func (s *AttendanceService) Join(ctx context.Context, eventID, userID int64) (*models.JoinResponse, error) {
	now := time.Now()
	var resp *models.JoinResponse
	var outbox []outbound
	var actions []models.LogAction

	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		outbox, actions = nil, nil

		event, err := tx.GetEvent(ctx, eventID)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if event == nil {
			return apperrors.ErrEventNotFound
		}

		isOrganizer, err := tx.IsOrganizer(ctx, eventID, userID)
		if err != nil {
			return fmt.Errorf("check organizer: %w", err)
		}
		if isOrganizer {
			// Organizers always attend their own event; the upsert is
			// idempotent and exempt from capacity accounting.
			if _, err := tx.UpsertRecord(ctx, eventID, userID, models.StatusConfirmed, now); err != nil {
				return fmt.Errorf("confirm organizer: %w", err)
			}
			if err := tx.AttachAttendee(ctx, eventID, userID); err != nil {
				return fmt.Errorf("attach organizer: %w", err)
			}
			if err := tx.AppendLog(ctx, &models.AttendanceLogEntry{
				EventID:  eventID,
				UserID:   userID,
				Action:   models.ActionConfirmed,
				Reason:   "self-rsvp",
				Metadata: models.LogMeta{"actorId": userID},
			}); err != nil {
				return fmt.Errorf("log transition: %w", err)
			}
			snap, err := recomputeSoldOut(ctx, tx, eventID)
			if err != nil {
				return err
			}
			resp = &models.JoinResponse{Status: models.StatusConfirmed, Capacity: *snap}
			outbox = append(outbox, changedEvent(eventID, userID, models.ActionConfirmed, "self-rsvp", nil))
			actions = append(actions, models.ActionConfirmed)
			return nil
		}

		record, err := tx.GetRecord(ctx, eventID, userID)
		if err != nil {
			return fmt.Errorf("get attendance record: %w", err)
		}
		if record != nil && (record.Status == models.StatusConfirmed || record.Status == models.StatusCheckedIn) {
			return apperrors.ErrAlreadyConfirmed
		}

		snap, err := tx.Snapshot(ctx, eventID)
		if err != nil {
			return fmt.Errorf("read capacity snapshot: %w", err)
		}

		target := models.StatusConfirmed
		if snap.Capacity != nil && snap.Confirmed >= *snap.Capacity {
			if !event.WaitlistEnabled {
				return apperrors.ErrWaitlistDisabled
			}
			target = models.StatusWaitlisted
		}

		if record != nil && !models.CanTransition(record.Status, target) {
			return apperrors.ErrNotAttending
		}

		if record != nil && record.Status == models.StatusWaitlisted && target == models.StatusWaitlisted {
			// Retry of a join that already waitlisted the user: keep the
			// original waitlisted_at so the FIFO position is preserved.
			resp = &models.JoinResponse{Status: target, Waitlisted: true, Capacity: *snap}
			return nil
		}

		if _, err := tx.UpsertRecord(ctx, eventID, userID, target, now); err != nil {
			return fmt.Errorf("upsert attendance record: %w", err)
		}

		if target == models.StatusConfirmed {
			if err := tx.AttachAttendee(ctx, eventID, userID); err != nil {
				return fmt.Errorf("attach attendee: %w", err)
			}
		} else {
			if err := tx.DetachAttendee(ctx, eventID, userID); err != nil {
				return fmt.Errorf("detach attendee: %w", err)
			}
		}

		if err := tx.AppendLog(ctx, &models.AttendanceLogEntry{
			EventID:  eventID,
			UserID:   userID,
			Action:   models.ActionFor(target),
			Reason:   "self-rsvp",
			Metadata: models.LogMeta{"actorId": userID},
		}); err != nil {
			return fmt.Errorf("log transition: %w", err)
		}

		final, err := recomputeSoldOut(ctx, tx, eventID)
		if err != nil {
			return err
		}

		resp = &models.JoinResponse{
			Status:     target,
			Waitlisted: target == models.StatusWaitlisted,
			Capacity:   *final,
		}
		outbox = append(outbox, changedEvent(eventID, userID, models.ActionFor(target), "self-rsvp", nil))
		actions = append(actions, models.ActionFor(target))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, eventID, outbox, actions)
	return resp, nil
}

// Leave is the self-service cancellation. Freed slots cascade into waitlist
// promotion inside the same transaction.
func (s *AttendanceService) Leave(ctx context.Context, eventID, userID int64) (*models.CancelResponse, error) {
	resp, outbox, actions, err := s.cancel(ctx, eventID, userID, nil)
	if err != nil {
		return nil, err
	}
	s.afterCommit(ctx, eventID, outbox, actions)
	return resp, nil
}

// CancelFor is the organizer override cancelling on behalf of a target user.
func (s *AttendanceService) CancelFor(ctx context.Context, eventID, actorID, targetID int64) (*models.CancelResponse, error) {
	resp, outbox, actions, err := s.cancel(ctx, eventID, targetID, &actorID)
	if err != nil {
		return nil, err
	}
	s.afterCommit(ctx, eventID, outbox, actions)
	return resp, nil
}

// cancel implements both the self-service leave and the organizer override.
// actorID == nil means the user is leaving on their own; a non-nil actorID
// is verified for organizer privileges.
func (s *AttendanceService) cancel(ctx context.Context, eventID, userID int64, actorID *int64) (*models.CancelResponse, []outbound, []models.LogAction, error) {
	now := time.Now()
	reason := "self-cancelled"
	if actorID != nil {
		reason = "organizer-cancelled"
	}

	var resp *models.CancelResponse
	var outbox []outbound
	var actions []models.LogAction

	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		outbox, actions = nil, nil

		event, err := tx.GetEvent(ctx, eventID)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if event == nil {
			return apperrors.ErrEventNotFound
		}

		if actorID != nil {
			if err := requireOrganizer(ctx, tx, eventID, *actorID); err != nil {
				return err
			}
		} else {
			isOrganizer, err := tx.IsOrganizer(ctx, eventID, userID)
			if err != nil {
				return fmt.Errorf("check organizer: %w", err)
			}
			if isOrganizer {
				return apperrors.ErrOrganizerCannotLeave
			}
		}

		record, err := tx.GetRecord(ctx, eventID, userID)
		if err != nil {
			return fmt.Errorf("get attendance record: %w", err)
		}
		if record == nil || !record.Status.Active() {
			return apperrors.ErrNotAttending
		}

		if _, err := tx.UpsertRecord(ctx, eventID, userID, models.StatusCancelled, now); err != nil {
			return fmt.Errorf("cancel attendance record: %w", err)
		}
		if err := tx.DetachAttendee(ctx, eventID, userID); err != nil {
			return fmt.Errorf("detach attendee: %w", err)
		}

		meta := models.LogMeta{"actorId": userID}
		if actorID != nil {
			meta["actorId"] = *actorID
		}
		if err := tx.AppendLog(ctx, &models.AttendanceLogEntry{
			EventID:  eventID,
			UserID:   userID,
			Action:   models.ActionCancelled,
			Reason:   reason,
			Metadata: meta,
		}); err != nil {
			return fmt.Errorf("log transition: %w", err)
		}

		promoted, err := promoteFreedSlots(ctx, tx, eventID, now)
		if err != nil {
			return err
		}

		snap, err := recomputeSoldOut(ctx, tx, eventID)
		if err != nil {
			return err
		}

		resp = &models.CancelResponse{Status: models.StatusCancelled, Capacity: *snap}
		if len(promoted) > 0 {
			resp.PromotedUserID = &promoted[0]
		}

		outbox = append(outbox, changedEvent(eventID, userID, models.ActionCancelled, reason, actorID))
		outbox = append(outbox, promotionEvents(eventID, promoted)...)
		actions = append(actions, models.ActionCancelled)
		for range promoted {
			actions = append(actions, models.ActionConfirmed)
		}
		return nil
	})
	if err != nil {
		return nil, nil, nil, err
	}

	if s.metrics != nil && len(outbox) > 1 {
		s.metrics.Promotions.Add(float64(len(outbox) - 1))
	}
	return resp, outbox, actions, nil
}

func requireOrganizer(ctx context.Context, tx repository.Tx, eventID, actorID int64) error {
	isOrganizer, err := tx.IsOrganizer(ctx, eventID, actorID)
	if err != nil {
		return fmt.Errorf("check organizer: %w", err)
	}
	if !isOrganizer {
		return apperrors.ErrNotOrganizer
	}
	return nil
}

// Confirm is the organizer override granting a confirmed slot to the target
// user. It fails with ErrEventFull when capacity is exhausted and the target
// does not already hold a slot.
func (s *AttendanceService) Confirm(ctx context.Context, eventID, actorID, targetID int64) (*models.TransitionResponse, error) {
	now := time.Now()
	var resp *models.TransitionResponse
	var outbox []outbound
	var actions []models.LogAction

	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		outbox, actions = nil, nil

		event, err := tx.GetEvent(ctx, eventID)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if event == nil {
			return apperrors.ErrEventNotFound
		}
		if err := requireOrganizer(ctx, tx, eventID, actorID); err != nil {
			return err
		}

		record, err := tx.GetRecord(ctx, eventID, targetID)
		if err != nil {
			return fmt.Errorf("get attendance record: %w", err)
		}
		holdsSlot := record != nil &&
			(record.Status == models.StatusConfirmed || record.Status == models.StatusCheckedIn)

		snap, err := tx.Snapshot(ctx, eventID)
		if err != nil {
			return fmt.Errorf("read capacity snapshot: %w", err)
		}
		if snap.IsFull && !holdsSlot {
			return apperrors.ErrEventFull
		}

		if _, err := tx.UpsertRecord(ctx, eventID, targetID, models.StatusConfirmed, now); err != nil {
			return fmt.Errorf("confirm attendance record: %w", err)
		}
		if err := tx.AttachAttendee(ctx, eventID, targetID); err != nil {
			return fmt.Errorf("attach attendee: %w", err)
		}
		if err := tx.AppendLog(ctx, &models.AttendanceLogEntry{
			EventID:  eventID,
			UserID:   targetID,
			Action:   models.ActionConfirmed,
			Reason:   "organizer-confirmed",
			Metadata: models.LogMeta{"actorId": actorID},
		}); err != nil {
			return fmt.Errorf("log transition: %w", err)
		}

		final, err := recomputeSoldOut(ctx, tx, eventID)
		if err != nil {
			return err
		}

		resp = &models.TransitionResponse{UserID: targetID, Status: models.StatusConfirmed, Capacity: *final}
		outbox = append(outbox, changedEvent(eventID, targetID, models.ActionConfirmed, "organizer-confirmed", &actorID))
		actions = append(actions, models.ActionConfirmed)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, eventID, outbox, actions)
	return resp, nil
}

// Waitlist is the organizer override demoting the target user onto the
// waitlist. The sold-out flag is forced false because a slot is implied to
// have been freed; this mirrors the observed source behavior.
func (s *AttendanceService) Waitlist(ctx context.Context, eventID, actorID, targetID int64) (*models.TransitionResponse, error) {
	now := time.Now()
	var resp *models.TransitionResponse
	var outbox []outbound
	var actions []models.LogAction

	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		outbox, actions = nil, nil

		event, err := tx.GetEvent(ctx, eventID)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if event == nil {
			return apperrors.ErrEventNotFound
		}
		if err := requireOrganizer(ctx, tx, eventID, actorID); err != nil {
			return err
		}
		if !event.WaitlistEnabled {
			return apperrors.ErrWaitlistDisabled
		}

		if _, err := tx.UpsertRecord(ctx, eventID, targetID, models.StatusWaitlisted, now); err != nil {
			return fmt.Errorf("waitlist attendance record: %w", err)
		}
		if err := tx.DetachAttendee(ctx, eventID, targetID); err != nil {
			return fmt.Errorf("detach attendee: %w", err)
		}
		if err := tx.SetSoldOut(ctx, eventID, false); err != nil {
			return fmt.Errorf("clear sold-out flag: %w", err)
		}
		if err := tx.AppendLog(ctx, &models.AttendanceLogEntry{
			EventID:  eventID,
			UserID:   targetID,
			Action:   models.ActionWaitlisted,
			Reason:   "organizer-waitlisted",
			Metadata: models.LogMeta{"actorId": actorID},
		}); err != nil {
			return fmt.Errorf("log transition: %w", err)
		}

		snap, err := tx.Snapshot(ctx, eventID)
		if err != nil {
			return fmt.Errorf("read capacity snapshot: %w", err)
		}

		resp = &models.TransitionResponse{UserID: targetID, Status: models.StatusWaitlisted, Capacity: *snap}
		outbox = append(outbox, changedEvent(eventID, targetID, models.ActionWaitlisted, "organizer-waitlisted", &actorID))
		actions = append(actions, models.ActionWaitlisted)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, eventID, outbox, actions)
	return resp, nil
}

// CheckIn records arrival for a target user holding a confirmed slot.
func (s *AttendanceService) CheckIn(ctx context.Context, eventID, actorID, targetID int64) (*models.TransitionResponse, error) {
	now := time.Now()
	var resp *models.TransitionResponse
	var outbox []outbound
	var actions []models.LogAction

	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		outbox, actions = nil, nil

		event, err := tx.GetEvent(ctx, eventID)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if event == nil {
			return apperrors.ErrEventNotFound
		}
		if err := requireOrganizer(ctx, tx, eventID, actorID); err != nil {
			return err
		}

		record, err := tx.GetRecord(ctx, eventID, targetID)
		if err != nil {
			return fmt.Errorf("get attendance record: %w", err)
		}
		if record == nil || !record.Status.Active() {
			return apperrors.ErrNotAttending
		}
		switch record.Status {
		case models.StatusCheckedIn:
			return apperrors.ErrAlreadyCheckedIn
		case models.StatusWaitlisted:
			return apperrors.ErrNotWaitlisted
		case models.StatusNoShow:
			return apperrors.ErrNotAttending
		}

		if _, err := tx.UpsertRecord(ctx, eventID, targetID, models.StatusCheckedIn, now); err != nil {
			return fmt.Errorf("check in attendance record: %w", err)
		}
		if err := tx.AttachAttendee(ctx, eventID, targetID); err != nil {
			return fmt.Errorf("attach attendee: %w", err)
		}
		if err := tx.AppendLog(ctx, &models.AttendanceLogEntry{
			EventID:  eventID,
			UserID:   targetID,
			Action:   models.ActionCheckedIn,
			Reason:   "organizer-check-in",
			Metadata: models.LogMeta{"actorId": actorID},
		}); err != nil {
			return fmt.Errorf("log transition: %w", err)
		}

		snap, err := tx.Snapshot(ctx, eventID)
		if err != nil {
			return fmt.Errorf("read capacity snapshot: %w", err)
		}

		resp = &models.TransitionResponse{UserID: targetID, Status: models.StatusCheckedIn, Capacity: *snap}
		outbox = append(outbox, changedEvent(eventID, targetID, models.ActionCheckedIn, "organizer-check-in", &actorID))
		actions = append(actions, models.ActionCheckedIn)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, eventID, outbox, actions)
	return resp, nil
}

// MarkNoShow records a confirmed attendee who never showed up. The slot they
// held is not reclaimed: capacity bookkeeping is not retroactively altered
// and no waiter is promoted.
func (s *AttendanceService) MarkNoShow(ctx context.Context, eventID, actorID, targetID int64) (*models.TransitionResponse, error) {
	now := time.Now()
	var resp *models.TransitionResponse
	var outbox []outbound
	var actions []models.LogAction

	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		outbox, actions = nil, nil

		event, err := tx.GetEvent(ctx, eventID)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if event == nil {
			return apperrors.ErrEventNotFound
		}
		if err := requireOrganizer(ctx, tx, eventID, actorID); err != nil {
			return err
		}

		record, err := tx.GetRecord(ctx, eventID, targetID)
		if err != nil {
			return fmt.Errorf("get attendance record: %w", err)
		}
		if record == nil || !record.Status.Active() || record.Status == models.StatusNoShow {
			return apperrors.ErrNotAttending
		}

		if _, err := tx.UpsertRecord(ctx, eventID, targetID, models.StatusNoShow, now); err != nil {
			return fmt.Errorf("mark no-show: %w", err)
		}
		if err := tx.AppendLog(ctx, &models.AttendanceLogEntry{
			EventID:  eventID,
			UserID:   targetID,
			Action:   models.ActionMarkedNoShow,
			Reason:   "organizer-no-show",
			Metadata: models.LogMeta{"actorId": actorID},
		}); err != nil {
			return fmt.Errorf("log transition: %w", err)
		}

		snap, err := tx.Snapshot(ctx, eventID)
		if err != nil {
			return fmt.Errorf("read capacity snapshot: %w", err)
		}

		resp = &models.TransitionResponse{UserID: targetID, Status: models.StatusNoShow, Capacity: *snap}
		outbox = append(outbox, changedEvent(eventID, targetID, models.ActionMarkedNoShow, "organizer-no-show", &actorID))
		actions = append(actions, models.ActionMarkedNoShow)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, eventID, outbox, actions)
	return resp, nil
}
