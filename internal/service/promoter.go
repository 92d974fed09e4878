package service

import (
	"context"
	"fmt"
	"time"

	"attendly/internal/models"
	"attendly/internal/repository"
)

// promoteFreedSlots promotes waitlisted attendees into open confirmed slots,
// strictly FIFO by waitlisted_at. The snapshot is re-read on every iteration
// inside the caller's transaction, so the loop stops as soon as capacity is
// reached again; it is bounded by the waitlist length. Returns the promoted
// user ids in promotion order.
func promoteFreedSlots(ctx context.Context, tx repository.Tx, eventID int64, now time.Time) ([]int64, error) {
	var promoted []int64

	for {
		snap, err := tx.Snapshot(ctx, eventID)
		if err != nil {
			return promoted, fmt.Errorf("read capacity snapshot: %w", err)
		}
		if snap == nil {
			return promoted, nil
		}
		if snap.Capacity != nil && snap.Confirmed >= *snap.Capacity {
			return promoted, nil
		}

		waiter, err := tx.OldestWaiter(ctx, eventID)
		if err != nil {
			return promoted, fmt.Errorf("find oldest waiter: %w", err)
		}
		if waiter == nil {
			return promoted, nil
		}

		if _, err := tx.UpsertRecord(ctx, eventID, waiter.UserID, models.StatusConfirmed, now); err != nil {
			return promoted, fmt.Errorf("promote waiter: %w", err)
		}
		if err := tx.AttachAttendee(ctx, eventID, waiter.UserID); err != nil {
			return promoted, fmt.Errorf("attach promoted attendee: %w", err)
		}
		if err := tx.AppendLog(ctx, &models.AttendanceLogEntry{
			EventID: eventID,
			UserID:  waiter.UserID,
			Action:  models.ActionConfirmed,
			Reason:  "waitlist-promoted",
		}); err != nil {
			return promoted, fmt.Errorf("log promotion: %w", err)
		}

		promoted = append(promoted, waiter.UserID)
	}
}

// recomputeSoldOut refreshes the derived is_sold_out flag from a fresh
// snapshot and returns that snapshot.
func recomputeSoldOut(ctx context.Context, tx repository.Tx, eventID int64) (*models.CapacitySnapshot, error) {
	snap, err := tx.Snapshot(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("read capacity snapshot: %w", err)
	}
	if snap == nil {
		return nil, fmt.Errorf("event vanished during transition")
	}
	if err := tx.SetSoldOut(ctx, eventID, snap.IsFull); err != nil {
		return nil, fmt.Errorf("recompute sold-out flag: %w", err)
	}
	return snap, nil
}
