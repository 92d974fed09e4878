package service

import (
	"context"
	"fmt"
	"time"

	"attendly/internal/models"
	"attendly/internal/repository"
)

// fakeStore is an in-memory repository.Store for service tests. It applies
// every query immediately; single-goroutine tests do not need the retry and
// isolation machinery of the real store.
type fakeStore struct {
	events    map[int64]*models.Event
	coOrgs    map[int64]map[int64]bool
	records   map[int64]map[int64]*models.AttendanceRecord
	attendees map[int64]map[int64]bool
	feedback  map[int64]map[int64]*models.FeedbackRecord
	log       []models.AttendanceLogEntry

	waitSeq   int64
	waitOrder map[int64]map[int64]int64

	nextID int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:    make(map[int64]*models.Event),
		coOrgs:    make(map[int64]map[int64]bool),
		records:   make(map[int64]map[int64]*models.AttendanceRecord),
		attendees: make(map[int64]map[int64]bool),
		feedback:  make(map[int64]map[int64]*models.FeedbackRecord),
		waitOrder: make(map[int64]map[int64]int64),
	}
}

func intPtr(v int) *int { return &v }

func (f *fakeStore) addEvent(id, organizerID int64, maxAttendees *int, waitlistEnabled bool) *models.Event {
	event := &models.Event{
		ID:              id,
		Title:           fmt.Sprintf("event-%d", id),
		OrganizerID:     organizerID,
		StartsAt:        time.Now().Add(2 * time.Hour),
		MaxAttendees:    maxAttendees,
		WaitlistEnabled: waitlistEnabled,
	}
	f.events[id] = event
	f.coOrgs[id] = make(map[int64]bool)
	f.records[id] = make(map[int64]*models.AttendanceRecord)
	f.attendees[id] = make(map[int64]bool)
	f.feedback[id] = make(map[int64]*models.FeedbackRecord)
	f.waitOrder[id] = make(map[int64]int64)

	// Mirror event creation: the organizer starts confirmed.
	now := time.Now()
	f.UpsertRecord(context.Background(), id, organizerID, models.StatusConfirmed, now)
	f.attendees[id][organizerID] = true
	return event
}

func (f *fakeStore) addCoOrganizer(eventID, userID int64) {
	f.coOrgs[eventID][userID] = true
}

func (f *fakeStore) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	return fn(f)
}

func (f *fakeStore) GetEvent(ctx context.Context, eventID int64) (*models.Event, error) {
	event, ok := f.events[eventID]
	if !ok {
		return nil, nil
	}
	return event, nil
}

func (f *fakeStore) IsOrganizer(ctx context.Context, eventID, userID int64) (bool, error) {
	event, ok := f.events[eventID]
	if !ok {
		return false, nil
	}
	return event.OrganizerID == userID || f.coOrgs[eventID][userID], nil
}

func (f *fakeStore) isExempt(eventID, userID int64) bool {
	event := f.events[eventID]
	return event.OrganizerID == userID || f.coOrgs[eventID][userID]
}

func (f *fakeStore) Snapshot(ctx context.Context, eventID int64) (*models.CapacitySnapshot, error) {
	event, ok := f.events[eventID]
	if !ok {
		return nil, nil
	}

	snap := &models.CapacitySnapshot{Capacity: event.MaxAttendees}
	for userID, rec := range f.records[eventID] {
		switch rec.Status {
		case models.StatusConfirmed, models.StatusCheckedIn:
			if !f.isExempt(eventID, userID) {
				snap.Confirmed++
			}
		case models.StatusWaitlisted:
			snap.Waitlisted++
		}
	}
	snap.IsFull = snap.Capacity != nil && snap.Confirmed >= *snap.Capacity
	return snap, nil
}

func (f *fakeStore) GetRecord(ctx context.Context, eventID, userID int64) (*models.AttendanceRecord, error) {
	rec, ok := f.records[eventID][userID]
	if !ok {
		return nil, nil
	}
	return rec, nil
}

func (f *fakeStore) UpsertRecord(ctx context.Context, eventID, userID int64, status models.AttendanceStatus, now time.Time) (*models.AttendanceRecord, error) {
	recs := f.records[eventID]
	rec, exists := recs[userID]

	switch status {
	case models.StatusConfirmed, models.StatusWaitlisted:
		if !exists {
			f.nextID++
			rec = &models.AttendanceRecord{
				ID:        f.nextID,
				EventID:   eventID,
				UserID:    userID,
				CreatedAt: now,
			}
			recs[userID] = rec
		}
	default:
		if !exists {
			return nil, nil
		}
	}

	prev := rec.Status
	rec.Status = status
	rec.UpdatedAt = now

	switch status {
	case models.StatusConfirmed:
		ts := now
		rec.ConfirmedAt = &ts
		rec.CancelledAt = nil
		delete(f.waitOrder[eventID], userID)
	case models.StatusWaitlisted:
		ts := now
		rec.WaitlistedAt = &ts
		rec.CancelledAt = nil
		if prev != models.StatusWaitlisted {
			f.waitSeq++
			f.waitOrder[eventID][userID] = f.waitSeq
		}
	case models.StatusCancelled:
		ts := now
		rec.CancelledAt = &ts
		delete(f.waitOrder[eventID], userID)
	case models.StatusCheckedIn:
		ts := now
		rec.CheckedInAt = &ts
	}

	return rec, nil
}

func (f *fakeStore) OldestWaiter(ctx context.Context, eventID int64) (*models.AttendanceRecord, error) {
	var oldest *models.AttendanceRecord
	var oldestSeq int64
	for userID, seq := range f.waitOrder[eventID] {
		rec := f.records[eventID][userID]
		if rec == nil || rec.Status != models.StatusWaitlisted {
			continue
		}
		if oldest == nil || seq < oldestSeq {
			oldest = rec
			oldestSeq = seq
		}
	}
	return oldest, nil
}

func (f *fakeStore) AttachAttendee(ctx context.Context, eventID, userID int64) error {
	f.attendees[eventID][userID] = true
	return nil
}

func (f *fakeStore) DetachAttendee(ctx context.Context, eventID, userID int64) error {
	delete(f.attendees[eventID], userID)
	return nil
}

func (f *fakeStore) SetSoldOut(ctx context.Context, eventID int64, soldOut bool) error {
	if event, ok := f.events[eventID]; ok {
		event.IsSoldOut = soldOut
	}
	return nil
}

func (f *fakeStore) AppendLog(ctx context.Context, entry *models.AttendanceLogEntry) error {
	entry.CreatedAt = time.Now()
	f.log = append(f.log, *entry)
	return nil
}

func (f *fakeStore) UpsertFeedback(ctx context.Context, eventID, userID int64, rating int, comment *string) error {
	now := time.Now()
	if rec, ok := f.feedback[eventID][userID]; ok {
		rec.Rating = rating
		rec.Comment = comment
		rec.UpdatedAt = now
		return nil
	}
	f.nextID++
	f.feedback[eventID][userID] = &models.FeedbackRecord{
		ID:        f.nextID,
		EventID:   eventID,
		UserID:    userID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

func (f *fakeStore) HasAttended(ctx context.Context, eventID, userID int64) (bool, error) {
	rec := f.records[eventID][userID]
	if rec == nil {
		return false, nil
	}
	return rec.ConfirmedAt != nil || rec.CheckedInAt != nil, nil
}

func (f *fakeStore) ListFeedback(ctx context.Context, eventID int64) ([]models.FeedbackRecord, error) {
	var records []models.FeedbackRecord
	for _, rec := range f.feedback[eventID] {
		records = append(records, *rec)
	}
	return records, nil
}

func (f *fakeStore) UpcomingEventsWithWaiters(ctx context.Context, within time.Duration) ([]int64, error) {
	cutoff := time.Now().Add(within)
	var ids []int64
	for id, event := range f.events {
		if event.MaxAttendees == nil || !event.WaitlistEnabled {
			continue
		}
		if event.StartsAt.After(cutoff) || event.StartsAt.Before(time.Now()) {
			continue
		}
		for _, rec := range f.records[id] {
			if rec.Status == models.StatusWaitlisted {
				ids = append(ids, id)
				break
			}
		}
	}
	return ids, nil
}

// statusOf is a test helper reaching straight into the fake.
func (f *fakeStore) statusOf(eventID, userID int64) models.AttendanceStatus {
	rec := f.records[eventID][userID]
	if rec == nil {
		return ""
	}
	return rec.Status
}

type fakeNotifier struct {
	subjects []string
}

func (n *fakeNotifier) Publish(subject string, data interface{}) error {
	n.subjects = append(n.subjects, subject)
	return nil
}

type fakeCache struct {
	invalidated []int64
}

func (c *fakeCache) Invalidate(ctx context.Context, eventID int64) error {
	c.invalidated = append(c.invalidated, eventID)
	return nil
}
