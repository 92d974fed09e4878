package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"attendly/internal/database"
	"attendly/internal/models"
)

// Tx is the set of queries available inside one attendance transaction.
// Every operation that reads capacity and writes a record goes through a
// single Tx so the serializable transaction is the unit of correctness.
type Tx interface {
	GetEvent(ctx context.Context, eventID int64) (*models.Event, error)
	IsOrganizer(ctx context.Context, eventID, userID int64) (bool, error)
	Snapshot(ctx context.Context, eventID int64) (*models.CapacitySnapshot, error)
	GetRecord(ctx context.Context, eventID, userID int64) (*models.AttendanceRecord, error)
	UpsertRecord(ctx context.Context, eventID, userID int64, status models.AttendanceStatus, now time.Time) (*models.AttendanceRecord, error)
	OldestWaiter(ctx context.Context, eventID int64) (*models.AttendanceRecord, error)
	AttachAttendee(ctx context.Context, eventID, userID int64) error
	DetachAttendee(ctx context.Context, eventID, userID int64) error
	SetSoldOut(ctx context.Context, eventID int64, soldOut bool) error
	AppendLog(ctx context.Context, entry *models.AttendanceLogEntry) error
	UpsertFeedback(ctx context.Context, eventID, userID int64, rating int, comment *string) error
	HasAttended(ctx context.Context, eventID, userID int64) (bool, error)
}

// Store is what the service layer needs from durable storage.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
	ListFeedback(ctx context.Context, eventID int64) ([]models.FeedbackRecord, error)
	UpcomingEventsWithWaiters(ctx context.Context, within time.Duration) ([]int64, error)
}

type AttendanceStore struct {
	db *database.DB
}

func NewAttendanceStore(db *database.DB) *AttendanceStore {
	return &AttendanceStore{db: db}
}

// WithinTx runs fn inside one serializable transaction against the store.
func (s *AttendanceStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	return s.db.WithinTx(ctx, func(tx *sql.Tx) error {
		return fn(&attendanceTx{tx: tx})
	})
}

func (s *AttendanceStore) ListFeedback(ctx context.Context, eventID int64) ([]models.FeedbackRecord, error) {
	var records []models.FeedbackRecord
	query := `
		SELECT id, event_id, user_id, rating, comment, created_at, updated_at
		FROM feedback
		WHERE event_id = $1
		ORDER BY updated_at DESC`

	rows, err := s.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var rec models.FeedbackRecord
		err := rows.Scan(
			&rec.ID,
			&rec.EventID,
			&rec.UserID,
			&rec.Rating,
			&rec.Comment,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// UpcomingEventsWithWaiters returns ids of events starting within the window
// that have a capacity limit, waitlisting enabled and at least one waiter.
func (s *AttendanceStore) UpcomingEventsWithWaiters(ctx context.Context, within time.Duration) ([]int64, error) {
	var ids []int64
	query := `
		SELECT DISTINCT e.id
		FROM events e
		JOIN attendance_records ar ON ar.event_id = e.id AND ar.status = 'WAITLISTED'
		WHERE e.max_attendees IS NOT NULL
		  AND e.waitlist_enabled = TRUE
		  AND e.starts_at BETWEEN NOW() AND $1
		ORDER BY e.id`

	rows, err := s.db.QueryContext(ctx, query, time.Now().Add(within))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// attendanceTx implements Tx over one *sql.Tx.
type attendanceTx struct {
	tx *sql.Tx
}

func (t *attendanceTx) GetEvent(ctx context.Context, eventID int64) (*models.Event, error) {
	event := &models.Event{}
	query := `
		SELECT id, title, organizer_id, starts_at, max_attendees,
		       waitlist_enabled, is_sold_out, created_at, updated_at
		FROM events
		WHERE id = $1`

	err := t.tx.QueryRowContext(ctx, query, eventID).Scan(
		&event.ID,
		&event.Title,
		&event.OrganizerID,
		&event.StartsAt,
		&event.MaxAttendees,
		&event.WaitlistEnabled,
		&event.IsSoldOut,
		&event.CreatedAt,
		&event.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return event, err
}

func (t *attendanceTx) IsOrganizer(ctx context.Context, eventID, userID int64) (bool, error) {
	var isOrganizer bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM events WHERE id = $1 AND organizer_id = $2
			UNION ALL
			SELECT 1 FROM event_organizers WHERE event_id = $1 AND user_id = $2
		)`

	err := t.tx.QueryRowContext(ctx, query, eventID, userID).Scan(&isOrganizer)
	return isOrganizer, err
}

// Snapshot computes live confirmed/waitlisted counts for one event. The
// organizer and co-organizers are exempt from capacity accounting, so their
// records never count toward the confirmed total. Checked-in attendees still
// hold their slot.
func (t *attendanceTx) Snapshot(ctx context.Context, eventID int64) (*models.CapacitySnapshot, error) {
	snap := &models.CapacitySnapshot{}
	query := `
		SELECT e.max_attendees,
		       COUNT(*) FILTER (WHERE ar.status IN ('CONFIRMED', 'CHECKED_IN')
		                        AND ar.user_id <> e.organizer_id
		                        AND eo.user_id IS NULL),
		       COUNT(*) FILTER (WHERE ar.status = 'WAITLISTED')
		FROM events e
		LEFT JOIN attendance_records ar ON ar.event_id = e.id
		LEFT JOIN event_organizers eo ON eo.event_id = e.id AND eo.user_id = ar.user_id
		WHERE e.id = $1
		GROUP BY e.max_attendees`

	err := t.tx.QueryRowContext(ctx, query, eventID).Scan(
		&snap.Capacity,
		&snap.Confirmed,
		&snap.Waitlisted,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	snap.IsFull = snap.Capacity != nil && snap.Confirmed >= *snap.Capacity
	return snap, nil
}

const recordColumns = `id, event_id, user_id, status, waitlisted_at, confirmed_at,
		       cancelled_at, checked_in_at, created_at, updated_at`

func scanRecord(row *sql.Row) (*models.AttendanceRecord, error) {
	rec := &models.AttendanceRecord{}
	err := row.Scan(
		&rec.ID,
		&rec.EventID,
		&rec.UserID,
		&rec.Status,
		&rec.WaitlistedAt,
		&rec.ConfirmedAt,
		&rec.CancelledAt,
		&rec.CheckedInAt,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (t *attendanceTx) GetRecord(ctx context.Context, eventID, userID int64) (*models.AttendanceRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM attendance_records
		WHERE event_id = $1 AND user_id = $2`

	return scanRecord(t.tx.QueryRowContext(ctx, query, eventID, userID))
}

// UpsertRecord moves the (event, user) record into status, setting the
// matching timestamp. Entering CONFIRMED or WAITLISTED clears cancelled_at.
// The unique (event_id, user_id) key makes retries of the same transition
// safe to repeat.
func (t *attendanceTx) UpsertRecord(ctx context.Context, eventID, userID int64, status models.AttendanceStatus, now time.Time) (*models.AttendanceRecord, error) {
	var query string
	switch status {
	case models.StatusConfirmed:
		query = `
			INSERT INTO attendance_records (event_id, user_id, status, confirmed_at)
			VALUES ($1, $2, 'CONFIRMED', $3)
			ON CONFLICT (event_id, user_id) DO UPDATE
			SET status = 'CONFIRMED', confirmed_at = $3, cancelled_at = NULL, updated_at = NOW()
			RETURNING ` + recordColumns
	case models.StatusWaitlisted:
		query = `
			INSERT INTO attendance_records (event_id, user_id, status, waitlisted_at)
			VALUES ($1, $2, 'WAITLISTED', $3)
			ON CONFLICT (event_id, user_id) DO UPDATE
			SET status = 'WAITLISTED', waitlisted_at = $3, cancelled_at = NULL, updated_at = NOW()
			RETURNING ` + recordColumns
	case models.StatusCancelled:
		query = `
			UPDATE attendance_records
			SET status = 'CANCELLED', cancelled_at = $3, updated_at = NOW()
			WHERE event_id = $1 AND user_id = $2
			RETURNING ` + recordColumns
	case models.StatusCheckedIn:
		query = `
			UPDATE attendance_records
			SET status = 'CHECKED_IN', checked_in_at = $3, updated_at = NOW()
			WHERE event_id = $1 AND user_id = $2
			RETURNING ` + recordColumns
	case models.StatusNoShow:
		query = `
			UPDATE attendance_records
			SET status = 'NO_SHOW', updated_at = NOW()
			WHERE event_id = $1 AND user_id = $2
			RETURNING ` + recordColumns
	default:
		return nil, fmt.Errorf("unknown attendance status: %s", status)
	}

	return scanRecord(t.tx.QueryRowContext(ctx, query, eventID, userID, now))
}

// OldestWaiter returns the WAITLISTED record with the earliest waitlisted_at,
// or nil when the waitlist is empty. Promotion order is strict FIFO.
func (t *attendanceTx) OldestWaiter(ctx context.Context, eventID int64) (*models.AttendanceRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM attendance_records
		WHERE event_id = $1 AND status = 'WAITLISTED'
		ORDER BY waitlisted_at ASC
		LIMIT 1`

	return scanRecord(t.tx.QueryRowContext(ctx, query, eventID))
}

func (t *attendanceTx) AttachAttendee(ctx context.Context, eventID, userID int64) error {
	query := `
		INSERT INTO event_attendees (event_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (event_id, user_id) DO NOTHING`

	_, err := t.tx.ExecContext(ctx, query, eventID, userID)
	return err
}

func (t *attendanceTx) DetachAttendee(ctx context.Context, eventID, userID int64) error {
	query := `DELETE FROM event_attendees WHERE event_id = $1 AND user_id = $2`
	_, err := t.tx.ExecContext(ctx, query, eventID, userID)
	return err
}

func (t *attendanceTx) SetSoldOut(ctx context.Context, eventID int64, soldOut bool) error {
	query := `UPDATE events SET is_sold_out = $1, updated_at = NOW() WHERE id = $2`
	_, err := t.tx.ExecContext(ctx, query, soldOut, eventID)
	return err
}

func (t *attendanceTx) AppendLog(ctx context.Context, entry *models.AttendanceLogEntry) error {
	metadata := entry.Metadata
	if metadata == nil {
		metadata = models.LogMeta{}
	}
	payload, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshal log metadata: %w", err)
	}

	query := `
		INSERT INTO attendance_log (event_id, user_id, action, reason, metadata)
		VALUES ($1, $2, $3, $4, $5)`

	_, err = t.tx.ExecContext(ctx, query,
		entry.EventID,
		entry.UserID,
		entry.Action,
		entry.Reason,
		payload,
	)
	return err
}

func (t *attendanceTx) UpsertFeedback(ctx context.Context, eventID, userID int64, rating int, comment *string) error {
	query := `
		INSERT INTO feedback (event_id, user_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id, user_id) DO UPDATE
		SET rating = $3, comment = $4, updated_at = NOW()`

	_, err := t.tx.ExecContext(ctx, query, eventID, userID, rating, comment)
	return err
}

// HasAttended reports whether the user ever held a confirmed slot, whatever
// the record's current status.
func (t *attendanceTx) HasAttended(ctx context.Context, eventID, userID int64) (bool, error) {
	var attended bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM attendance_records
			WHERE event_id = $1 AND user_id = $2
			  AND (confirmed_at IS NOT NULL OR checked_in_at IS NOT NULL)
		)`

	err := t.tx.QueryRowContext(ctx, query, eventID, userID).Scan(&attended)
	return attended, err
}
