package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"attendly/internal/database"
	"attendly/internal/models"
)

func unmarshalMeta(payload []byte, meta *models.LogMeta) error {
	if len(payload) == 0 {
		*meta = models.LogMeta{}
		return nil
	}
	return json.Unmarshal(payload, meta)
}

type EventRepository struct {
	db *database.DB
}

func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts an event and its co-organizers in one transaction. The
// organizer is implicitly confirmed from the start.
func (r *EventRepository) Create(ctx context.Context, event *models.Event, coOrganizerIDs []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO events (title, organizer_id, starts_at, max_attendees, waitlist_enabled)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, is_sold_out, created_at, updated_at`

	err = tx.QueryRowContext(ctx, query,
		event.Title,
		event.OrganizerID,
		event.StartsAt,
		event.MaxAttendees,
		event.WaitlistEnabled,
	).Scan(&event.ID, &event.IsSoldOut, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	for _, userID := range coOrganizerIDs {
		coQuery := `
			INSERT INTO event_organizers (event_id, user_id)
			VALUES ($1, $2)
			ON CONFLICT (event_id, user_id) DO NOTHING`
		if _, err := tx.ExecContext(ctx, coQuery, event.ID, userID); err != nil {
			return fmt.Errorf("insert co-organizer: %w", err)
		}
	}

	recordQuery := `
		INSERT INTO attendance_records (event_id, user_id, status, confirmed_at)
		VALUES ($1, $2, 'CONFIRMED', NOW())
		ON CONFLICT (event_id, user_id) DO NOTHING`
	if _, err := tx.ExecContext(ctx, recordQuery, event.ID, event.OrganizerID); err != nil {
		return fmt.Errorf("insert organizer record: %w", err)
	}

	attendeeQuery := `
		INSERT INTO event_attendees (event_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (event_id, user_id) DO NOTHING`
	if _, err := tx.ExecContext(ctx, attendeeQuery, event.ID, event.OrganizerID); err != nil {
		return fmt.Errorf("attach organizer: %w", err)
	}

	return tx.Commit()
}

func (r *EventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	event := &models.Event{}
	query := `
		SELECT id, title, organizer_id, starts_at, max_attendees,
		       waitlist_enabled, is_sold_out, created_at, updated_at
		FROM events
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
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

// ListLog returns the audit trail for one event, newest entries first.
func (r *EventRepository) ListLog(ctx context.Context, eventID int64) ([]models.AttendanceLogEntry, error) {
	var entries []models.AttendanceLogEntry
	query := `
		SELECT id, event_id, user_id, action, reason, metadata, created_at
		FROM attendance_log
		WHERE event_id = $1
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var entry models.AttendanceLogEntry
		var payload []byte
		err := rows.Scan(
			&entry.ID,
			&entry.EventID,
			&entry.UserID,
			&entry.Action,
			&entry.Reason,
			&payload,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if err := unmarshalMeta(payload, &entry.Metadata); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
