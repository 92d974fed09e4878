package models

import (
	"time"
)

// User represents a user in the system
type User struct {
	UserID       int64     `json:"user_id" db:"user_id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FirstName    string    `json:"first_name" db:"first_name"`
	Surname      string    `json:"surname" db:"surname"`
	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`
	IsActive     bool      `json:"is_active" db:"is_active"`
}

// Event represents a capacity-constrained event. MaxAttendees == nil means
// unlimited capacity. IsSoldOut is derived and recomputed after every
// transition that changes the confirmed count, never set independently.
type Event struct {
	ID              int64     `json:"id" db:"id"`
	Title           string    `json:"title" db:"title"`
	OrganizerID     int64     `json:"organizer_id" db:"organizer_id"`
	StartsAt        time.Time `json:"starts_at" db:"starts_at"`
	MaxAttendees    *int      `json:"max_attendees" db:"max_attendees"`
	WaitlistEnabled bool      `json:"waitlist_enabled" db:"waitlist_enabled"`
	IsSoldOut       bool      `json:"is_sold_out" db:"is_sold_out"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// AttendanceRecord is the core entity, unique per (event, user). It is never
// deleted, only transitioned; each timestamp is set when the matching status
// is entered and history stays reconstructable from them.
type AttendanceRecord struct {
	ID           int64            `json:"id" db:"id"`
	EventID      int64            `json:"event_id" db:"event_id"`
	UserID       int64            `json:"user_id" db:"user_id"`
	Status       AttendanceStatus `json:"status" db:"status"`
	WaitlistedAt *time.Time       `json:"waitlisted_at" db:"waitlisted_at"`
	ConfirmedAt  *time.Time       `json:"confirmed_at" db:"confirmed_at"`
	CancelledAt  *time.Time       `json:"cancelled_at" db:"cancelled_at"`
	CheckedInAt  *time.Time       `json:"checked_in_at" db:"checked_in_at"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at" db:"updated_at"`
}

// AttendanceLogEntry is append-only and immutable once written.
type AttendanceLogEntry struct {
	ID        int64     `json:"id" db:"id"`
	EventID   int64     `json:"event_id" db:"event_id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Action    LogAction `json:"action" db:"action"`
	Reason    string    `json:"reason" db:"reason"`
	Metadata  LogMeta   `json:"metadata" db:"metadata"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// LogMeta is the opaque structured payload stored with a log entry.
type LogMeta map[string]any

// FeedbackRecord is unique per (event, user) and upserted on resubmission.
// Its lifecycle is independent of the attendance record.
type FeedbackRecord struct {
	ID        int64     `json:"id" db:"id"`
	EventID   int64     `json:"event_id" db:"event_id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   *string   `json:"comment" db:"comment"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CapacitySnapshot is the live capacity view of one event. Capacity == nil
// means unlimited, in which case IsFull is always false.
type CapacitySnapshot struct {
	Confirmed  int  `json:"confirmed_count"`
	Waitlisted int  `json:"waitlist_count"`
	Capacity   *int `json:"capacity"`
	IsFull     bool `json:"is_full"`
}
