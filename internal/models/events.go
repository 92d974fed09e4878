package models

import "time"

// NATS notification subjects. The notification collaborator decides per
// subject whether a message should go out; delivery is outside the
// transactional boundary of the engine.
const (
	SubjectAttendanceConfirmed  = "attendance.confirmed"
	SubjectAttendanceWaitlisted = "attendance.waitlisted"
	SubjectAttendanceCancelled  = "attendance.cancelled"
	SubjectAttendanceCheckedIn  = "attendance.checked_in"
	SubjectAttendanceNoShow     = "attendance.no_show"
	SubjectWaitlistPromoted     = "waitlist.promoted"
)

// AttendanceChangedEvent is published after a committed transition.
type AttendanceChangedEvent struct {
	EventID   int64     `json:"event_id"`
	UserID    int64     `json:"user_id"`
	Action    LogAction `json:"action"`
	Reason    string    `json:"reason"`
	ActorID   *int64    `json:"actor_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// WaitlistPromotedEvent is published for each promotion, inline or by sweep.
type WaitlistPromotedEvent struct {
	EventID   int64     `json:"event_id"`
	UserID    int64     `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// SubjectFor maps a log action to its notification subject.
func SubjectFor(action LogAction) string {
	switch action {
	case ActionConfirmed:
		return SubjectAttendanceConfirmed
	case ActionWaitlisted:
		return SubjectAttendanceWaitlisted
	case ActionCancelled:
		return SubjectAttendanceCancelled
	case ActionCheckedIn:
		return SubjectAttendanceCheckedIn
	case ActionMarkedNoShow:
		return SubjectAttendanceNoShow
	}
	return ""
}
