package models

// AttendanceStatus is the state of one (event, user) attendance record.
type AttendanceStatus string

const (
	StatusConfirmed  AttendanceStatus = "CONFIRMED"
	StatusWaitlisted AttendanceStatus = "WAITLISTED"
	StatusCancelled  AttendanceStatus = "CANCELLED"
	StatusCheckedIn  AttendanceStatus = "CHECKED_IN"
	StatusNoShow     AttendanceStatus = "NO_SHOW"
)

// LogAction mirrors the target status of a transition in the audit log.
type LogAction string

const (
	ActionConfirmed    LogAction = "RSVP_CONFIRMED"
	ActionWaitlisted   LogAction = "RSVP_WAITLISTED"
	ActionCancelled    LogAction = "RSVP_CANCELLED"
	ActionCheckedIn    LogAction = "CHECKED_IN"
	ActionMarkedNoShow LogAction = "MARKED_NO_SHOW"
)

// Valid reports whether s is one of the known statuses.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case StatusConfirmed, StatusWaitlisted, StatusCancelled, StatusCheckedIn, StatusNoShow:
		return true
	}
	return false
}

// Active reports whether the record still occupies or queues for a slot.
// CANCELLED is the only inactive state; records are never deleted.
func (s AttendanceStatus) Active() bool {
	return s.Valid() && s != StatusCancelled
}

// transitions is the guard table for status changes. A missing entry means
// the transition is illegal. The zero-value "" key stands for a record that
// does not exist yet.
var transitions = map[AttendanceStatus]map[AttendanceStatus]bool{
	"": {
		StatusConfirmed:  true,
		StatusWaitlisted: true,
	},
	StatusConfirmed: {
		StatusConfirmed:  true, // idempotent upsert by organizer
		StatusWaitlisted: true, // organizer demotion
		StatusCancelled:  true,
		StatusCheckedIn:  true,
		StatusNoShow:     true,
	},
	StatusWaitlisted: {
		StatusConfirmed:  true, // promotion
		StatusWaitlisted: true,
		StatusCancelled:  true,
		StatusNoShow:     true,
	},
	StatusCancelled: {
		StatusConfirmed:  true, // re-join
		StatusWaitlisted: true,
	},
	StatusCheckedIn: {
		StatusCancelled: true,
		StatusNoShow:    true,
	},
	StatusNoShow: {},
}

// CanTransition reports whether a record in status from may enter status to.
func CanTransition(from, to AttendanceStatus) bool {
	return transitions[from][to]
}

// ActionFor returns the log action recorded when a record enters status s.
func ActionFor(s AttendanceStatus) LogAction {
	switch s {
	case StatusConfirmed:
		return ActionConfirmed
	case StatusWaitlisted:
		return ActionWaitlisted
	case StatusCancelled:
		return ActionCancelled
	case StatusCheckedIn:
		return ActionCheckedIn
	case StatusNoShow:
		return ActionMarkedNoShow
	}
	return ""
}
