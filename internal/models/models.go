package models

import (
	"time"
)

// CreateEventRequest - payload for creating an event
type CreateEventRequest struct {
	Title           string    `json:"title" binding:"required"`
	StartsAt        time.Time `json:"starts_at" binding:"required"`
	MaxAttendees    *int      `json:"max_attendees,omitempty"`
	WaitlistEnabled bool      `json:"waitlist_enabled"`
	CoOrganizerIDs  []int64   `json:"co_organizer_ids,omitempty"`
}

// CreateEventResponse - response for event creation
type CreateEventResponse struct {
	ID int64 `json:"id"`
}

// JoinResponse - outcome of a self-service RSVP. Exactly one of
// CONFIRMED/WAITLISTED is reported, never both.
type JoinResponse struct {
	Status     AttendanceStatus `json:"status"`
	Waitlisted bool             `json:"waitlisted"`
	Capacity   CapacitySnapshot `json:"capacity"`
}

// CancelResponse - outcome of leaving an event. PromotedUserID is set when
// the freed slot was handed to the oldest waiter.
type CancelResponse struct {
	Status         AttendanceStatus `json:"status"`
	PromotedUserID *int64           `json:"promoted_user_id,omitempty"`
	Capacity       CapacitySnapshot `json:"capacity"`
}

// TransitionResponse - outcome of an organizer override
type TransitionResponse struct {
	UserID   int64            `json:"user_id"`
	Status   AttendanceStatus `json:"status"`
	Capacity CapacitySnapshot `json:"capacity"`
}

// SubmitFeedbackRequest - payload for post-event feedback
type SubmitFeedbackRequest struct {
	Rating  int     `json:"rating" binding:"required"`
	Comment *string `json:"comment,omitempty"`
}

// SweepResult - promotions performed for one event by a sweep pass
type SweepResult struct {
	EventID  int64   `json:"event_id"`
	Promoted []int64 `json:"promoted"`
}

// SweepResponse - aggregate result of one sweep pass
type SweepResponse struct {
	Events []SweepResult `json:"events"`
	Total  int           `json:"total"`
}
