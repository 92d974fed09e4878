// Package apperrors defines the business-rule error taxonomy of the
// attendance engine. Each sentinel is a distinct kind the caller can
// branch on with errors.Is; none of them is retryable.
package apperrors

import "errors"

var ErrEventNotFound = errors.New("event not found")
var ErrAlreadyConfirmed = errors.New("user already holds a confirmed slot for this event")
var ErrWaitlistDisabled = errors.New("event is full and does not allow waitlisting")
var ErrEventFull = errors.New("event is at capacity")
var ErrNotAttending = errors.New("user has no active attendance for this event")
var ErrOrganizerCannotLeave = errors.New("the organizer cannot leave their own event")
var ErrAlreadyCheckedIn = errors.New("user is already checked in")
var ErrNotWaitlisted = errors.New("user is waitlisted and cannot be checked in without a confirmed slot")
var ErrInvalidFeedbackRating = errors.New("feedback rating must be between 1 and 5")
var ErrNotOrganizer = errors.New("operation requires organizer privileges")
var ErrFeedbackNotEligible = errors.New("feedback requires having attended the event")

// Code returns the stable machine-readable code for a business error, or
// an empty string for anything outside the taxonomy.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrEventNotFound):
		return "EVENT_NOT_FOUND"
	case errors.Is(err, ErrAlreadyConfirmed):
		return "ALREADY_CONFIRMED"
	case errors.Is(err, ErrWaitlistDisabled):
		return "WAITLIST_DISABLED"
	case errors.Is(err, ErrEventFull):
		return "EVENT_FULL"
	case errors.Is(err, ErrNotAttending):
		return "NOT_ATTENDING"
	case errors.Is(err, ErrOrganizerCannotLeave):
		return "ORGANIZER_CANNOT_LEAVE"
	case errors.Is(err, ErrAlreadyCheckedIn):
		return "ALREADY_CHECKED_IN"
	case errors.Is(err, ErrNotWaitlisted):
		return "NOT_WAITLISTED"
	case errors.Is(err, ErrInvalidFeedbackRating):
		return "INVALID_FEEDBACK_RATING"
	case errors.Is(err, ErrNotOrganizer):
		return "INSUFFICIENT_PRIVILEGES"
	case errors.Is(err, ErrFeedbackNotEligible):
		return "FEEDBACK_NOT_ELIGIBLE"
	}
	return ""
}

// IsBusiness reports whether err belongs to the taxonomy above.
func IsBusiness(err error) bool {
	return Code(err) != ""
}
