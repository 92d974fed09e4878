package service

import (
	"context"

	"attendly/internal/metrics"
	"attendly/internal/repository"
)

// Notifier hands committed transitions to the notification collaborator.
// Publishing happens after commit; a failure is logged and never rolls back
// the transition.
type Notifier interface {
	Publish(subject string, data interface{}) error
}

// SnapshotCache invalidates cached capacity summaries after transitions.
type SnapshotCache interface {
	Invalidate(ctx context.Context, eventID int64) error
}

// Policy carries the configurable engine knobs.
type Policy struct {
	// FeedbackRequireAttendance gates feedback submission on the user
	// having ever held a confirmed slot. Off by default.
	FeedbackRequireAttendance bool
}

type Services struct {
	Events     *EventService
	Attendance *AttendanceService
	Feedback   *FeedbackService
	Sweep      *SweepService
}

func NewServices(repos *repository.Repositories, notifier Notifier, cache SnapshotCache, m *metrics.Metrics, policy Policy) *Services {
	attendanceService := NewAttendanceService(repos.Attendance, notifier, cache, m)
	eventService := NewEventService(repos.Events)
	feedbackService := NewFeedbackService(repos.Attendance, policy)
	sweepService := NewSweepService(repos.Attendance, attendanceService, m)

	return &Services{
		Events:     eventService,
		Attendance: attendanceService,
		Feedback:   feedbackService,
		Sweep:      sweepService,
	}
}
