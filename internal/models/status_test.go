package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusValid(t *testing.T) {
	for _, s := range []AttendanceStatus{StatusConfirmed, StatusWaitlisted, StatusCancelled, StatusCheckedIn, StatusNoShow} {
		assert.True(t, s.Valid(), "expected %s to be valid", s)
	}
	assert.False(t, AttendanceStatus("").Valid())
	assert.False(t, AttendanceStatus("PENDING").Valid())
}

func TestStatusActive(t *testing.T) {
	assert.True(t, StatusConfirmed.Active())
	assert.True(t, StatusWaitlisted.Active())
	assert.True(t, StatusCheckedIn.Active())
	assert.True(t, StatusNoShow.Active())
	assert.False(t, StatusCancelled.Active())
	assert.False(t, AttendanceStatus("").Active())
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    AttendanceStatus
		to      AttendanceStatus
		allowed bool
	}{
		{"new record can confirm", "", StatusConfirmed, true},
		{"new record can waitlist", "", StatusWaitlisted, true},
		{"new record cannot check in", "", StatusCheckedIn, false},
		{"confirmed can cancel", StatusConfirmed, StatusCancelled, true},
		{"confirmed can check in", StatusConfirmed, StatusCheckedIn, true},
		{"confirmed can be demoted", StatusConfirmed, StatusWaitlisted, true},
		{"waitlisted can be promoted", StatusWaitlisted, StatusConfirmed, true},
		{"waitlisted cannot check in", StatusWaitlisted, StatusCheckedIn, false},
		{"cancelled can rejoin", StatusCancelled, StatusConfirmed, true},
		{"cancelled can rejoin waitlist", StatusCancelled, StatusWaitlisted, true},
		{"cancelled cannot check in", StatusCancelled, StatusCheckedIn, false},
		{"checked in can cancel", StatusCheckedIn, StatusCancelled, true},
		{"checked in can no-show", StatusCheckedIn, StatusNoShow, true},
		{"checked in cannot waitlist", StatusCheckedIn, StatusWaitlisted, false},
		{"no-show is terminal", StatusNoShow, StatusConfirmed, false},
		{"no-show cannot cancel", StatusNoShow, StatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))
		})
	}
}

func TestActionFor(t *testing.T) {
	assert.Equal(t, ActionConfirmed, ActionFor(StatusConfirmed))
	assert.Equal(t, ActionWaitlisted, ActionFor(StatusWaitlisted))
	assert.Equal(t, ActionCancelled, ActionFor(StatusCancelled))
	assert.Equal(t, ActionCheckedIn, ActionFor(StatusCheckedIn))
	assert.Equal(t, ActionMarkedNoShow, ActionFor(StatusNoShow))
	assert.Equal(t, LogAction(""), ActionFor(AttendanceStatus("")))
}

func TestSubjectFor(t *testing.T) {
	assert.Equal(t, SubjectAttendanceConfirmed, SubjectFor(ActionConfirmed))
	assert.Equal(t, SubjectAttendanceWaitlisted, SubjectFor(ActionWaitlisted))
	assert.Equal(t, SubjectAttendanceCancelled, SubjectFor(ActionCancelled))
	assert.Equal(t, SubjectAttendanceCheckedIn, SubjectFor(ActionCheckedIn))
	assert.Equal(t, SubjectAttendanceNoShow, SubjectFor(ActionMarkedNoShow))
}
