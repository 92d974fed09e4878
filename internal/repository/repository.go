package repository

import (
	"attendly/internal/database"
)

type Repositories struct {
	Attendance *AttendanceStore
	Events     *EventRepository
	Users      *UserRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Attendance: NewAttendanceStore(db),
		Events:     NewEventRepository(db),
		Users:      NewUserRepository(db),
	}
}
