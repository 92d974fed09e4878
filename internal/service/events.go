package service

import (
	"context"
	"fmt"

	"attendly/internal/apperrors"
	"attendly/internal/models"
	"attendly/internal/repository"
)

type EventService struct {
	eventRepo *repository.EventRepository
}

func NewEventService(eventRepo *repository.EventRepository) *EventService {
	return &EventService{eventRepo: eventRepo}
}

func (s *EventService) Create(ctx context.Context, organizerID int64, req *models.CreateEventRequest) (*models.CreateEventResponse, error) {
	event := &models.Event{
		Title:           req.Title,
		OrganizerID:     organizerID,
		StartsAt:        req.StartsAt,
		MaxAttendees:    req.MaxAttendees,
		WaitlistEnabled: req.WaitlistEnabled,
	}

	if err := s.eventRepo.Create(ctx, event, req.CoOrganizerIDs); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	return &models.CreateEventResponse{ID: event.ID}, nil
}

func (s *EventService) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event == nil {
		return nil, apperrors.ErrEventNotFound
	}
	return event, nil
}

// Log returns the attendance audit trail for one event, newest first.
func (s *EventService) Log(ctx context.Context, eventID int64) ([]models.AttendanceLogEntry, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event == nil {
		return nil, apperrors.ErrEventNotFound
	}
	return s.eventRepo.ListLog(ctx, eventID)
}
