package dto

import (
	"time"

	"github.com/yadev07/cs-eventsphere-backend/internal/domain"
)

// CreateEventRequest represents request to create an event
type CreateEventRequest struct {
	Title                string    `json:"title" binding:"required,max=200"`
	Description          string    `json:"description,omitempty"`
	Location             string    `json:"location,omitempty"`
	StartAt              time.Time `json:"start_at" binding:"required"`
	EndAt                time.Time `json:"end_at" binding:"required"`
	RegistrationDeadline time.Time `json:"registration_deadline" binding:"required"`
	MaxParticipants      int       `json:"max_participants" binding:"min=0"`
}

// EventResponse represents an event in API responses. Status carries the
// phase derived at response time, not the stored snapshot.
type EventResponse struct {
	ID                   string    `json:"id"`
	Title                string    `json:"title"`
	Description          string    `json:"description,omitempty"`
	Location             string    `json:"location,omitempty"`
	OrganizerID          string    `json:"organizer_id"`
	StartAt              time.Time `json:"start_at"`
	EndAt                time.Time `json:"end_at"`
	RegistrationDeadline time.Time `json:"registration_deadline"`
	MaxParticipants      int       `json:"max_participants"`
	ActiveParticipants   int       `json:"active_participants"`
	TotalRegistrations   int       `json:"total_registrations"`
	AttendanceCount      int       `json:"attendance_count"`
	Status               string    `json:"status"`
	RegistrationOpen     bool      `json:"registration_open"`
	CreatedAt            time.Time `json:"created_at"`
}

// EventFromDomain converts a domain Event to EventResponse, deriving the
// phase at the given time
func EventFromDomain(e *domain.Event, now time.Time) *EventResponse {
	return &EventResponse{
		ID:                   e.ID,
		Title:                e.Title,
		Description:          e.Description,
		Location:             e.Location,
		OrganizerID:          e.OrganizerID,
		StartAt:              e.StartAt,
		EndAt:                e.EndAt,
		RegistrationDeadline: e.RegistrationDeadline,
		MaxParticipants:      e.MaxParticipants,
		ActiveParticipants:   e.ActiveParticipants,
		TotalRegistrations:   e.TotalRegistrations,
		AttendanceCount:      e.AttendanceCount,
		Status:               e.Phase(now).String(),
		RegistrationOpen:     e.RegistrationOpen(now),
		CreatedAt:            e.CreatedAt,
	}
}

// EventsFromDomain converts a slice of domain Events to responses
func EventsFromDomain(events []*domain.Event, now time.Time) []*EventResponse {
	responses := make([]*EventResponse, 0, len(events))
	for _, e := range events {
		responses = append(responses, EventFromDomain(e, now))
	}
	return responses
}
