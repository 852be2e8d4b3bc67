package dto

import (
	"time"

	"github.com/yadev07/cs-eventsphere-backend/internal/domain"
)

// RegisterRequest represents request to register for an event
type RegisterRequest struct {
	RegistrationType string `json:"registration_type,omitempty"`
	Notes            string `json:"notes,omitempty" binding:"max=500"`
}

// UpdateRegistrationStatusRequest represents request to move a registration
// through the approval workflow
type UpdateRegistrationStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes,omitempty" binding:"max=500"`
}

// MarkAttendanceRequest represents request to record attendance for a user
type MarkAttendanceRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// RegistrationResponse represents a registration in API responses
type RegistrationResponse struct {
	ID                string     `json:"id"`
	EventID           string     `json:"event_id"`
	UserID            string     `json:"user_id"`
	RegistrationType  string     `json:"registration_type"`
	Status            string     `json:"status"`
	Notes             string     `json:"notes,omitempty"`
	Attended          bool       `json:"attended"`
	AttendedAt        *time.Time `json:"attended_at,omitempty"`
	QuizScore         *float64   `json:"quiz_score,omitempty"`
	CertificateIssued bool       `json:"certificate_issued"`
	RegisteredAt      time.Time  `json:"registered_at"`
}

// RegistrationFromDomain converts a domain Registration to RegistrationResponse
func RegistrationFromDomain(r *domain.Registration) *RegistrationResponse {
	return &RegistrationResponse{
		ID:                r.ID,
		EventID:           r.EventID,
		UserID:            r.UserID,
		RegistrationType:  string(r.Type),
		Status:            string(r.Status),
		Notes:             r.Notes,
		Attended:          r.Attended,
		AttendedAt:        r.AttendedAt,
		QuizScore:         r.QuizScore,
		CertificateIssued: r.CertificateIssued,
		RegisteredAt:      r.CreatedAt,
	}
}

// RegistrationsFromDomain converts a slice of domain Registrations to responses
func RegistrationsFromDomain(registrations []*domain.Registration) []*RegistrationResponse {
	responses := make([]*RegistrationResponse, 0, len(registrations))
	for _, r := range registrations {
		responses = append(responses, RegistrationFromDomain(r))
	}
	return responses
}

// AttendanceResponse represents the outcome of an attendance marking
type AttendanceResponse struct {
	EventID    string     `json:"event_id"`
	UserID     string     `json:"user_id"`
	Attended   bool       `json:"attended"`
	AttendedAt *time.Time `json:"attended_at,omitempty"`
	// AlreadyMarked is true when attendance had been recorded before this call
	AlreadyMarked bool `json:"already_marked"`
}
