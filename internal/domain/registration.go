package domain

import (
	"time"
)

// RegistrationStatus represents the approval state of a registration
type RegistrationStatus string

const (
	RegistrationStatusPending   RegistrationStatus = "pending"
	RegistrationStatusConfirmed RegistrationStatus = "confirmed"
	RegistrationStatusRejected  RegistrationStatus = "rejected"
	RegistrationStatusCancelled RegistrationStatus = "cancelled"
)

// String returns the string representation of the status
func (s RegistrationStatus) String() string {
	return string(s)
}

// IsValid checks if the status is a known value
func (s RegistrationStatus) IsValid() bool {
	switch s {
	case RegistrationStatusPending, RegistrationStatusConfirmed,
		RegistrationStatusRejected, RegistrationStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the status change is permitted.
// Cancelled is terminal; rejected registrations may still be confirmed.
func (s RegistrationStatus) CanTransitionTo(target RegistrationStatus) bool {
	if s == target {
		return false
	}
	switch s {
	case RegistrationStatusPending:
		return target == RegistrationStatusConfirmed ||
			target == RegistrationStatusRejected ||
			target == RegistrationStatusCancelled
	case RegistrationStatusConfirmed:
		return target == RegistrationStatusRejected ||
			target == RegistrationStatusCancelled
	case RegistrationStatusRejected:
		return target == RegistrationStatusConfirmed ||
			target == RegistrationStatusCancelled
	}
	return false
}

// RegistrationType distinguishes ordinary participants from event coordinators
type RegistrationType string

const (
	RegistrationTypeParticipant RegistrationType = "participant"
	RegistrationTypeCoordinator RegistrationType = "coordinator"
)

// String returns the string representation of the type
func (t RegistrationType) String() string {
	return string(t)
}

// IsValid checks if the type is a known value
func (t RegistrationType) IsValid() bool {
	return t == RegistrationTypeParticipant || t == RegistrationTypeCoordinator
}

// Registration is the single authoritative record of one user's participation
// in one event. At most one active registration exists per (event, user) pair;
// the storage layer enforces this with a partial unique index.
type Registration struct {
	ID      string `json:"id"`
	EventID string `json:"event_id"`
	UserID  string `json:"user_id"`

	Type   RegistrationType   `json:"registration_type"`
	Status RegistrationStatus `json:"status"`
	Notes  string             `json:"notes,omitempty"`

	Attended   bool       `json:"attended"`
	AttendedAt *time.Time `json:"attended_at,omitempty"`

	QuizScore           *float64   `json:"quiz_score,omitempty"`
	CertificateIssued   bool       `json:"certificate_issued"`
	CertificateIssuedAt *time.Time `json:"certificate_issued_at,omitempty"`

	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BelongsToUser checks if the registration belongs to the given user
func (r *Registration) BelongsToUser(userID string) bool {
	return r.UserID == userID
}

// IsConfirmed checks if the registration is confirmed
func (r *Registration) IsConfirmed() bool {
	return r.Status == RegistrationStatusConfirmed
}

// IsCancelled checks if the registration is cancelled
func (r *Registration) IsCancelled() bool {
	return r.Status == RegistrationStatusCancelled
}

// RegistrationEventType identifies a registration lifecycle event on the bus
type RegistrationEventType string

const (
	RegistrationEventCreated       RegistrationEventType = "registration.created"
	RegistrationEventCancelled     RegistrationEventType = "registration.cancelled"
	RegistrationEventAttended      RegistrationEventType = "registration.attendance_marked"
	RegistrationEventStatusUpdated RegistrationEventType = "registration.status_updated"
)

// RegistrationEvent is the payload published to Kafka for registration changes
type RegistrationEvent struct {
	EventID      string                `json:"event_id"`
	Type         RegistrationEventType `json:"type"`
	Registration *Registration         `json:"registration"`
	OccurredAt   time.Time             `json:"occurred_at"`
}

// Key returns the partition key for the event. Keying by the university event
// keeps all registration traffic for one event in order.
func (e *RegistrationEvent) Key() string {
	if e.Registration != nil {
		return e.Registration.EventID
	}
	return ""
}
