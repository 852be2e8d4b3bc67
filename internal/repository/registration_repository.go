package repository

import (
	"context"
	"time"

	"github.com/yadev07/cs-eventsphere-backend/internal/domain"
)

// RegistrationRepository defines data access for registration records. The
// write methods run multi-row transactions: the registration row and the
// owning event's counters always change in the same commit.
type RegistrationRepository interface {
	// Register atomically claims a capacity slot and inserts the registration.
	// Returns ErrEventNotFound when the event is missing or inactive,
	// ErrEventFull when the cap is reached, ErrAlreadyRegistered when the user
	// already holds an active registration, ErrStorageConflict on a
	// concurrent-write abort.
	Register(ctx context.Context, registration *domain.Registration) error

	// Unregister cancels the user's active registration and releases the
	// capacity slot. Returns ErrNotRegistered when no active registration
	// exists.
	Unregister(ctx context.Context, eventID, userID string) error

	// MarkAttendance records attendance for the user's active registration and
	// bumps the event's attendance count. Returns false with a nil error when
	// attendance was already recorded; returns ErrNotRegistered when no active
	// registration exists.
	MarkAttendance(ctx context.Context, eventID, userID string, at time.Time) (bool, error)

	// UpdateStatus moves a registration from one status to another and applies
	// activeDelta to the event's active participant counter in the same
	// transaction. The counter never drops below zero. The write is guarded on
	// the registration still holding the from status: a concurrent transition
	// surfaces as ErrStorageConflict so the caller re-reads and re-validates.
	// Returns ErrRegistrationNotFound when no active registration has the id.
	UpdateStatus(ctx context.Context, id string, from, to domain.RegistrationStatus, notes string, activeDelta int) error

	// GetActiveByID retrieves an active registration by its id
	GetActiveByID(ctx context.Context, id string) (*domain.Registration, error)

	// GetActive retrieves the user's active registration for an event
	GetActive(ctx context.Context, eventID, userID string) (*domain.Registration, error)

	// ListByEvent retrieves the active roster of an event, oldest first
	ListByEvent(ctx context.Context, eventID string, limit, offset int) ([]*domain.Registration, error)

	// ListByUser retrieves a user's active registrations, newest first
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Registration, error)
}
