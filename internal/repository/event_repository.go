package repository

import (
	"context"

	"github.com/yadev07/cs-eventsphere-backend/internal/domain"
)

// EventRepository defines data access for event records. Counter mutations
// are not here: they ride inside RegistrationRepository transactions so that
// the ledger entry and the event counters move together.
type EventRepository interface {
	// Create inserts a new event
	Create(ctx context.Context, event *domain.Event) error

	// GetActiveByID retrieves an active (not soft-deleted) event
	GetActiveByID(ctx context.Context, id string) (*domain.Event, error)

	// List retrieves active events, optionally filtered by stored status
	List(ctx context.Context, status domain.Phase, limit, offset int) ([]*domain.Event, error)

	// SoftDelete marks an event inactive. Events are never hard-deleted.
	SoftDelete(ctx context.Context, id string) error

	// ListForStatusRefresh retrieves active events whose stored status may be
	// stale. Events already marked past are excluded: phase is monotonic.
	ListForStatusRefresh(ctx context.Context, limit int) ([]*domain.Event, error)

	// UpdateStatus persists a derived phase. Returns true when the stored
	// value actually changed; writing the same value twice is a no-op.
	UpdateStatus(ctx context.Context, id string, status domain.Phase) (bool, error)
}
