package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yadev07/cs-eventsphere-backend/internal/domain"
	"github.com/yadev07/cs-eventsphere-backend/pkg/telemetry"
)

const eventColumns = `
	id, title, description, location, organizer_id,
	start_at, end_at, registration_deadline,
	max_participants, active_participants, total_registrations, attendance_count,
	status, is_active, created_at, updated_at
`

// PostgresEventRepository implements EventRepository using PostgreSQL with pgxpool
type PostgresEventRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresEventRepository creates a new PostgresEventRepository
func NewPostgresEventRepository(pool *pgxpool.Pool) *PostgresEventRepository {
	return &PostgresEventRepository{pool: pool}
}

// Create creates a new event record in the database
func (r *PostgresEventRepository) Create(ctx context.Context, event *domain.Event) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.create")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", event.ID),
		attribute.String("organizer_id", event.OrganizerID),
	)

	query := `
		INSERT INTO events (
			id, title, description, location, organizer_id,
			start_at, end_at, registration_deadline,
			max_participants, active_participants, total_registrations, attendance_count,
			status, is_active, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8,
			$9, $10, $11, $12,
			$13, $14, $15, $16
		)
	`

	_, err := r.pool.Exec(ctx, query,
		event.ID,
		event.Title,
		event.Description,
		event.Location,
		event.OrganizerID,
		event.StartAt,
		event.EndAt,
		event.RegistrationDeadline,
		event.MaxParticipants,
		event.ActiveParticipants,
		event.TotalRegistrations,
		event.AttendanceCount,
		event.Status.String(),
		event.IsActive,
		event.CreatedAt,
		event.UpdatedAt,
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to create event: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetActiveByID retrieves an active event by its ID
func (r *PostgresEventRepository) GetActiveByID(ctx context.Context, id string) (*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.get_active_by_id")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", id))

	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 AND is_active = TRUE`

	event, err := scanEventRow(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrEventNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return event, nil
}

// List retrieves active events ordered by start time. An empty status lists
// every active event; otherwise only events with the stored status match.
func (r *PostgresEventRepository) List(ctx context.Context, status domain.Phase, limit, offset int) ([]*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.list")
	defer span.End()

	span.SetAttributes(
		attribute.String("status", status.String()),
		attribute.Int("limit", limit),
		attribute.Int("offset", offset),
	)

	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE is_active = TRUE AND ($1 = '' OR status = $1)
		ORDER BY start_at ASC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, status.String(), limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events, err := collectEvents(rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("count", len(events)))
	span.SetStatus(codes.Ok, "")
	return events, nil
}

// SoftDelete marks an event as inactive
func (r *PostgresEventRepository) SoftDelete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.soft_delete")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", id))

	query := `
		UPDATE events SET
			is_active = FALSE,
			updated_at = $2
		WHERE id = $1 AND is_active = TRUE
	`

	result, err := r.pool.Exec(ctx, query, id, time.Now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to delete event: %w", err)
	}

	if result.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "not found")
		return domain.ErrEventNotFound
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// ListForStatusRefresh retrieves active events whose stored status is not yet
// past. Past is terminal, so those rows never need another refresh.
func (r *PostgresEventRepository) ListForStatusRefresh(ctx context.Context, limit int) ([]*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.list_for_status_refresh")
	defer span.End()

	span.SetAttributes(attribute.Int("limit", limit))

	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE is_active = TRUE AND status <> $1
		ORDER BY start_at ASC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, domain.PhasePast.String(), limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to list events for status refresh: %w", err)
	}
	defer rows.Close()

	events, err := collectEvents(rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("count", len(events)))
	span.SetStatus(codes.Ok, "")
	return events, nil
}

// UpdateStatus persists a derived phase for an event
func (r *PostgresEventRepository) UpdateStatus(ctx context.Context, id string, status domain.Phase) (bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.update_status")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", id),
		attribute.String("status", status.String()),
	)

	query := `
		UPDATE events SET
			status = $2,
			updated_at = $3
		WHERE id = $1 AND is_active = TRUE AND status <> $2
	`

	result, err := r.pool.Exec(ctx, query, id, status.String(), time.Now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, fmt.Errorf("failed to update event status: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return result.RowsAffected() > 0, nil
}

// scanEventRow scans a single row into an Event struct
func scanEventRow(row pgx.Row) (*domain.Event, error) {
	event := &domain.Event{}
	var status string

	err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Description,
		&event.Location,
		&event.OrganizerID,
		&event.StartAt,
		&event.EndAt,
		&event.RegistrationDeadline,
		&event.MaxParticipants,
		&event.ActiveParticipants,
		&event.TotalRegistrations,
		&event.AttendanceCount,
		&status,
		&event.IsActive,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	event.Status = domain.Phase(status)
	return event, nil
}

// collectEvents drains a result set into a slice of events
func collectEvents(rows pgx.Rows) ([]*domain.Event, error) {
	var events []*domain.Event
	for rows.Next() {
		event, err := scanEventRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}
	return events, nil
}

// Ensure PostgresEventRepository implements EventRepository
var _ EventRepository = (*PostgresEventRepository)(nil)
