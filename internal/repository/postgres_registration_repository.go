package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yadev07/cs-eventsphere-backend/internal/domain"
	"github.com/yadev07/cs-eventsphere-backend/pkg/telemetry"
)

const registrationColumns = `
	id, event_id, user_id, registration_type, status, notes,
	attended, attended_at, quiz_score, certificate_issued, certificate_issued_at,
	is_active, created_at, updated_at
`

// Postgres error codes we translate into domain errors
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// PostgresRegistrationRepository implements RegistrationRepository using
// PostgreSQL with pgxpool. Registration writes and the owning event's counter
// updates run in one transaction, so the counters can never drift from the
// ledger on a partial failure.
type PostgresRegistrationRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRegistrationRepository creates a new PostgresRegistrationRepository
func NewPostgresRegistrationRepository(pool *pgxpool.Pool) *PostgresRegistrationRepository {
	return &PostgresRegistrationRepository{pool: pool}
}

// Register atomically claims a capacity slot and inserts the registration.
// The counter update is conditional on remaining capacity; a unique partial
// index on (event_id, user_id) WHERE is_active rejects duplicates, rolling the
// counter bump back with the transaction.
func (r *PostgresRegistrationRepository) Register(ctx context.Context, registration *domain.Registration) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.registration.register")
	defer span.End()

	span.SetAttributes(
		attribute.String("registration_id", registration.ID),
		attribute.String("event_id", registration.EventID),
		attribute.String("user_id", registration.UserID),
	)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	claimQuery := `
		UPDATE events SET
			active_participants = active_participants + 1,
			total_registrations = total_registrations + 1,
			updated_at = $2
		WHERE id = $1
			AND is_active = TRUE
			AND (max_participants = 0 OR active_participants < max_participants)
	`

	result, err := tx.Exec(ctx, claimQuery, registration.EventID, time.Now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return mapWriteError(err, "failed to claim capacity slot")
	}

	if result.RowsAffected() == 0 {
		// Distinguish a missing event from a full one
		var exists bool
		err := tx.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM events WHERE id = $1 AND is_active = TRUE)",
			registration.EventID,
		).Scan(&exists)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("failed to check event existence: %w", err)
		}
		if !exists {
			span.SetStatus(codes.Error, "event not found")
			return domain.ErrEventNotFound
		}
		span.SetStatus(codes.Error, "event full")
		return domain.ErrEventFull
	}

	insertQuery := `
		INSERT INTO registrations (
			id, event_id, user_id, registration_type, status, notes,
			attended, attended_at, quiz_score, certificate_issued, certificate_issued_at,
			is_active, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11,
			$12, $13, $14
		)
	`

	_, err = tx.Exec(ctx, insertQuery,
		registration.ID,
		registration.EventID,
		registration.UserID,
		registration.Type.String(),
		registration.Status.String(),
		nullableString(registration.Notes),
		registration.Attended,
		registration.AttendedAt,
		registration.QuizScore,
		registration.CertificateIssued,
		registration.CertificateIssuedAt,
		registration.IsActive,
		registration.CreatedAt,
		registration.UpdatedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return mapWriteError(err, "failed to insert registration")
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return mapWriteError(err, "failed to commit registration")
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Unregister cancels the user's active registration and releases the slot.
// The counter release is floored at zero.
func (r *PostgresRegistrationRepository) Unregister(ctx context.Context, eventID, userID string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.registration.unregister")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("user_id", userID),
	)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	cancelQuery := `
		UPDATE registrations SET
			status = $3,
			is_active = FALSE,
			updated_at = $4
		WHERE event_id = $1 AND user_id = $2 AND is_active = TRUE
	`

	now := time.Now()
	result, err := tx.Exec(ctx, cancelQuery, eventID, userID,
		domain.RegistrationStatusCancelled.String(), now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return mapWriteError(err, "failed to cancel registration")
	}

	if result.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "not registered")
		return domain.ErrNotRegistered
	}

	releaseQuery := `
		UPDATE events SET
			active_participants = GREATEST(active_participants - 1, 0),
			updated_at = $2
		WHERE id = $1
	`

	if _, err := tx.Exec(ctx, releaseQuery, eventID, now); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return mapWriteError(err, "failed to release capacity slot")
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return mapWriteError(err, "failed to commit unregister")
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// MarkAttendance records attendance for the user's active registration. The
// guard on attended makes repeat calls a no-op, keeping the attendance count
// from inflating.
func (r *PostgresRegistrationRepository) MarkAttendance(ctx context.Context, eventID, userID string, at time.Time) (bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.registration.mark_attendance")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("user_id", userID),
	)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	markQuery := `
		UPDATE registrations SET
			attended = TRUE,
			attended_at = $3,
			updated_at = $3
		WHERE event_id = $1 AND user_id = $2 AND is_active = TRUE AND attended = FALSE
	`

	result, err := tx.Exec(ctx, markQuery, eventID, userID, at)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, mapWriteError(err, "failed to mark attendance")
	}

	if result.RowsAffected() == 0 {
		// Either already attended or never registered
		var exists bool
		err := tx.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM registrations WHERE event_id = $1 AND user_id = $2 AND is_active = TRUE)",
			eventID, userID,
		).Scan(&exists)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return false, fmt.Errorf("failed to check registration existence: %w", err)
		}
		if !exists {
			span.SetStatus(codes.Error, "not registered")
			return false, domain.ErrNotRegistered
		}
		span.SetStatus(codes.Ok, "already attended")
		return false, nil
	}

	countQuery := `
		UPDATE events SET
			attendance_count = attendance_count + 1,
			updated_at = $2
		WHERE id = $1
	`

	if _, err := tx.Exec(ctx, countQuery, eventID, at); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, mapWriteError(err, "failed to bump attendance count")
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, mapWriteError(err, "failed to commit attendance")
	}

	span.SetStatus(codes.Ok, "")
	return true, nil
}

// UpdateStatus moves a registration from one status to another and adjusts
// the event's active participant counter by activeDelta in the same
// transaction. The update is guarded on the row still holding the from
// status; a row that moved underneath the caller surfaces as
// ErrStorageConflict, since activeDelta was computed from a stale status.
// A move to cancelled also retires the row so the user can register again.
func (r *PostgresRegistrationRepository) UpdateStatus(ctx context.Context, id string, from, to domain.RegistrationStatus, notes string, activeDelta int) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.registration.update_status")
	defer span.End()

	span.SetAttributes(
		attribute.String("registration_id", id),
		attribute.String("from_status", from.String()),
		attribute.String("status", to.String()),
		attribute.Int("active_delta", activeDelta),
	)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()

	updateQuery := `
		UPDATE registrations SET
			status = $2,
			notes = COALESCE(NULLIF($3, ''), notes),
			is_active = CASE WHEN $2 = $4 THEN FALSE ELSE is_active END,
			updated_at = $5
		WHERE id = $1 AND is_active = TRUE AND status = $6
		RETURNING event_id
	`

	var eventID string
	err = tx.QueryRow(ctx, updateQuery, id, to.String(), notes,
		domain.RegistrationStatusCancelled.String(), now, from.String()).Scan(&eventID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Distinguish a missing registration from one whose status
			// changed concurrently
			var exists bool
			err := tx.QueryRow(ctx,
				"SELECT EXISTS(SELECT 1 FROM registrations WHERE id = $1 AND is_active = TRUE)",
				id,
			).Scan(&exists)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return fmt.Errorf("failed to check registration existence: %w", err)
			}
			if exists {
				span.SetStatus(codes.Error, "concurrent status change")
				return domain.ErrStorageConflict
			}
			span.SetStatus(codes.Error, "not found")
			return domain.ErrRegistrationNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return mapWriteError(err, "failed to update registration status")
	}

	if activeDelta != 0 {
		adjustQuery := `
			UPDATE events SET
				active_participants = GREATEST(active_participants + $2, 0),
				updated_at = $3
			WHERE id = $1
		`
		if _, err := tx.Exec(ctx, adjustQuery, eventID, activeDelta, now); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return mapWriteError(err, "failed to adjust active participants")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return mapWriteError(err, "failed to commit status update")
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetActiveByID retrieves an active registration by its ID
func (r *PostgresRegistrationRepository) GetActiveByID(ctx context.Context, id string) (*domain.Registration, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.registration.get_active_by_id")
	defer span.End()

	span.SetAttributes(attribute.String("registration_id", id))

	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1 AND is_active = TRUE`

	registration, err := scanRegistrationRow(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrRegistrationNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return registration, nil
}

// GetActive retrieves the user's active registration for an event
func (r *PostgresRegistrationRepository) GetActive(ctx context.Context, eventID, userID string) (*domain.Registration, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.registration.get_active")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("user_id", userID),
	)

	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE event_id = $1 AND user_id = $2 AND is_active = TRUE
	`

	registration, err := scanRegistrationRow(r.pool.QueryRow(ctx, query, eventID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrRegistrationNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return registration, nil
}

// ListByEvent retrieves the active roster of an event, oldest first
func (r *PostgresRegistrationRepository) ListByEvent(ctx context.Context, eventID string, limit, offset int) ([]*domain.Registration, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.registration.list_by_event")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.Int("limit", limit),
		attribute.Int("offset", offset),
	)

	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE event_id = $1 AND is_active = TRUE
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, eventID, limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to list registrations by event: %w", err)
	}
	defer rows.Close()

	registrations, err := collectRegistrations(rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("count", len(registrations)))
	span.SetStatus(codes.Ok, "")
	return registrations, nil
}

// ListByUser retrieves a user's active registrations, newest first
func (r *PostgresRegistrationRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Registration, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.registration.list_by_user")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.Int("limit", limit),
		attribute.Int("offset", offset),
	)

	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE user_id = $1 AND is_active = TRUE
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to list registrations by user: %w", err)
	}
	defer rows.Close()

	registrations, err := collectRegistrations(rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("count", len(registrations)))
	span.SetStatus(codes.Ok, "")
	return registrations, nil
}

// mapWriteError translates low-level postgres errors into domain errors.
// Unique violations come from the active-registration partial index;
// serialization failures and deadlocks surface as a retryable conflict.
func mapWriteError(err error, msg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return domain.ErrAlreadyRegistered
		case pgSerializationFailure, pgDeadlockDetected:
			return domain.ErrStorageConflict
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// scanRegistrationRow scans a single row into a Registration struct
func scanRegistrationRow(row pgx.Row) (*domain.Registration, error) {
	registration := &domain.Registration{}
	var (
		regType string
		status  string
		notes   *string
	)

	err := row.Scan(
		&registration.ID,
		&registration.EventID,
		&registration.UserID,
		&regType,
		&status,
		&notes,
		&registration.Attended,
		&registration.AttendedAt,
		&registration.QuizScore,
		&registration.CertificateIssued,
		&registration.CertificateIssuedAt,
		&registration.IsActive,
		&registration.CreatedAt,
		&registration.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	registration.Type = domain.RegistrationType(regType)
	registration.Status = domain.RegistrationStatus(status)
	if notes != nil {
		registration.Notes = *notes
	}
	return registration, nil
}

// collectRegistrations drains a result set into a slice of registrations
func collectRegistrations(rows pgx.Rows) ([]*domain.Registration, error) {
	var registrations []*domain.Registration
	for rows.Next() {
		registration, err := scanRegistrationRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		registrations = append(registrations, registration)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating registrations: %w", err)
	}
	return registrations, nil
}

// nullableString converts an empty string to a nil pointer
func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Ensure PostgresRegistrationRepository implements RegistrationRepository
var _ RegistrationRepository = (*PostgresRegistrationRepository)(nil)
