package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yadev07/cs-eventsphere-backend/internal/domain"
)

// skipIfNoIntegration skips the test if INTEGRATION_TEST env var is not set
func skipIfNoIntegration(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run.")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getPostgresPool creates a PostgreSQL connection pool for testing.
// The schema from migrations/0001_init.sql must be applied to the test
// database beforehand.
func getPostgresPool(t *testing.T) *pgxpool.Pool {
	skipIfNoIntegration(t)

	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		getEnv("TEST_POSTGRES_USER", "postgres"),
		getEnv("TEST_POSTGRES_PASSWORD", "postgres"),
		getEnv("TEST_POSTGRES_HOST", "localhost"),
		getEnv("TEST_POSTGRES_PORT", "5432"),
		getEnv("TEST_POSTGRES_DB", "eventsphere_test"),
	)

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("Failed to create PostgreSQL pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("Failed to ping PostgreSQL: %v", err)
	}

	return pool
}

func createTestEvent(t *testing.T, pool *pgxpool.Pool, maxParticipants int) *domain.Event {
	t.Helper()

	now := time.Now()
	event := &domain.Event{
		ID:                   uuid.New().String(),
		Title:                "Integration Test Event",
		Description:          "created by integration tests",
		Location:             "Building 12",
		OrganizerID:          uuid.New().String(),
		StartAt:              now.Add(24 * time.Hour),
		EndAt:                now.Add(26 * time.Hour),
		RegistrationDeadline: now.Add(23 * time.Hour),
		MaxParticipants:      maxParticipants,
		Status:               domain.PhaseUpcoming,
		IsActive:             true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	repo := NewPostgresEventRepository(pool)
	if err := repo.Create(context.Background(), event); err != nil {
		t.Fatalf("Failed to create test event: %v", err)
	}

	t.Cleanup(func() {
		ctx := context.Background()
		_, _ = pool.Exec(ctx, "DELETE FROM registrations WHERE event_id = $1", event.ID)
		_, _ = pool.Exec(ctx, "DELETE FROM events WHERE id = $1", event.ID)
	})

	return event
}

func newTestRegistration(eventID, userID string) *domain.Registration {
	now := time.Now()
	return &domain.Registration{
		ID:        uuid.New().String(),
		EventID:   eventID,
		UserID:    userID,
		Type:      domain.RegistrationTypeParticipant,
		Status:    domain.RegistrationStatusPending,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func getEventCounters(t *testing.T, pool *pgxpool.Pool, eventID string) (active, total, attendance int) {
	t.Helper()
	err := pool.QueryRow(context.Background(),
		"SELECT active_participants, total_registrations, attendance_count FROM events WHERE id = $1",
		eventID,
	).Scan(&active, &total, &attendance)
	if err != nil {
		t.Fatalf("Failed to read event counters: %v", err)
	}
	return active, total, attendance
}

func TestPostgresRegistrationRepository_Register(t *testing.T) {
	pool := getPostgresPool(t)
	defer pool.Close()

	event := createTestEvent(t, pool, 10)
	repo := NewPostgresRegistrationRepository(pool)
	ctx := context.Background()

	reg := newTestRegistration(event.ID, uuid.New().String())
	if err := repo.Register(ctx, reg); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	active, total, _ := getEventCounters(t, pool, event.ID)
	if active != 1 {
		t.Errorf("active_participants = %d, want 1", active)
	}
	if total != 1 {
		t.Errorf("total_registrations = %d, want 1", total)
	}

	retrieved, err := repo.GetActive(ctx, event.ID, reg.UserID)
	if err != nil {
		t.Fatalf("GetActive() error = %v", err)
	}
	if retrieved.Status != domain.RegistrationStatusPending {
		t.Errorf("Status = %v, want %v", retrieved.Status, domain.RegistrationStatusPending)
	}
}

func TestPostgresRegistrationRepository_Register_Duplicate(t *testing.T) {
	pool := getPostgresPool(t)
	defer pool.Close()

	event := createTestEvent(t, pool, 10)
	repo := NewPostgresRegistrationRepository(pool)
	ctx := context.Background()

	userID := uuid.New().String()
	if err := repo.Register(ctx, newTestRegistration(event.ID, userID)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	err := repo.Register(ctx, newTestRegistration(event.ID, userID))
	if !errors.Is(err, domain.ErrAlreadyRegistered) {
		t.Errorf("Register() error = %v, want %v", err, domain.ErrAlreadyRegistered)
	}

	// The duplicate's counter bump must have rolled back
	active, total, _ := getEventCounters(t, pool, event.ID)
	if active != 1 || total != 1 {
		t.Errorf("counters = (%d, %d), want (1, 1)", active, total)
	}
}

func TestPostgresRegistrationRepository_Register_EventFull(t *testing.T) {
	pool := getPostgresPool(t)
	defer pool.Close()

	event := createTestEvent(t, pool, 1)
	repo := NewPostgresRegistrationRepository(pool)
	ctx := context.Background()

	if err := repo.Register(ctx, newTestRegistration(event.ID, uuid.New().String())); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	err := repo.Register(ctx, newTestRegistration(event.ID, uuid.New().String()))
	if !errors.Is(err, domain.ErrEventFull) {
		t.Errorf("Register() error = %v, want %v", err, domain.ErrEventFull)
	}
}

func TestPostgresRegistrationRepository_Register_EventNotFound(t *testing.T) {
	pool := getPostgresPool(t)
	defer pool.Close()

	repo := NewPostgresRegistrationRepository(pool)
	ctx := context.Background()

	err := repo.Register(ctx, newTestRegistration(uuid.New().String(), uuid.New().String()))
	if !errors.Is(err, domain.ErrEventNotFound) {
		t.Errorf("Register() error = %v, want %v", err, domain.ErrEventNotFound)
	}
}

func TestPostgresRegistrationRepository_Unregister(t *testing.T) {
	pool := getPostgresPool(t)
	defer pool.Close()

	event := createTestEvent(t, pool, 10)
	repo := NewPostgresRegistrationRepository(pool)
	ctx := context.Background()

	userID := uuid.New().String()
	if err := repo.Register(ctx, newTestRegistration(event.ID, userID)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if err := repo.Unregister(ctx, event.ID, userID); err != nil {
		t.Fatalf("Unregister() error = %v", err)
	}

	// Slot released, cumulative total untouched
	active, total, _ := getEventCounters(t, pool, event.ID)
	if active != 0 {
		t.Errorf("active_participants = %d, want 0", active)
	}
	if total != 1 {
		t.Errorf("total_registrations = %d, want 1", total)
	}

	// Re-registering after cancellation is allowed
	if err := repo.Register(ctx, newTestRegistration(event.ID, userID)); err != nil {
		t.Fatalf("Register() after unregister error = %v", err)
	}
}

func TestPostgresRegistrationRepository_Unregister_NotRegistered(t *testing.T) {
	pool := getPostgresPool(t)
	defer pool.Close()

	event := createTestEvent(t, pool, 10)
	repo := NewPostgresRegistrationRepository(pool)
	ctx := context.Background()

	err := repo.Unregister(ctx, event.ID, uuid.New().String())
	if !errors.Is(err, domain.ErrNotRegistered) {
		t.Errorf("Unregister() error = %v, want %v", err, domain.ErrNotRegistered)
	}
}

func TestPostgresRegistrationRepository_MarkAttendance(t *testing.T) {
	pool := getPostgresPool(t)
	defer pool.Close()

	event := createTestEvent(t, pool, 10)
	repo := NewPostgresRegistrationRepository(pool)
	ctx := context.Background()

	userID := uuid.New().String()
	if err := repo.Register(ctx, newTestRegistration(event.ID, userID)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	changed, err := repo.MarkAttendance(ctx, event.ID, userID, time.Now())
	if err != nil {
		t.Fatalf("MarkAttendance() error = %v", err)
	}
	if !changed {
		t.Error("MarkAttendance() changed = false, want true")
	}

	// Second call is a no-op, the count must not inflate
	changed, err = repo.MarkAttendance(ctx, event.ID, userID, time.Now())
	if err != nil {
		t.Fatalf("MarkAttendance() second call error = %v", err)
	}
	if changed {
		t.Error("MarkAttendance() second call changed = true, want false")
	}

	_, _, attendance := getEventCounters(t, pool, event.ID)
	if attendance != 1 {
		t.Errorf("attendance_count = %d, want 1", attendance)
	}
}

func TestPostgresRegistrationRepository_MarkAttendance_NotRegistered(t *testing.T) {
	pool := getPostgresPool(t)
	defer pool.Close()

	event := createTestEvent(t, pool, 10)
	repo := NewPostgresRegistrationRepository(pool)
	ctx := context.Background()

	_, err := repo.MarkAttendance(ctx, event.ID, uuid.New().String(), time.Now())
	if !errors.Is(err, domain.ErrNotRegistered) {
		t.Errorf("MarkAttendance() error = %v, want %v", err, domain.ErrNotRegistered)
	}
}

func TestPostgresRegistrationRepository_UpdateStatus(t *testing.T) {
	pool := getPostgresPool(t)
	defer pool.Close()

	event := createTestEvent(t, pool, 10)
	repo := NewPostgresRegistrationRepository(pool)
	ctx := context.Background()

	reg := newTestRegistration(event.ID, uuid.New().String())
	if err := repo.Register(ctx, reg); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// pending -> confirmed claims an extra confirmed slot
	if err := repo.UpdateStatus(ctx, reg.ID, domain.RegistrationStatusPending, domain.RegistrationStatusConfirmed, "approved", 1); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}

	active, _, _ := getEventCounters(t, pool, event.ID)
	if active != 2 {
		t.Errorf("active_participants after confirm = %d, want 2", active)
	}

	retrieved, err := repo.GetActiveByID(ctx, reg.ID)
	if err != nil {
		t.Fatalf("GetActiveByID() error = %v", err)
	}
	if retrieved.Status != domain.RegistrationStatusConfirmed {
		t.Errorf("Status = %v, want %v", retrieved.Status, domain.RegistrationStatusConfirmed)
	}
	if retrieved.Notes != "approved" {
		t.Errorf("Notes = %q, want %q", retrieved.Notes, "approved")
	}

	// confirmed -> rejected releases it again
	if err := repo.UpdateStatus(ctx, reg.ID, domain.RegistrationStatusConfirmed, domain.RegistrationStatusRejected, "", -1); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}

	active, _, _ = getEventCounters(t, pool, event.ID)
	if active != 1 {
		t.Errorf("active_participants after reject = %d, want 1", active)
	}
}

func TestPostgresRegistrationRepository_UpdateStatus_NotFound(t *testing.T) {
	pool := getPostgresPool(t)
	defer pool.Close()

	repo := NewPostgresRegistrationRepository(pool)
	ctx := context.Background()

	err := repo.UpdateStatus(ctx, uuid.New().String(), domain.RegistrationStatusPending, domain.RegistrationStatusConfirmed, "", 1)
	if !errors.Is(err, domain.ErrRegistrationNotFound) {
		t.Errorf("UpdateStatus() error = %v, want %v", err, domain.ErrRegistrationNotFound)
	}
}

func TestPostgresRegistrationRepository_UpdateStatus_CancelRetiresRow(t *testing.T) {
	pool := getPostgresPool(t)
	defer pool.Close()

	event := createTestEvent(t, pool, 10)
	repo := NewPostgresRegistrationRepository(pool)
	ctx := context.Background()

	reg := newTestRegistration(event.ID, uuid.New().String())
	if err := repo.Register(ctx, reg); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if err := repo.UpdateStatus(ctx, reg.ID, domain.RegistrationStatusPending, domain.RegistrationStatusCancelled, "", -1); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}

	_, err := repo.GetActiveByID(ctx, reg.ID)
	if !errors.Is(err, domain.ErrRegistrationNotFound) {
		t.Errorf("GetActiveByID() after cancel error = %v, want %v", err, domain.ErrRegistrationNotFound)
	}
}

func TestPostgresRegistrationRepository_UpdateStatus_StaleStatusConflicts(t *testing.T) {
	pool := getPostgresPool(t)
	defer pool.Close()

	event := createTestEvent(t, pool, 10)
	repo := NewPostgresRegistrationRepository(pool)
	ctx := context.Background()

	reg := newTestRegistration(event.ID, uuid.New().String())
	if err := repo.Register(ctx, reg); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if err := repo.UpdateStatus(ctx, reg.ID, domain.RegistrationStatusPending, domain.RegistrationStatusConfirmed, "", 1); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}

	// A second writer still holding the pending read must not apply its
	// delta on top of the first confirm
	err := repo.UpdateStatus(ctx, reg.ID, domain.RegistrationStatusPending, domain.RegistrationStatusConfirmed, "", 1)
	if !errors.Is(err, domain.ErrStorageConflict) {
		t.Fatalf("UpdateStatus() with stale status error = %v, want %v", err, domain.ErrStorageConflict)
	}

	active, _, _ := getEventCounters(t, pool, event.ID)
	if active != 2 {
		t.Errorf("active_participants = %d, want 2 (single confirm counted once)", active)
	}

	retrieved, err := repo.GetActiveByID(ctx, reg.ID)
	if err != nil {
		t.Fatalf("GetActiveByID() error = %v", err)
	}
	if retrieved.Status != domain.RegistrationStatusConfirmed {
		t.Errorf("Status = %v, want %v", retrieved.Status, domain.RegistrationStatusConfirmed)
	}
}

func TestPostgresRegistrationRepository_ListByEvent(t *testing.T) {
	pool := getPostgresPool(t)
	defer pool.Close()

	event := createTestEvent(t, pool, 10)
	repo := NewPostgresRegistrationRepository(pool)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := repo.Register(ctx, newTestRegistration(event.ID, uuid.New().String())); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
	}

	registrations, err := repo.ListByEvent(ctx, event.ID, 10, 0)
	if err != nil {
		t.Fatalf("ListByEvent() error = %v", err)
	}
	if len(registrations) != 3 {
		t.Errorf("ListByEvent() returned %d registrations, want 3", len(registrations))
	}
}

func TestPostgresRegistrationRepository_ListByUser_Empty(t *testing.T) {
	pool := getPostgresPool(t)
	defer pool.Close()

	repo := NewPostgresRegistrationRepository(pool)
	ctx := context.Background()

	registrations, err := repo.ListByUser(ctx, uuid.New().String(), 10, 0)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(registrations) != 0 {
		t.Errorf("ListByUser() returned %d registrations, want 0", len(registrations))
	}
}
