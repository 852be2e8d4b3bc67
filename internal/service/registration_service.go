package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/yadev07/cs-eventsphere-backend/internal/domain"
	"github.com/yadev07/cs-eventsphere-backend/internal/dto"
	"github.com/yadev07/cs-eventsphere-backend/internal/metrics"
	"github.com/yadev07/cs-eventsphere-backend/internal/repository"
	"github.com/yadev07/cs-eventsphere-backend/pkg/logger"
	"github.com/yadev07/cs-eventsphere-backend/pkg/telemetry"
)

// RegistrationService defines the interface for registration business logic
type RegistrationService interface {
	// Register signs a user up for an event
	Register(ctx context.Context, eventID, userID string, req *dto.RegisterRequest) (*dto.RegistrationResponse, error)

	// Unregister cancels a user's registration and releases the capacity slot
	Unregister(ctx context.Context, eventID, userID string) error

	// MarkAttendance records that a user showed up. Safe to call repeatedly.
	MarkAttendance(ctx context.Context, eventID, userID string) (*dto.AttendanceResponse, error)

	// UpdateStatus moves a registration through the approval workflow
	UpdateStatus(ctx context.Context, registrationID string, req *dto.UpdateRegistrationStatusRequest) (*dto.RegistrationResponse, error)

	// GetRegistration retrieves a user's registration for an event
	GetRegistration(ctx context.Context, eventID, userID string) (*dto.RegistrationResponse, error)

	// GetRoster retrieves the active registrations of an event
	GetRoster(ctx context.Context, eventID string, page, pageSize int) ([]*dto.RegistrationResponse, error)

	// GetUserRegistrations retrieves a user's active registrations
	GetUserRegistrations(ctx context.Context, userID string, page, pageSize int) ([]*dto.RegistrationResponse, error)
}

type registrationService struct {
	registrationRepo repository.RegistrationRepository
	eventRepo        repository.EventRepository
	invalidator      repository.EventCacheInvalidator
	publisher        EventPublisher
	now              func() time.Time
}

// NewRegistrationService creates a new registration service. invalidator may
// be nil when the event repository is not cached.
func NewRegistrationService(
	registrationRepo repository.RegistrationRepository,
	eventRepo repository.EventRepository,
	invalidator repository.EventCacheInvalidator,
	publisher EventPublisher,
) RegistrationService {
	if publisher == nil {
		publisher = NewNoOpEventPublisher()
	}
	return &registrationService{
		registrationRepo: registrationRepo,
		eventRepo:        eventRepo,
		invalidator:      invalidator,
		publisher:        publisher,
		now:              time.Now,
	}
}

// Register signs a user up for an event. Preconditions are checked in a fixed
// order: event existence, registration window, capacity, duplicates. Capacity
// and duplicates are enforced again inside the storage transaction; the checks
// here give callers precise errors without racing.
func (s *registrationService) Register(ctx context.Context, eventID, userID string, req *dto.RegisterRequest) (*dto.RegistrationResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.registration.register")
	defer span.End()

	if eventID == "" {
		span.SetStatus(codes.Error, "invalid event_id")
		return nil, domain.ErrInvalidEventID
	}
	if userID == "" {
		span.SetStatus(codes.Error, "invalid user_id")
		return nil, domain.ErrInvalidUserID
	}

	regType := domain.RegistrationTypeParticipant
	if req != nil && req.RegistrationType != "" {
		regType = domain.RegistrationType(req.RegistrationType)
		if !regType.IsValid() {
			span.SetStatus(codes.Error, "invalid registration type")
			return nil, domain.ErrInvalidRegistrationType
		}
	}

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("user_id", userID),
		attribute.String("registration_type", regType.String()),
	)

	event, err := s.eventRepo.GetActiveByID(ctx, eventID)
	if err != nil {
		span.SetStatus(codes.Error, "event lookup failed")
		return nil, err
	}

	now := s.now()
	if !event.RegistrationOpen(now) {
		span.SetStatus(codes.Error, "registration closed")
		metrics.RecordFailure(ctx, eventID, "closed")
		return nil, domain.ErrRegistrationClosed
	}
	if !event.HasCapacity() {
		span.SetStatus(codes.Error, "event full")
		metrics.RecordFailure(ctx, eventID, "full")
		return nil, domain.ErrEventFull
	}

	notes := ""
	if req != nil {
		notes = req.Notes
	}

	registration := &domain.Registration{
		ID:        uuid.New().String(),
		EventID:   eventID,
		UserID:    userID,
		Type:      regType,
		Status:    domain.RegistrationStatusPending,
		Notes:     notes,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.withConflictRetry(ctx, func() error {
		return s.registrationRepo.Register(ctx, registration)
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		switch {
		case errors.Is(err, domain.ErrEventFull):
			metrics.RecordFailure(ctx, eventID, "full")
		case errors.Is(err, domain.ErrAlreadyRegistered):
			metrics.RecordFailure(ctx, eventID, "duplicate")
		}
		return nil, err
	}

	s.invalidateEvent(ctx, eventID)
	metrics.RecordRegistration(ctx, eventID)

	if err := s.publisher.PublishRegistrationCreated(ctx, registration); err != nil {
		logger.Get().Warn("failed to publish registration created event",
			zap.String("registration_id", registration.ID),
			zap.Error(err),
		)
	}

	span.SetStatus(codes.Ok, "")
	return dto.RegistrationFromDomain(registration), nil
}

// Unregister cancels a user's registration and releases the capacity slot
func (s *registrationService) Unregister(ctx context.Context, eventID, userID string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.registration.unregister")
	defer span.End()

	if eventID == "" {
		span.SetStatus(codes.Error, "invalid event_id")
		return domain.ErrInvalidEventID
	}
	if userID == "" {
		span.SetStatus(codes.Error, "invalid user_id")
		return domain.ErrInvalidUserID
	}

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("user_id", userID),
	)

	registration, err := s.registrationRepo.GetActive(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrRegistrationNotFound) {
			span.SetStatus(codes.Error, "not registered")
			return domain.ErrNotRegistered
		}
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	err = s.withConflictRetry(ctx, func() error {
		return s.registrationRepo.Unregister(ctx, eventID, userID)
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	s.invalidateEvent(ctx, eventID)
	metrics.RecordCancellation(ctx, eventID)

	registration.Status = domain.RegistrationStatusCancelled
	registration.IsActive = false
	if err := s.publisher.PublishRegistrationCancelled(ctx, registration); err != nil {
		logger.Get().Warn("failed to publish registration cancelled event",
			zap.String("registration_id", registration.ID),
			zap.Error(err),
		)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// MarkAttendance records that a user showed up. Repeat calls return the
// original marking instead of inflating the attendance count.
func (s *registrationService) MarkAttendance(ctx context.Context, eventID, userID string) (*dto.AttendanceResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.registration.mark_attendance")
	defer span.End()

	if eventID == "" {
		span.SetStatus(codes.Error, "invalid event_id")
		return nil, domain.ErrInvalidEventID
	}
	if userID == "" {
		span.SetStatus(codes.Error, "invalid user_id")
		return nil, domain.ErrInvalidUserID
	}

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("user_id", userID),
	)

	at := s.now()
	var changed bool
	err := s.withConflictRetry(ctx, func() error {
		var err error
		changed, err = s.registrationRepo.MarkAttendance(ctx, eventID, userID, at)
		return err
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	registration, err := s.registrationRepo.GetActive(ctx, eventID, userID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if changed {
		s.invalidateEvent(ctx, eventID)
		metrics.RecordAttendance(ctx, eventID)

		if err := s.publisher.PublishAttendanceMarked(ctx, registration); err != nil {
			logger.Get().Warn("failed to publish attendance marked event",
				zap.String("registration_id", registration.ID),
				zap.Error(err),
			)
		}
	}

	span.SetAttributes(attribute.Bool("already_marked", !changed))
	span.SetStatus(codes.Ok, "")
	return &dto.AttendanceResponse{
		EventID:       eventID,
		UserID:        userID,
		Attended:      true,
		AttendedAt:    registration.AttendedAt,
		AlreadyMarked: !changed,
	}, nil
}

// UpdateStatus moves a registration through the approval workflow. The
// active-participant counter tracks two contributions per registration: one
// for holding a slot (claimed at registration, released at cancellation) and
// one for being confirmed.
func (s *registrationService) UpdateStatus(ctx context.Context, registrationID string, req *dto.UpdateRegistrationStatusRequest) (*dto.RegistrationResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.registration.update_status")
	defer span.End()

	if registrationID == "" {
		span.SetStatus(codes.Error, "invalid registration_id")
		return nil, domain.ErrInvalidRegistrationID
	}
	if req == nil {
		span.SetStatus(codes.Error, "invalid status")
		return nil, domain.ErrInvalidStatus
	}

	target := domain.RegistrationStatus(req.Status)
	if !target.IsValid() {
		span.SetStatus(codes.Error, "invalid status")
		return nil, domain.ErrInvalidStatus
	}

	span.SetAttributes(
		attribute.String("registration_id", registrationID),
		attribute.String("target_status", target.String()),
	)

	// Read, validate and write inside the retry loop: the repository rejects
	// the write when the status moved after the read, so a retry revalidates
	// the transition against fresh state instead of applying a stale delta.
	var registration *domain.Registration
	var delta int
	err := s.withConflictRetry(ctx, func() error {
		current, err := s.registrationRepo.GetActiveByID(ctx, registrationID)
		if err != nil {
			return err
		}
		if !current.Status.CanTransitionTo(target) {
			span.SetAttributes(attribute.String("current_status", current.Status.String()))
			return domain.ErrInvalidTransition
		}
		delta = confirmedSlotDelta(current.Status, target)
		if err := s.registrationRepo.UpdateStatus(ctx, registrationID, current.Status, target, req.Notes, delta); err != nil {
			return err
		}
		registration = current
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			span.SetStatus(codes.Error, "invalid transition")
			return nil, err
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if delta != 0 {
		s.invalidateEvent(ctx, registration.EventID)
	}

	switch target {
	case domain.RegistrationStatusRejected:
		metrics.RecordRejection(ctx, registration.EventID)
	case domain.RegistrationStatusCancelled:
		metrics.RecordCancellation(ctx, registration.EventID)
	}

	registration.Status = target
	if req.Notes != "" {
		registration.Notes = req.Notes
	}
	if target == domain.RegistrationStatusCancelled {
		registration.IsActive = false
	}

	var pubErr error
	if target == domain.RegistrationStatusCancelled {
		pubErr = s.publisher.PublishRegistrationCancelled(ctx, registration)
	} else {
		pubErr = s.publisher.PublishStatusUpdated(ctx, registration)
	}
	if pubErr != nil {
		logger.Get().Warn("failed to publish status updated event",
			zap.String("registration_id", registrationID),
			zap.Error(pubErr),
		)
	}

	span.SetStatus(codes.Ok, "")
	return dto.RegistrationFromDomain(registration), nil
}

// GetRegistration retrieves a user's registration for an event
func (s *registrationService) GetRegistration(ctx context.Context, eventID, userID string) (*dto.RegistrationResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.registration.get")
	defer span.End()

	if eventID == "" {
		span.SetStatus(codes.Error, "invalid event_id")
		return nil, domain.ErrInvalidEventID
	}
	if userID == "" {
		span.SetStatus(codes.Error, "invalid user_id")
		return nil, domain.ErrInvalidUserID
	}

	registration, err := s.registrationRepo.GetActive(ctx, eventID, userID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return dto.RegistrationFromDomain(registration), nil
}

// GetRoster retrieves the active registrations of an event, oldest first
func (s *registrationService) GetRoster(ctx context.Context, eventID string, page, pageSize int) ([]*dto.RegistrationResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.registration.get_roster")
	defer span.End()

	if eventID == "" {
		span.SetStatus(codes.Error, "invalid event_id")
		return nil, domain.ErrInvalidEventID
	}

	// Confirm the event exists before listing, so callers can tell an
	// unknown event from an empty roster
	if _, err := s.eventRepo.GetActiveByID(ctx, eventID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	limit, offset := normalizePage(page, pageSize)
	registrations, err := s.registrationRepo.ListByEvent(ctx, eventID, limit, offset)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("count", len(registrations)))
	span.SetStatus(codes.Ok, "")
	return dto.RegistrationsFromDomain(registrations), nil
}

// GetUserRegistrations retrieves a user's active registrations, newest first
func (s *registrationService) GetUserRegistrations(ctx context.Context, userID string, page, pageSize int) ([]*dto.RegistrationResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.registration.get_user_registrations")
	defer span.End()

	if userID == "" {
		span.SetStatus(codes.Error, "invalid user_id")
		return nil, domain.ErrInvalidUserID
	}

	limit, offset := normalizePage(page, pageSize)
	registrations, err := s.registrationRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("count", len(registrations)))
	span.SetStatus(codes.Ok, "")
	return dto.RegistrationsFromDomain(registrations), nil
}

// withConflictRetry runs op and retries it exactly once when the storage
// layer reports a concurrent write conflict. A second conflict surfaces to
// the caller.
func (s *registrationService) withConflictRetry(ctx context.Context, op func() error) error {
	err := op()
	if !errors.Is(err, domain.ErrStorageConflict) {
		return err
	}

	metrics.RecordStorageConflict(ctx, "retried")
	if err := op(); err != nil {
		if errors.Is(err, domain.ErrStorageConflict) {
			metrics.RecordStorageConflict(ctx, "exhausted")
		}
		return err
	}
	return nil
}

func (s *registrationService) invalidateEvent(ctx context.Context, eventID string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, eventID)
	}
}

// confirmedSlotDelta computes the active-participant adjustment for a status
// transition. A registration contributes one count while it holds a slot and
// one more while confirmed; cancellation releases everything it holds.
func confirmedSlotDelta(from, to domain.RegistrationStatus) int {
	delta := 0
	if from == domain.RegistrationStatusConfirmed {
		delta--
	}
	if to == domain.RegistrationStatusConfirmed {
		delta++
	}
	if to == domain.RegistrationStatusCancelled {
		delta--
	}
	return delta
}

// normalizePage converts 1-based page parameters into limit/offset
func normalizePage(page, pageSize int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return pageSize, (page - 1) * pageSize
}
