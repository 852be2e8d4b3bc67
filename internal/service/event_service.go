package service

import (
	"context"
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

// EventService defines the interface for event business logic
type EventService interface {
	// CreateEvent creates a new event owned by the organizer
	CreateEvent(ctx context.Context, organizerID string, req *dto.CreateEventRequest) (*dto.EventResponse, error)

	// GetEvent retrieves an event with its phase derived at read time
	GetEvent(ctx context.Context, id string) (*dto.EventResponse, error)

	// ListEvents retrieves active events, optionally filtered by phase
	ListEvents(ctx context.Context, status string, page, pageSize int) ([]*dto.EventResponse, error)

	// DeleteEvent soft-deletes an event
	DeleteEvent(ctx context.Context, id string) error

	// ReconcileStatuses persists derived phases for events whose stored
	// status went stale. Returns the number of events updated.
	ReconcileStatuses(ctx context.Context, batchSize int) (int, error)
}

type eventService struct {
	eventRepo repository.EventRepository
	now       func() time.Time
}

// NewEventService creates a new event service
func NewEventService(eventRepo repository.EventRepository) EventService {
	return &eventService{
		eventRepo: eventRepo,
		now:       time.Now,
	}
}

// CreateEvent creates a new event owned by the organizer
func (s *eventService) CreateEvent(ctx context.Context, organizerID string, req *dto.CreateEventRequest) (*dto.EventResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.create")
	defer span.End()

	if organizerID == "" {
		span.SetStatus(codes.Error, "invalid organizer id")
		return nil, domain.ErrInvalidUserID
	}
	if req == nil || req.EndAt.Before(req.StartAt) {
		span.SetStatus(codes.Error, "invalid event window")
		return nil, domain.ErrInvalidEventWindow
	}

	now := s.now()
	event := &domain.Event{
		ID:                   uuid.New().String(),
		Title:                req.Title,
		Description:          req.Description,
		Location:             req.Location,
		OrganizerID:          organizerID,
		StartAt:              req.StartAt,
		EndAt:                req.EndAt,
		RegistrationDeadline: req.RegistrationDeadline,
		MaxParticipants:      req.MaxParticipants,
		Status:               domain.DerivePhase(now, req.StartAt, req.EndAt),
		IsActive:             true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	span.SetAttributes(
		attribute.String("event_id", event.ID),
		attribute.String("organizer_id", organizerID),
	)

	if err := s.eventRepo.Create(ctx, event); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return dto.EventFromDomain(event, now), nil
}

// GetEvent retrieves an event with its phase derived at read time
func (s *eventService) GetEvent(ctx context.Context, id string) (*dto.EventResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.get")
	defer span.End()

	if id == "" {
		span.SetStatus(codes.Error, "invalid event_id")
		return nil, domain.ErrInvalidEventID
	}

	span.SetAttributes(attribute.String("event_id", id))

	event, err := s.eventRepo.GetActiveByID(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return dto.EventFromDomain(event, s.now()), nil
}

// ListEvents retrieves active events, optionally filtered by phase. The
// filter matches the stored status; each returned event still carries its
// freshly derived phase.
func (s *eventService) ListEvents(ctx context.Context, status string, page, pageSize int) ([]*dto.EventResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.list")
	defer span.End()

	phase := domain.Phase(status)
	if status != "" && !phase.IsValid() {
		span.SetStatus(codes.Error, "invalid status filter")
		return nil, domain.ErrInvalidStatus
	}

	limit, offset := normalizePage(page, pageSize)
	events, err := s.eventRepo.List(ctx, phase, limit, offset)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("count", len(events)))
	span.SetStatus(codes.Ok, "")
	return dto.EventsFromDomain(events, s.now()), nil
}

// DeleteEvent soft-deletes an event
func (s *eventService) DeleteEvent(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.event.delete")
	defer span.End()

	if id == "" {
		span.SetStatus(codes.Error, "invalid event_id")
		return domain.ErrInvalidEventID
	}

	span.SetAttributes(attribute.String("event_id", id))

	if err := s.eventRepo.SoftDelete(ctx, id); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// ReconcileStatuses persists derived phases for events whose stored status
// went stale. Read paths never write; this is the only place stored phases
// move forward.
func (s *eventService) ReconcileStatuses(ctx context.Context, batchSize int) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.reconcile_statuses")
	defer span.End()

	if batchSize < 1 {
		batchSize = 100
	}

	events, err := s.eventRepo.ListForStatusRefresh(ctx, batchSize)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	now := s.now()
	updated := 0
	for _, event := range events {
		derived := event.Phase(now)
		if derived == event.Status {
			continue
		}

		changed, err := s.eventRepo.UpdateStatus(ctx, event.ID, derived)
		if err != nil {
			logger.Get().Warn("failed to persist event status",
				zap.String("event_id", event.ID),
				zap.String("status", derived.String()),
				zap.Error(err),
			)
			continue
		}
		if changed {
			updated++
			metrics.RecordStatusTransition(ctx, event.Status.String(), derived.String())
		}
	}

	span.SetAttributes(
		attribute.Int("scanned", len(events)),
		attribute.Int("updated", updated),
	)
	span.SetStatus(codes.Ok, "")
	return updated, nil
}
