package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yadev07/cs-eventsphere-backend/internal/domain"
	"github.com/yadev07/cs-eventsphere-backend/internal/dto"
)

func newTestEventService(eventRepo *MockEventRepository) *eventService {
	svc := NewEventService(eventRepo).(*eventService)
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestEventService_CreateEvent(t *testing.T) {
	var created *domain.Event
	eventRepo := &MockEventRepository{
		CreateFunc: func(ctx context.Context, event *domain.Event) error {
			created = event
			return nil
		},
	}
	svc := newTestEventService(eventRepo)

	req := &dto.CreateEventRequest{
		Title:                "Campus Hackathon",
		StartAt:              testNow.Add(48 * time.Hour),
		EndAt:                testNow.Add(60 * time.Hour),
		RegistrationDeadline: testNow.Add(40 * time.Hour),
		MaxParticipants:      150,
	}

	resp, err := svc.CreateEvent(context.Background(), "organizer-1", req)
	if err != nil {
		t.Fatalf("CreateEvent() error = %v", err)
	}

	if created == nil {
		t.Fatal("CreateEvent() did not call the repository")
	}
	if created.Status != domain.PhaseUpcoming {
		t.Errorf("initial status = %v, want %v", created.Status, domain.PhaseUpcoming)
	}
	if created.ActiveParticipants != 0 || created.TotalRegistrations != 0 || created.AttendanceCount != 0 {
		t.Error("new event counters should start at zero")
	}
	if resp.Status != string(domain.PhaseUpcoming) {
		t.Errorf("response status = %v, want upcoming", resp.Status)
	}
	if !resp.RegistrationOpen {
		t.Error("registration should be open for a fresh upcoming event")
	}
}

func TestEventService_CreateEvent_InvalidWindow(t *testing.T) {
	svc := newTestEventService(&MockEventRepository{})

	req := &dto.CreateEventRequest{
		Title:   "Backwards Event",
		StartAt: testNow.Add(10 * time.Hour),
		EndAt:   testNow.Add(5 * time.Hour),
	}

	_, err := svc.CreateEvent(context.Background(), "organizer-1", req)
	if !errors.Is(err, domain.ErrInvalidEventWindow) {
		t.Errorf("CreateEvent() error = %v, want %v", err, domain.ErrInvalidEventWindow)
	}
}

func TestEventService_GetEvent_DerivesPhase(t *testing.T) {
	// Stored status says upcoming but the event is already over
	eventRepo := &MockEventRepository{
		GetActiveByIDFunc: func(ctx context.Context, id string) (*domain.Event, error) {
			return &domain.Event{
				ID:                   id,
				StartAt:              testNow.Add(-4 * time.Hour),
				EndAt:                testNow.Add(-2 * time.Hour),
				RegistrationDeadline: testNow.Add(-5 * time.Hour),
				Status:               domain.PhaseUpcoming,
				IsActive:             true,
			}, nil
		},
	}
	svc := newTestEventService(eventRepo)

	resp, err := svc.GetEvent(context.Background(), "event-1")
	if err != nil {
		t.Fatalf("GetEvent() error = %v", err)
	}
	if resp.Status != string(domain.PhasePast) {
		t.Errorf("derived status = %v, want past despite stale stored value", resp.Status)
	}
	if resp.RegistrationOpen {
		t.Error("registration should be closed for a past event")
	}
}

func TestEventService_ListEvents_InvalidFilter(t *testing.T) {
	svc := newTestEventService(&MockEventRepository{})

	_, err := svc.ListEvents(context.Background(), "ongoing", 1, 20)
	if !errors.Is(err, domain.ErrInvalidStatus) {
		t.Errorf("ListEvents() error = %v, want %v", err, domain.ErrInvalidStatus)
	}
}

func TestEventService_ReconcileStatuses(t *testing.T) {
	stale := []*domain.Event{
		{
			// Upcoming that has started
			ID:      "event-live",
			StartAt: testNow.Add(-time.Hour),
			EndAt:   testNow.Add(time.Hour),
			Status:  domain.PhaseUpcoming,
		},
		{
			// Live that has ended
			ID:      "event-past",
			StartAt: testNow.Add(-3 * time.Hour),
			EndAt:   testNow.Add(-time.Hour),
			Status:  domain.PhaseLive,
		},
		{
			// Still accurate, must not be written
			ID:      "event-fresh",
			StartAt: testNow.Add(time.Hour),
			EndAt:   testNow.Add(2 * time.Hour),
			Status:  domain.PhaseUpcoming,
		},
	}

	writes := map[string]domain.Phase{}
	eventRepo := &MockEventRepository{
		ListForStatusRefreshFunc: func(ctx context.Context, limit int) ([]*domain.Event, error) {
			return stale, nil
		},
		UpdateStatusFunc: func(ctx context.Context, id string, status domain.Phase) (bool, error) {
			writes[id] = status
			return true, nil
		},
	}
	svc := newTestEventService(eventRepo)

	updated, err := svc.ReconcileStatuses(context.Background(), 100)
	if err != nil {
		t.Fatalf("ReconcileStatuses() error = %v", err)
	}
	if updated != 2 {
		t.Errorf("updated = %d, want 2", updated)
	}
	if writes["event-live"] != domain.PhaseLive {
		t.Errorf("event-live written status = %v, want live", writes["event-live"])
	}
	if writes["event-past"] != domain.PhasePast {
		t.Errorf("event-past written status = %v, want past", writes["event-past"])
	}
	if _, ok := writes["event-fresh"]; ok {
		t.Error("event-fresh should not have been written")
	}
}

func TestEventService_ReconcileStatuses_ContinuesOnError(t *testing.T) {
	stale := []*domain.Event{
		{ID: "event-a", StartAt: testNow.Add(-2 * time.Hour), EndAt: testNow.Add(-time.Hour), Status: domain.PhaseLive},
		{ID: "event-b", StartAt: testNow.Add(-2 * time.Hour), EndAt: testNow.Add(-time.Hour), Status: domain.PhaseLive},
	}

	eventRepo := &MockEventRepository{
		ListForStatusRefreshFunc: func(ctx context.Context, limit int) ([]*domain.Event, error) {
			return stale, nil
		},
		UpdateStatusFunc: func(ctx context.Context, id string, status domain.Phase) (bool, error) {
			if id == "event-a" {
				return false, errors.New("write failed")
			}
			return true, nil
		},
	}
	svc := newTestEventService(eventRepo)

	updated, err := svc.ReconcileStatuses(context.Background(), 100)
	if err != nil {
		t.Fatalf("ReconcileStatuses() error = %v", err)
	}
	if updated != 1 {
		t.Errorf("updated = %d, want 1 (failed write skipped)", updated)
	}
}
