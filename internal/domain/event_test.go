package domain

import (
	"testing"
	"time"
)

func TestDerivePhase(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		startAt time.Time
		endAt   time.Time
		want    Phase
	}{
		{
			name:    "event entirely in the future",
			startAt: now.Add(24 * time.Hour),
			endAt:   now.Add(48 * time.Hour),
			want:    PhaseUpcoming,
		},
		{
			name:    "event entirely in the past",
			startAt: now.Add(-48 * time.Hour),
			endAt:   now.Add(-24 * time.Hour),
			want:    PhasePast,
		},
		{
			name:    "event in progress",
			startAt: now.Add(-time.Hour),
			endAt:   now.Add(time.Hour),
			want:    PhaseLive,
		},
		{
			name:    "starts exactly now",
			startAt: now,
			endAt:   now.Add(time.Hour),
			want:    PhaseLive,
		},
		{
			name:    "ends exactly now",
			startAt: now.Add(-time.Hour),
			endAt:   now,
			want:    PhaseLive,
		},
		{
			name:    "zero-length event at now",
			startAt: now,
			endAt:   now,
			want:    PhaseLive,
		},
		{
			name:    "ended one second ago",
			startAt: now.Add(-time.Hour),
			endAt:   now.Add(-time.Second),
			want:    PhasePast,
		},
		{
			name:    "starts one second from now",
			startAt: now.Add(time.Second),
			endAt:   now.Add(time.Hour),
			want:    PhaseUpcoming,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DerivePhase(now, tt.startAt, tt.endAt)
			if got != tt.want {
				t.Errorf("DerivePhase() = %v, want %v", got, tt.want)
			}
			if !got.IsValid() {
				t.Errorf("DerivePhase() returned unknown phase %q", got)
			}
		})
	}
}

func TestEventRegistrationOpen(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		event Event
		want  bool
	}{
		{
			name: "open upcoming event",
			event: Event{
				StartAt:              now.Add(24 * time.Hour),
				EndAt:                now.Add(48 * time.Hour),
				RegistrationDeadline: now.Add(12 * time.Hour),
			},
			want: true,
		},
		{
			name: "deadline passed",
			event: Event{
				StartAt:              now.Add(24 * time.Hour),
				EndAt:                now.Add(48 * time.Hour),
				RegistrationDeadline: now.Add(-time.Minute),
			},
			want: false,
		},
		{
			name: "deadline is exactly now",
			event: Event{
				StartAt:              now.Add(24 * time.Hour),
				EndAt:                now.Add(48 * time.Hour),
				RegistrationDeadline: now,
			},
			want: true,
		},
		{
			name: "live event with open deadline",
			event: Event{
				StartAt:              now.Add(-time.Hour),
				EndAt:                now.Add(time.Hour),
				RegistrationDeadline: now.Add(time.Hour),
			},
			want: true,
		},
		{
			name: "past event with lingering deadline",
			event: Event{
				StartAt:              now.Add(-48 * time.Hour),
				EndAt:                now.Add(-24 * time.Hour),
				RegistrationDeadline: now.Add(time.Hour),
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.RegistrationOpen(now); got != tt.want {
				t.Errorf("RegistrationOpen() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEventHasCapacity(t *testing.T) {
	tests := []struct {
		name   string
		max    int
		active int
		want   bool
	}{
		{"unlimited with zero active", 0, 0, true},
		{"unlimited with many active", 0, 100000, true},
		{"below cap", 10, 9, true},
		{"at cap", 10, 10, false},
		{"above cap after drift", 10, 11, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Event{MaxParticipants: tt.max, ActiveParticipants: tt.active}
			if got := e.HasCapacity(); got != tt.want {
				t.Errorf("HasCapacity() = %v, want %v", got, tt.want)
			}
		})
	}
}
