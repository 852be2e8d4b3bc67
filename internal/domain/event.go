package domain

import (
	"time"
)

// Phase is the derived temporal classification of an event.
type Phase string

const (
	PhaseUpcoming Phase = "upcoming"
	PhaseLive     Phase = "live"
	PhasePast     Phase = "past"
)

// String returns the string representation of the phase
func (p Phase) String() string {
	return string(p)
}

// IsValid checks if the phase is a known value
func (p Phase) IsValid() bool {
	switch p {
	case PhaseUpcoming, PhaseLive, PhasePast:
		return true
	}
	return false
}

// Event represents a university event with capacity accounting
type Event struct {
	ID                   string    `json:"id"`
	Title                string    `json:"title"`
	Description          string    `json:"description"`
	Location             string    `json:"location"`
	OrganizerID          string    `json:"organizer_id"`
	StartAt              time.Time `json:"start_at"`
	EndAt                time.Time `json:"end_at"`
	RegistrationDeadline time.Time `json:"registration_deadline"`

	// MaxParticipants caps concurrently active registrations. Zero means unlimited.
	MaxParticipants int `json:"max_participants"`

	// ActiveParticipants counts registrations that are not cancelled. Never negative.
	ActiveParticipants int `json:"active_participants"`

	// TotalRegistrations counts every accepted registration. Never decremented.
	TotalRegistrations int `json:"total_registrations"`

	// AttendanceCount counts participants marked attended. Never decremented.
	AttendanceCount int `json:"attendance_count"`

	// Status is the cached phase. Read paths derive the phase from the clock;
	// the stored value is refreshed by the status reconciler.
	Status Phase `json:"status"`

	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DerivePhase computes the temporal phase of an event from the clock and its
// start/end timestamps. An event whose window contains now is live, including
// the degenerate start == now == end case.
func DerivePhase(now, startAt, endAt time.Time) Phase {
	if endAt.Before(now) {
		return PhasePast
	}
	if startAt.After(now) {
		return PhaseUpcoming
	}
	return PhaseLive
}

// Phase returns the derived phase of the event at the given time
func (e *Event) Phase(now time.Time) Phase {
	return DerivePhase(now, e.StartAt, e.EndAt)
}

// RegistrationOpen reports whether a new registration is accepted at now.
// Registration closes once the deadline passes or the event phase is past.
func (e *Event) RegistrationOpen(now time.Time) bool {
	if now.After(e.RegistrationDeadline) {
		return false
	}
	return e.Phase(now) != PhasePast
}

// IsUnlimited reports whether the event has no participant cap
func (e *Event) IsUnlimited() bool {
	return e.MaxParticipants == 0
}

// HasCapacity reports whether another active registration fits under the cap
func (e *Event) HasCapacity() bool {
	return e.IsUnlimited() || e.ActiveParticipants < e.MaxParticipants
}
