package domain

import "testing"

func TestRegistrationStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		from RegistrationStatus
		to   RegistrationStatus
		want bool
	}{
		{RegistrationStatusPending, RegistrationStatusConfirmed, true},
		{RegistrationStatusPending, RegistrationStatusRejected, true},
		{RegistrationStatusPending, RegistrationStatusCancelled, true},
		{RegistrationStatusPending, RegistrationStatusPending, false},

		{RegistrationStatusConfirmed, RegistrationStatusRejected, true},
		{RegistrationStatusConfirmed, RegistrationStatusCancelled, true},
		{RegistrationStatusConfirmed, RegistrationStatusPending, false},
		{RegistrationStatusConfirmed, RegistrationStatusConfirmed, false},

		{RegistrationStatusRejected, RegistrationStatusConfirmed, true},
		{RegistrationStatusRejected, RegistrationStatusCancelled, true},
		{RegistrationStatusRejected, RegistrationStatusPending, false},

		{RegistrationStatusCancelled, RegistrationStatusPending, false},
		{RegistrationStatusCancelled, RegistrationStatusConfirmed, false},
		{RegistrationStatusCancelled, RegistrationStatusRejected, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestRegistrationStatusIsValid(t *testing.T) {
	valid := []RegistrationStatus{
		RegistrationStatusPending,
		RegistrationStatusConfirmed,
		RegistrationStatusRejected,
		RegistrationStatusCancelled,
	}
	for _, s := range valid {
		if !s.IsValid() {
			t.Errorf("expected %q to be valid", s)
		}
	}
	if RegistrationStatus("attended").IsValid() {
		t.Error("expected unknown status to be invalid")
	}
}

func TestRegistrationTypeIsValid(t *testing.T) {
	if !RegistrationTypeParticipant.IsValid() || !RegistrationTypeCoordinator.IsValid() {
		t.Error("expected known registration types to be valid")
	}
	if RegistrationType("observer").IsValid() {
		t.Error("expected unknown registration type to be invalid")
	}
}
