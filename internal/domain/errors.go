package domain

import "errors"

// Domain errors
var (
	// Event errors
	ErrEventNotFound = errors.New("event not found")
	ErrEventFull     = errors.New("event has reached maximum participants")

	// Registration errors
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrRegistrationClosed   = errors.New("registration is closed for this event")
	ErrAlreadyRegistered    = errors.New("user is already registered for this event")
	ErrNotRegistered        = errors.New("user is not registered for this event")
	ErrInvalidTransition    = errors.New("registration status transition not permitted")

	// Storage errors
	ErrStorageConflict = errors.New("concurrent write conflict detected")

	// Validation errors
	ErrInvalidEventID          = errors.New("invalid event id")
	ErrInvalidUserID           = errors.New("invalid user id")
	ErrInvalidRegistrationID   = errors.New("invalid registration id")
	ErrInvalidStatus           = errors.New("invalid registration status")
	ErrInvalidRegistrationType = errors.New("invalid registration type")
	ErrInvalidEventWindow      = errors.New("event end must not precede start")
)

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrEventNotFound) ||
		errors.Is(err, ErrRegistrationNotFound)
}

// IsConflictError checks if the error is a conflict error
func IsConflictError(err error) bool {
	return errors.Is(err, ErrEventFull) ||
		errors.Is(err, ErrAlreadyRegistered) ||
		errors.Is(err, ErrRegistrationClosed) ||
		errors.Is(err, ErrStorageConflict)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidEventID) ||
		errors.Is(err, ErrInvalidUserID) ||
		errors.Is(err, ErrInvalidRegistrationID) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrInvalidRegistrationType) ||
		errors.Is(err, ErrInvalidEventWindow)
}
