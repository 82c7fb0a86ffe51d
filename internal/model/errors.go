package model

import (
	"errors"
	"fmt"
)

// Lookup errors.
var (
	ErrEventNotFound        = errors.New("event not found")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrCategoryNotFound     = errors.New("category not found")
)

// Access errors. ErrUnauthorized is deliberately generic: callers must not
// learn why access was refused.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrUnauthorized    = errors.New("unauthorized")
)

// Registration state errors.
var (
	ErrRegistrationClosed    = errors.New("registration is not available for this event")
	ErrAlreadyRegistered     = errors.New("user already holds a registration for this event")
	ErrAlreadyCancelled      = errors.New("registration is already cancelled")
	ErrAlreadyPaid           = errors.New("payment already processed")
	ErrRegistrationCancelled = errors.New("registration is cancelled")
)

// Ticket reference errors.
var (
	ErrTicketReferenceTaken     = errors.New("ticket reference already in use")
	ErrTicketReferenceExhausted = errors.New("could not allocate a unique ticket reference")
)

// ErrValidation is matched by every *ValidationError.
var ErrValidation = errors.New("validation error")

// ValidationError reports malformed input for a single field.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError builds a *ValidationError for field.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Is lets errors.Is(err, ErrValidation) match any validation failure.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// CapacityExceededError is returned when a request asks for more tickets
// than the event has left.
type CapacityExceededError struct {
	Remaining int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("not enough tickets available: only %d tickets left", e.Remaining)
}
