package domain

import (
	"errors"
	"fmt"
)

// ErrorCode classifies domain errors for transport-level mapping.
type ErrorCode string

const (
	CodeValidation      ErrorCode = "VALIDATION_ERROR"
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeInvalidState    ErrorCode = "INVALID_STATE"
	CodeConflict        ErrorCode = "CONFLICT"
	CodeForbidden       ErrorCode = "FORBIDDEN"
	CodeNoActiveSession ErrorCode = "NO_ACTIVE_SESSION"
	CodeSessionClosed   ErrorCode = "SESSION_CLOSED"

	CodeInvalidCoordinate ErrorCode = "INVALID_COORDINATE"
)

// DomainError is the typed error returned across the service boundary.
type DomainError struct {
	Code    ErrorCode
	Message string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewValidationError creates a validation error with the given message.
func NewValidationError(message string) *DomainError {
	return &DomainError{Code: CodeValidation, Message: message}
}

// NewNotFoundError creates a not-found error for the given entity and identifier.
func NewNotFoundError(entity, id string) *DomainError {
	return &DomainError{Code: CodeNotFound, Message: fmt.Sprintf("%s not found: %s", entity, id)}
}

// NewInvalidStateError creates an error for a disallowed state transition.
func NewInvalidStateError(from, to string) *DomainError {
	return &DomainError{Code: CodeInvalidState, Message: fmt.Sprintf("cannot transition from %s to %s", from, to)}
}

// NewInvalidTransitionError creates an error for an event with no outgoing
// edge from the current status.
func NewInvalidTransitionError(event, current string) *DomainError {
	return &DomainError{Code: CodeInvalidState, Message: fmt.Sprintf("event %s is not allowed from status %s", event, current)}
}

// NewConflictError creates a concurrent-modification conflict error.
func NewConflictError(message string) *DomainError {
	return &DomainError{Code: CodeConflict, Message: message}
}

// NewForbiddenError creates an authorization error.
func NewForbiddenError(message string) *DomainError {
	return &DomainError{Code: CodeForbidden, Message: message}
}

// NewInvalidCoordinateError creates an error for a coordinate outside the
// valid WGS84 range or carrying non-finite components.
func NewInvalidCoordinateError(message string) *DomainError {
	return &DomainError{Code: CodeInvalidCoordinate, Message: message}
}

// NewNoActiveSessionError is returned when a location report arrives for a
// booking that has no live tracking session.
func NewNoActiveSessionError(bookingID string) *DomainError {
	return &DomainError{Code: CodeNoActiveSession, Message: fmt.Sprintf("no active tracking session for booking %s", bookingID)}
}

// NewSessionClosedError is returned for a late location report after the
// tracking session has been torn down.
func NewSessionClosedError(bookingID string) *DomainError {
	return &DomainError{Code: CodeSessionClosed, Message: fmt.Sprintf("tracking session for booking %s is closed", bookingID)}
}

// CodeOf extracts the ErrorCode from an error chain, or "" if it carries none.
func CodeOf(err error) ErrorCode {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsCode reports whether err carries the given domain error code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
