package model

import (
	"errors"
	"fmt"
)

// Error codes returned by the platform services.
const (
	ErrBadRequest      = "BAD_REQUEST"
	ErrUnauthorized    = "UNAUTHORIZED"
	ErrForbidden       = "FORBIDDEN"
	ErrNotFound        = "NOT_FOUND"
	ErrConflict        = "CONFLICT"
	ErrValidationError = "VALIDATION_ERROR"
	ErrRateLimited     = "RATE_LIMITED"
	ErrInternalError   = "INTERNAL_ERROR"
	ErrUnavailable     = "SERVICE_UNAVAILABLE"
	ErrTimeout         = "SERVICE_TIMEOUT"
)

// APIError is the error envelope returned by the task service and the
// request router on non-2xx responses. It implements the error interface so
// tests can assert on it directly with errors.As.
type APIError struct {
	StatusCode int          `json:"-"`
	Code       string       `json:"code"`
	Message    string       `json:"message"`
	Details    []FieldError `json:"details,omitempty"`
	TraceID    string       `json:"trace_id,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsNotFound reports whether the error is a 404 / NOT_FOUND envelope.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == 404 || e.Code == ErrNotFound
}

// IsConflict reports whether the error is a 409 / CONFLICT envelope.
func (e *APIError) IsConflict() bool {
	return e.StatusCode == 409 || e.Code == ErrConflict
}

// IsAuthFailure reports whether the error is a 401 or 403 envelope.
func (e *APIError) IsAuthFailure() bool {
	return e.StatusCode == 401 || e.StatusCode == 403 ||
		e.Code == ErrUnauthorized || e.Code == ErrForbidden
}

// IsNotFound reports whether err wraps a 404 / NOT_FOUND envelope.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsNotFound()
}

// IsConflict reports whether err wraps a 409 / CONFLICT envelope.
func IsConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsConflict()
}

// IsAuthFailure reports whether err wraps a 401 or 403 envelope.
func IsAuthFailure(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsAuthFailure()
}

// FieldError describes a field-level validation error.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewBadRequestError returns a BAD_REQUEST envelope.
func NewBadRequestError(msg string) *APIError {
	return &APIError{StatusCode: 400, Code: ErrBadRequest, Message: msg}
}

// NewUnauthorizedError returns an UNAUTHORIZED envelope.
func NewUnauthorizedError(msg string) *APIError {
	return &APIError{StatusCode: 401, Code: ErrUnauthorized, Message: msg}
}

// NewForbiddenError returns a FORBIDDEN envelope.
func NewForbiddenError(msg string) *APIError {
	return &APIError{StatusCode: 403, Code: ErrForbidden, Message: msg}
}

// NewNotFoundError returns a NOT_FOUND envelope.
func NewNotFoundError(msg string) *APIError {
	return &APIError{StatusCode: 404, Code: ErrNotFound, Message: msg}
}

// NewConflictError returns a CONFLICT envelope.
func NewConflictError(msg string) *APIError {
	return &APIError{StatusCode: 409, Code: ErrConflict, Message: msg}
}

// NewValidationError returns a VALIDATION_ERROR envelope with field details.
func NewValidationError(details []FieldError) *APIError {
	return &APIError{
		StatusCode: 422,
		Code:       ErrValidationError,
		Message:    "One or more fields are invalid",
		Details:    details,
	}
}

// NewUnavailableError returns a SERVICE_UNAVAILABLE envelope.
func NewUnavailableError() *APIError {
	return &APIError{
		StatusCode: 503,
		Code:       ErrUnavailable,
		Message:    "The service is temporarily unavailable",
	}
}

// NewTimeoutError returns a SERVICE_TIMEOUT envelope.
func NewTimeoutError() *APIError {
	return &APIError{
		StatusCode: 504,
		Code:       ErrTimeout,
		Message:    "The service did not respond in time",
	}
}
