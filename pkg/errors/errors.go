// Package errors defines the error taxonomy shared by every layer: sentinel
// errors for errors.Is checks and AppError for values that carry their HTTP
// status and public code.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound        = errors.New("resource not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
	ErrServiceUnavail  = errors.New("service unavailable")
)

// AppError is an error with a public code and the HTTP status it maps to.
// Err is the sentinel it matches under errors.Is.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newAppError(sentinel error, code string, status int, message string) *AppError {
	return &AppError{Code: code, Message: message, Status: status, Err: sentinel}
}

// NotFound is a 404 for resource id. Deleted reviews use it too, so callers
// cannot tell them apart from ids that never existed.
func NotFound(resource, id string) *AppError {
	return newAppError(ErrNotFound, "NOT_FOUND", http.StatusNotFound,
		fmt.Sprintf("%s with id %s not found", resource, id))
}

// InvalidInput is a 400 for requests that cannot be decoded at all.
func InvalidInput(message string) *AppError {
	return newAppError(ErrInvalidInput, "INVALID_INPUT", http.StatusBadRequest, message)
}

// InvalidArgument is a 422 for well-formed requests whose values break a
// domain rule (rating out of range, empty text, vote not +1/-1).
func InvalidArgument(message string) *AppError {
	return newAppError(ErrInvalidArgument, "INVALID_ARGUMENT", http.StatusUnprocessableEntity, message)
}

// Unauthenticated is a 401 for a missing caller identity.
func Unauthenticated(message string) *AppError {
	return newAppError(ErrUnauthenticated, "UNAUTHENTICATED", http.StatusUnauthorized, message)
}

// Forbidden is a 403 for a known caller acting outside its rights.
func Forbidden(message string) *AppError {
	return newAppError(ErrForbidden, "FORBIDDEN", http.StatusForbidden, message)
}

// Conflict is a 409.
func Conflict(message string) *AppError {
	return newAppError(ErrConflict, "CONFLICT", http.StatusConflict, message)
}

// ServiceUnavailable is a 503, used for downstream outages.
func ServiceUnavailable(message string) *AppError {
	return newAppError(ErrServiceUnavail, "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, message)
}

var sentinelStatus = []struct {
	err    error
	status int
}{
	{ErrNotFound, http.StatusNotFound},
	{ErrConflict, http.StatusConflict},
	{ErrInvalidInput, http.StatusBadRequest},
	{ErrInvalidArgument, http.StatusUnprocessableEntity},
	{ErrUnauthenticated, http.StatusUnauthorized},
	{ErrForbidden, http.StatusForbidden},
	{ErrServiceUnavail, http.StatusServiceUnavailable},
}

// HTTPStatus returns the status for err: an AppError's own status, else the
// status of the first sentinel it wraps, else 500.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	for _, s := range sentinelStatus {
		if errors.Is(err, s.err) {
			return s.status
		}
	}
	return http.StatusInternalServerError
}
