package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard sentinel errors for common client-side failure classes.
var (
	ErrNoResponse     = errors.New("no response from server")
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrServiceUnavail = errors.New("service unavailable")
	ErrStorage        = errors.New("storage unavailable")
	ErrInternal       = errors.New("internal error")
)

// AppError represents a structured error carrying the server-reported code
// and a human-readable message suitable for direct display.
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

// NoResponse creates an error for a request that received no response at all
// (connection refused, timeout, DNS failure). The wrapped cause is kept for
// logs; the message is the generic user-facing one.
func NoResponse(cause error) *AppError {
	return &AppError{
		Code:    "NO_RESPONSE",
		Message: "no response from server",
		Status:  0,
		Err:     fmt.Errorf("%w: %v", ErrNoResponse, cause),
	}
}

// NotFound creates an error for a missing resource.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// InvalidInput creates an error for a request rejected before it was sent.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// Unauthorized creates an error for a request that requires authentication.
func Unauthorized(message string) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     ErrUnauthorized,
	}
}

// Conflict creates an error for a request rejected due to concurrent modification.
func Conflict(message string) *AppError {
	return &AppError{
		Code:    "CONFLICT",
		Message: message,
		Status:  http.StatusConflict,
		Err:     ErrConflict,
	}
}

// Storage creates an error for a durable-storage failure. Callers are
// expected to log it and degrade rather than surface it to users.
func Storage(cause error) *AppError {
	return &AppError{
		Code:    "STORAGE_UNAVAILABLE",
		Message: "local storage unavailable",
		Err:     fmt.Errorf("%w: %v", ErrStorage, cause),
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// UserMessage extracts the human-readable message from an error, falling back
// to the given default for errors with no display form.
func UserMessage(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return fallback
}

// HTTPStatus returns the HTTP status associated with the error, or 500 when
// no mapping is known.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrServiceUnavail):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
