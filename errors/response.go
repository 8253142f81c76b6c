package errors

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// serverErrorBody covers the two error body shapes the storefront backend is
// known to produce: a nested {"error":{"code","message"}} envelope and a flat
// {"message"} object.
type serverErrorBody struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Message string `json:"message"`
}

// ParseResponse reads the body of a non-2xx HTTP response and translates it
// into an AppError. The server-supplied message is preserved when present so
// it can be shown to the user verbatim; otherwise a generic message derived
// from the status code is used. The body is fully consumed and closed.
func ParseResponse(resp *http.Response) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &AppError{
			Code:    "BAD_RESPONSE",
			Message: fmt.Sprintf("server returned status %d", resp.StatusCode),
			Status:  resp.StatusCode,
			Err:     fmt.Errorf("read error body: %w", err),
		}
	}

	var body serverErrorBody
	if json.Unmarshal(bodyBytes, &body) == nil {
		if body.Error != nil && body.Error.Message != "" {
			return fromStatus(resp.StatusCode, body.Error.Code, body.Error.Message)
		}
		if body.Message != "" {
			return fromStatus(resp.StatusCode, "", body.Message)
		}
	}

	return fromStatus(resp.StatusCode, "", fmt.Sprintf("server returned status %d", resp.StatusCode))
}

// fromStatus builds an AppError whose sentinel matches the HTTP status,
// keeping errors.Is checks working for parsed server errors.
func fromStatus(status int, code, message string) *AppError {
	var sentinel error
	switch status {
	case http.StatusNotFound:
		sentinel = ErrNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		sentinel = ErrInvalidInput
	case http.StatusUnauthorized:
		sentinel = ErrUnauthorized
	case http.StatusForbidden:
		sentinel = ErrForbidden
	case http.StatusConflict:
		sentinel = ErrConflict
	case http.StatusServiceUnavailable:
		sentinel = ErrServiceUnavail
	default:
		if status >= 500 {
			sentinel = ErrInternal
		}
	}

	if code == "" {
		code = "SERVER_ERROR"
	}

	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     sentinel,
	}
}
