// Package apperr defines the error shape returned to API clients and the
// translation of driver, validation and token errors into it.
package apperr

import (
	"net/http"
	"strings"
)

// FieldError is a single field-level validation failure.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// HTTPError is rendered as {"success": false, "code", "message", "errors"}.
type HTTPError struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Status  int          `json:"-"`
	Errors  []FieldError `json:"errors,omitempty"`
	// Details carries extra context such as the valid next states of an order.
	Details map[string]any `json:"details,omitempty"`
}

func (e *HTTPError) Error() string {
	return e.Message
}

// Is matches any *HTTPError so errors.Is(err, &HTTPError{}) detects the type.
func (e *HTTPError) Is(target error) bool {
	_, ok := target.(*HTTPError)
	return ok
}

// WithDetails returns a copy carrying extra response context.
func (e *HTTPError) WithDetails(details map[string]any) *HTTPError {
	clone := *e
	clone.Details = details
	return &clone
}

func codeFor(status int) string {
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}

func newError(status int, message string) *HTTPError {
	return &HTTPError{Code: codeFor(status), Message: message, Status: status}
}

func BadRequest(message string, fields ...FieldError) *HTTPError {
	e := newError(http.StatusBadRequest, message)
	e.Errors = fields
	return e
}

func Unauthorized(message string) *HTTPError {
	return newError(http.StatusUnauthorized, message)
}

func Forbidden(message string) *HTTPError {
	return newError(http.StatusForbidden, message)
}

func NotFound(message string) *HTTPError {
	return newError(http.StatusNotFound, message)
}

func Conflict(message string) *HTTPError {
	return newError(http.StatusConflict, message)
}

func Unprocessable(message string) *HTTPError {
	return newError(http.StatusUnprocessableEntity, message)
}

// Internal hides the underlying cause from the client.
func Internal() *HTTPError {
	return newError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}
