package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error carries the HTTP status and a stable machine code alongside the cause.
// Upstream is set when the failure came from an external service and holds
// the status that service answered with.
type Error struct {
	Status   int
	Code     string
	Upstream int
	Err      error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func NotFound(what string) *Error {
	return &Error{Status: http.StatusNotFound, Code: "not_found", Err: fmt.Errorf("%s not found", what)}
}

func Invalid(code string, err error) *Error {
	return &Error{Status: http.StatusBadRequest, Code: code, Err: err}
}

func Unauthorized(code string, err error) *Error {
	return &Error{Status: http.StatusUnauthorized, Code: code, Err: err}
}

// Upstream wraps a failed call to an external service. The response status
// is always 502; the status the service returned is kept in the message.
func Upstream(service string, status int, err error) *Error {
	if err == nil {
		err = errors.New("request failed")
	}
	msg := fmt.Errorf("%s: %w", service, err)
	if status > 0 {
		msg = fmt.Errorf("%s returned %d: %w", service, status, err)
	}
	return &Error{Status: http.StatusBadGateway, Code: service + "_error", Upstream: status, Err: msg}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) && ae != nil {
		return ae, true
	}
	return nil, false
}

// StatusOf maps any error to the HTTP status it should be answered with.
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if ae, ok := As(err); ok && ae.Status != 0 {
		return ae.Status
	}
	return http.StatusInternalServerError
}

// IsNotFound reports whether err is a 404-class error.
func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}
