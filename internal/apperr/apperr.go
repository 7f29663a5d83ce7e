// Package apperr defines status-carrying errors shared by handlers, services,
// and the transaction manager. Callers branch on the status code rather than
// matching error strings.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is an error with a client-facing HTTP status and detail message.
// The wrapped cause (if any) is internal and never sent to clients.
type Error struct {
	Status int
	Detail string
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Detail, e.cause)
	}
	return e.Detail
}

func (e *Error) Unwrap() error { return e.cause }

// New returns an Error with the given status and detail.
func New(status int, detail string) *Error {
	return &Error{Status: status, Detail: detail}
}

// Unauthorized returns a 401 Error with the given detail.
func Unauthorized(detail string) *Error {
	return &Error{Status: http.StatusUnauthorized, Detail: detail}
}

// BadRequest returns a 400 Error with the given detail.
func BadRequest(detail string) *Error {
	return &Error{Status: http.StatusBadRequest, Detail: detail}
}

// NotFound returns a 404 Error with the given detail.
func NotFound(detail string) *Error {
	return &Error{Status: http.StatusNotFound, Detail: detail}
}

// Internal returns a 500 Error wrapping cause. The cause appears in logs only.
func Internal(detail string, cause error) *Error {
	return &Error{Status: http.StatusInternalServerError, Detail: detail, cause: cause}
}

// FromError returns the *Error in err's chain and true, or nil and false.
func FromError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// StatusOf returns the client-facing status for err: the carried status when
// err is an Error, 500 otherwise.
func StatusOf(err error) int {
	if e, ok := FromError(err); ok {
		return e.Status
	}
	return http.StatusInternalServerError
}

// DetailOf returns the client-facing detail for err. Non-Error values map to a
// generic message so internals never leak into response bodies.
func DetailOf(err error) string {
	if e, ok := FromError(err); ok {
		return e.Detail
	}
	return "Internal server error."
}
