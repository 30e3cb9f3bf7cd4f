// Package apierr defines the typed failure outcome every auth flow step
// returns: a status code plus the message the client is allowed to see.
package apierr

import (
	"errors"
	"net/http"
)

type Error struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, message)
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message)
}

func Forbidden(message string) *Error {
	return New(http.StatusForbidden, message)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, message)
}

func Conflict(message string) *Error {
	return New(http.StatusConflict, message)
}

// Locked marks a soft-deleted account: suspended but not removed.
func Locked(message string) *Error {
	return New(http.StatusLocked, message)
}

func Unprocessable(message string) *Error {
	return New(http.StatusUnprocessableEntity, message)
}

// Internal is the generic 500. The underlying fault is for the log,
// never for the client.
func Internal() *Error {
	return New(http.StatusInternalServerError, "Internal server error")
}

// From returns err unchanged when it already carries a status, and
// downgrades anything else to a generic 500.
func From(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Internal()
}
