// Package apperror carries the error taxonomy shared by services and
// handlers: a kind plus a user-facing message. Handlers map kinds to
// HTTP statuses at the response boundary.
package apperror

import (
	"errors"
	"net/http"
)

type Kind int

const (
	Internal Kind = iota
	NotFound
	BadRequest
	Unauthorized
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func NewNotFound(message string) *Error     { return New(NotFound, message) }
func NewBadRequest(message string) *Error   { return New(BadRequest, message) }
func NewUnauthorized(message string) *Error { return New(Unauthorized, message) }
func NewInternal(message string) *Error     { return New(Internal, message) }

// KindOf returns the kind of err, or Internal for any error that is
// not an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Internal
}

// Status maps an error to the HTTP status the boundary should reply
// with.
func Status(err error) int {
	switch KindOf(err) {
	case NotFound:
		return http.StatusNotFound
	case BadRequest:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
