package mockapi

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound     = errors.New("mockapi: not found")
	ErrConflict     = errors.New("mockapi: conflict")
	ErrForbidden    = errors.New("mockapi: forbidden")
	ErrInvalid      = errors.New("mockapi: invalid request")
	ErrUnauthorized = errors.New("mockapi: unauthorized")
)

// Error is a failure the handlers render as {success:false,message}.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

func notFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Message: message, Err: ErrNotFound}
}

func conflict(message string) *Error {
	return &Error{Status: http.StatusConflict, Message: message, Err: ErrConflict}
}

func forbidden(message string) *Error {
	return &Error{Status: http.StatusForbidden, Message: message, Err: ErrForbidden}
}

func invalid(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message, Err: ErrInvalid}
}

func unauthorized(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: message, Err: ErrUnauthorized}
}
