// Package apperror defines the domain error taxonomy shared by every layer.
//
// Stores and services return *AppError values that wrap one of the sentinel
// kinds below. The HTTP layer inspects the kind with errors.Is and turns it
// into a status code; anything that is not an *AppError is treated as an
// internal failure and never shown to the client.
package apperror

import (
	"errors"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation error")
	ErrConflict           = errors.New("conflict")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type AppError struct {
	Err     error  // sentinel kind
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	ID      string // Optional: id of the missing record, for logs only
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound builds "<Resource> not found". resource must not be empty.
//
// It is also returned when the record exists but belongs to someone
// else, so callers cannot probe for other users' ids.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: strings.ToUpper(resource[:1]) + resource[1:] + " not found",
		ID:      id,
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// DuplicateUser reports an attempt to register an email that already has an account.
func DuplicateUser() *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: "User already exists",
		Field:   "email",
	}
}

// DuplicateTag reports that a note already carries the tag being added.
func DuplicateTag() *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: "Tag already exists",
		Field:   "tag",
	}
}

// Unauthenticated is returned by the auth gate for any token problem.
func Unauthenticated(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: message,
	}
}

// InvalidCredentials is deliberately identical for "no such email" and
// "wrong password".
func InvalidCredentials() *AppError {
	return &AppError{
		Err:     ErrInvalidCredentials,
		Message: "Invalid credentials",
	}
}
