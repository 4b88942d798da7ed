// Package apperror defines the error kinds surfaced by the application core
// and how they map to HTTP status codes.
package apperror

import (
	"errors"
	"net/http"
)

// Kind classifies an error for the caller.
type Kind int

// Error kinds
const (
	Unexpected Kind = iota
	Validation
	Duplicate
	NotFound
	Forbidden
	Storage
	Declaration
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Duplicate:
		return "duplicate"
	case NotFound:
		return "not_found"
	case Forbidden:
		return "forbidden"
	case Storage:
		return "storage"
	case Declaration:
		return "declaration"
	default:
		return "unexpected"
	}
}

// Error carries a kind, a user-facing message and the internal cause.
// Message is safe to return to clients, Err is not.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error of the given kind.
func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// NewValidation creates a Validation error.
func NewValidation(message string) *Error {
	return New(Validation, message, nil)
}

// NewDuplicate creates a Duplicate error.
func NewDuplicate(message string) *Error {
	return New(Duplicate, message, nil)
}

// NewNotFound creates a NotFound error.
func NewNotFound(message string) *Error {
	return New(NotFound, message, nil)
}

// NewForbidden creates a Forbidden error.
func NewForbidden(message string) *Error {
	return New(Forbidden, message, nil)
}

// NewStorage wraps an infrastructure failure.
func NewStorage(message string, err error) *Error {
	return New(Storage, message, err)
}

// NewDeclaration wraps a failed results declaration.
func NewDeclaration(message string, err error) *Error {
	return New(Declaration, message, err)
}

// NewUnexpected wraps any other failure.
func NewUnexpected(message string, err error) *Error {
	return New(Unexpected, message, err)
}

// KindOf returns the kind of the first *Error in err's chain, Unexpected
// when there is none.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Unexpected
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the client-safe message of err.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "Internal server error"
}

// HTTPStatus maps a kind to its response status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case Validation:
		return http.StatusBadRequest
	case Duplicate:
		return http.StatusConflict
	case NotFound:
		return http.StatusNotFound
	case Forbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
