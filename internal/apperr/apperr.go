// Package apperr holds the client-facing error taxonomy. Services return
// *Error values; handlers turn them into a status code and a {"detail"} body.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindInactiveAccount
	KindForbidden
	KindNotFound
	KindConflict
	KindValidation
	KindBadRequest
)

// Error is a domain failure with a short human-readable detail.
type Error struct {
	Kind   Kind
	Detail string
	// Status overrides the kind's default status code when non-zero.
	Status int
}

func (e *Error) Error() string { return e.Detail }

func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// WithStatus returns a sentinel that carries an explicit status code.
func WithStatus(kind Kind, status int, detail string) *Error {
	return &Error{Kind: kind, Detail: detail, Status: status}
}

// Validation builds a 422 error; used for malformed input.
func Validation(detail string) *Error {
	return New(KindValidation, detail)
}

// HTTPStatus is the status code the error maps to.
func (e *Error) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	switch e.Kind {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindInactiveAccount, KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err carries an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}
