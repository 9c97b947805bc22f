// Package apperr is the error taxonomy shared by services and the HTTP layer.
package apperr

import (
	"errors"
	"net/http"

	pkgerrors "github.com/pkg/errors"
)

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindValidation
	KindInvalidOrExpired
	KindUnauthenticated
	KindForbidden
)

// Messages surfaced for kinds whose details must not reach the client.
const (
	InternalMessage         = "Something went wrong"
	InvalidOrExpiredMessage = "Invalid or expired code"
	UnauthenticatedMessage  = "Not authenticated"
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindInvalidOrExpired:
		return "invalid_or_expired"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

func (k Kind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation, KindInvalidOrExpired:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string // per-field messages for KindValidation
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Validation(msg string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

// Field is a Validation error for a single field.
func Field(field, msg string) *Error {
	return Validation(msg, map[string]string{field: msg})
}

func InvalidOrExpired() *Error {
	return &Error{Kind: KindInvalidOrExpired, Message: InvalidOrExpiredMessage}
}

func Unauthenticated() *Error {
	return &Error{Kind: KindUnauthenticated, Message: UnauthenticatedMessage}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// Internal wraps err with a stack trace. msg is for logs only.
func Internal(err error, msg string) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: pkgerrors.Wrap(err, msg)}
}

// KindOf classifies err. Errors outside the taxonomy are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
