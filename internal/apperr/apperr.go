// Package apperr carries the catalog's error taxonomy: every business error
// has a kind (which decides the HTTP status class) and a stable machine code
// distinct from its human message.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error into a status class.
type Kind int

const (
	KindValidation Kind = iota // 400
	KindNotFound               // 404
	KindForbidden              // 403
	KindConflict               // 409
	KindInternal               // 500
)

// Error is a business error with a stable machine-readable code.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

// New builds an error of the given kind.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Validation(code, message string) *Error { return New(KindValidation, code, message) }
func NotFound(code, message string) *Error   { return New(KindNotFound, code, message) }
func Forbidden(code, message string) *Error  { return New(KindForbidden, code, message) }
func Conflict(code, message string) *Error   { return New(KindConflict, code, message) }

// Is lets errors.Is match two *Error values by code, so services can expose
// package-level sentinels and still wrap them with context.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// CodeOf returns the machine code of err, or empty when err is not an *Error.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HTTPStatus maps an error to its response status. Unknown errors are
// internal server errors.
func HTTPStatus(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
