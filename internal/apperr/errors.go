// Package apperr defines the error taxonomy shared by the services, the auth
// middleware and the HTTP handlers.
package apperr

import (
	"errors"

	"github.com/rs/zerolog"
	"github.com/samber/oops"
)

// Sentinel errors. Callers wrap them with oops to add a code and context and
// test for them with errors.Is.
var (
	ErrValidation     = errors.New("validation failed")
	ErrConflict       = errors.New("resource already exists")
	ErrAuthentication = errors.New("invalid email or password")
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenExpired   = errors.New("token has expired")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
	ErrInternal       = errors.New("internal server error")
)

// ValidationError lists per-field messages for a rejected input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error()
}

// Unwrap lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Validation builds a ValidationError from a field map.
func Validation(fields map[string]string) error {
	return &ValidationError{Fields: fields}
}

// FieldsOf returns the field messages carried by err, or nil.
func FieldsOf(err error) map[string]string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Fields
	}
	return nil
}

// Log writes err to the zerolog event chain, expanding the oops code and
// context when present.
func Log(ev *zerolog.Event, err error) *zerolog.Event {
	if oopsErr, ok := oops.AsOops(err); ok {
		ev = ev.Str("error", oopsErr.Error())
		if code := oopsErr.Code(); code != nil {
			ev = ev.Interface("code", code)
		}
		if ctx := oopsErr.Context(); len(ctx) > 0 {
			ev = ev.Interface("context", ctx)
		}
		return ev
	}
	return ev.Err(err)
}
