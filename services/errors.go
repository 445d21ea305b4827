// Package services holds the check-in business logic: the checkpoint
// registry, the scan engine, the live aggregator, participant onboarding,
// accounts and tickets.
// file: services/errors.go
package services

import (
	"errors"
	"fmt"
	"net/http"

	"go-event-checkin/store"
)

// ErrorKind classifies a service failure.
type ErrorKind int

const (
	KindStorage ErrorKind = iota
	KindNotFound
	KindForbidden
	KindUnauthorized
	KindReentryNotAllowed
	KindValidation
	KindProtectedResource
	KindConflict
)

// Status is the HTTP status a kind maps to.
func (k ErrorKind) Status() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindReentryNotAllowed, KindValidation, KindProtectedResource:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is returned by every service method that fails for a reason the
// caller can act on.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func NotFoundError(msg string) error     { return &Error{Kind: KindNotFound, Message: msg} }
func ForbiddenError(msg string) error    { return &Error{Kind: KindForbidden, Message: msg} }
func UnauthorizedError(msg string) error { return &Error{Kind: KindUnauthorized, Message: msg} }
func ValidationError(msg string) error   { return &Error{Kind: KindValidation, Message: msg} }
func ConflictError(msg string) error     { return &Error{Kind: KindConflict, Message: msg} }

func ReentryNotAllowedError(msg string) error {
	return &Error{Kind: KindReentryNotAllowed, Message: msg}
}

func ProtectedResourceError(msg string) error {
	return &Error{Kind: KindProtectedResource, Message: msg}
}

// StorageError wraps an unexpected persistence failure.
func StorageError(op string, err error) error {
	return &Error{Kind: KindStorage, Message: op, Err: err}
}

// KindOf returns the kind of err, KindStorage for anything unclassified.
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindStorage
}

// IsKind reports whether err is a service error of kind k.
func IsKind(err error, k ErrorKind) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == k
}

// fromStore translates store sentinels. notFound is the message used when
// the row is missing.
func fromStore(op string, err error, notFound string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return NotFoundError(notFound)
	case errors.Is(err, store.ErrConflict):
		return &Error{Kind: KindConflict, Message: op + ": already exists", Err: err}
	default:
		return StorageError(op, err)
	}
}
