// Package apperr defines the error kinds shared by the booking orchestrator.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an orchestrator failure.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindAmbiguous         Kind = "ambiguous"
	KindSlotTaken         Kind = "slot_taken"
	KindRateLimited       Kind = "rate_limited"
	KindTimeout           Kind = "timeout"
	KindInvalidIdentifier Kind = "invalid_identifier"
	KindTenantMismatch    Kind = "tenant_mismatch"
	KindInvalidArgument   Kind = "invalid_argument"
	KindPrecondition      Kind = "precondition_failed"
)

// Error carries a Kind plus a human readable message that is safe to hand
// back to the model.
type Error struct {
	Code    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrNotFound          = &Error{Code: KindNotFound}
	ErrAmbiguous         = &Error{Code: KindAmbiguous}
	ErrSlotTaken         = &Error{Code: KindSlotTaken}
	ErrRateLimited       = &Error{Code: KindRateLimited}
	ErrTimeout           = &Error{Code: KindTimeout}
	ErrInvalidIdentifier = &Error{Code: KindInvalidIdentifier}
	ErrTenantMismatch    = &Error{Code: KindTenantMismatch}
	ErrInvalidArgument   = &Error{Code: KindInvalidArgument}
	ErrPrecondition      = &Error{Code: KindPrecondition}
)

func New(kind Kind, format string, args ...any) error {
	return &Error{Code: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, format string, args ...any) error {
	return &Error{Code: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func NotFound(format string, args ...any) error { return New(KindNotFound, format, args...) }

func Ambiguous(format string, args ...any) error { return New(KindAmbiguous, format, args...) }

func SlotTaken(format string, args ...any) error { return New(KindSlotTaken, format, args...) }

func InvalidIdentifier(format string, args ...any) error {
	return New(KindInvalidIdentifier, format, args...)
}

func TenantMismatch(format string, args ...any) error {
	return New(KindTenantMismatch, format, args...)
}

func InvalidArgument(format string, args ...any) error {
	return New(KindInvalidArgument, format, args...)
}

func Precondition(format string, args ...any) error { return New(KindPrecondition, format, args...) }

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Message returns the user-safe message of err, falling back to err.Error().
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}
