package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error kinds shared by every service.
const (
	KindValidation  = "validation"
	KindAuth        = "auth"
	KindForbidden   = "forbidden"
	KindNotFound    = "not_found"
	KindConflict    = "conflict"
	KindRateLimited = "rate_limited"
	KindInternal    = "internal"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors of the same kind so callers can use errors.Is against the predefined values.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrValidation         = New(KindValidation, http.StatusBadRequest, "validation failed")
	ErrUnauthorized       = New(KindAuth, http.StatusUnauthorized, "authentication required")
	ErrInvalidCredentials = New(KindAuth, http.StatusUnauthorized, "invalid username or password")
	ErrForbidden          = New(KindForbidden, http.StatusForbidden, "forbidden")
	ErrNotFound           = New(KindNotFound, http.StatusNotFound, "resource not found")
	ErrConflict           = New(KindConflict, http.StatusConflict, "conflict")
	ErrRateLimited        = New(KindRateLimited, http.StatusTooManyRequests, "rate limit exceeded")
	ErrInternal           = New(KindInternal, http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("cache_miss", http.StatusNotFound, "cache miss")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Internal wraps an unexpected failure with a caller-facing message.
func Internal(err error, message string) *Error {
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, message)
}

// Validation wraps a payload failure as a validation error.
func Validation(err error, message string) *Error {
	return Wrap(err, ErrValidation.Code, ErrValidation.Status, message)
}
