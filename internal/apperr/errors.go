// Package apperr defines the failure kinds surfaced to API callers.
package apperr

import (
	"errors"
	"fmt"
)

// Failure kinds. Match them with errors.Is.
var (
	ErrNotFound             = errors.New("not found")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrNotAllowedValue      = errors.New("not allowed value")
	ErrFileUploadFailed     = errors.New("file upload failed")
	ErrSearchResultNotExist = errors.New("search result does not exist")
	ErrInvalidRequest       = errors.New("invalid request")
)

// Error carries a failure kind, a caller-facing message and the underlying cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

// New returns an Error of the given kind.
func New(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an Error of the given kind wrapping cause.
func Wrap(kind error, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: cause}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the failure kind.
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

// Message returns the caller-facing message of err, or fallback when err is not an *Error.
func Message(err error, fallback string) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
