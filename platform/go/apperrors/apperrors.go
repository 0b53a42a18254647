package apperrors

import (
	"errors"
	"net/http"
)

// Kinds classify failures across services and map one-to-one onto HTTP status codes.
var (
	ErrValidation     = errors.New("validation error")
	ErrConflict       = errors.New("conflict")
	ErrNotFound       = errors.New("not found")
	ErrAuthentication = errors.New("authentication failed")
	ErrAuthorization  = errors.New("forbidden")
	ErrInternal       = errors.New("internal error")
)

// Error carries a kind, a caller-safe message, and an optional cause that is only logged.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.Error()
	}
}

// Is matches on the error kind so callers can use errors.Is(err, apperrors.ErrConflict).
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(message string) error { return &Error{Kind: ErrValidation, Message: message} }

func Conflict(message string) error { return &Error{Kind: ErrConflict, Message: message} }

func NotFound(message string) error { return &Error{Kind: ErrNotFound, Message: message} }

func Authentication(message string) error { return &Error{Kind: ErrAuthentication, Message: message} }

func Authorization(message string) error { return &Error{Kind: ErrAuthorization, Message: message} }

// Internal wraps an unexpected failure. The message is never shown to callers.
func Internal(message string, cause error) error {
	return &Error{Kind: ErrInternal, Message: message, Err: cause}
}

// StatusCode returns the HTTP status for err; unclassified errors are 500.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAuthorization):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the text safe to send to a caller. Internal and unclassified
// errors collapse to a fixed message.
func PublicMessage(err error) string {
	if StatusCode(err) == http.StatusInternalServerError {
		return "Internal server error"
	}
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return err.Error()
}
