// AngelaMos | 2026
// errors.go

package core

import (
	"errors"
	"net/http"
)

// Sentinel error kinds. Services and guards wrap these; the HTTP boundary
// maps each kind to a status and an opaque machine code exactly once, in
// kindTable below.
var (
	ErrMissingCredential  = errors.New("missing credential")
	ErrInvalidCredential  = errors.New("invalid credential")
	ErrTokenExpired       = errors.New("token expired")
	ErrSubjectGone        = errors.New("subject gone")
	ErrStaleSession       = errors.New("stale session")
	ErrCredentialMismatch = errors.New("credential mismatch")
	ErrInvalidInput       = errors.New("invalid input")
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not found")
	ErrDuplicateKey       = errors.New("duplicate key")
)

type AppError struct {
	Err     error
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(err error, message string, status int, code string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Code:    code,
		Message: message,
	}
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// kindTable is the single mapping from error kind to HTTP status and opaque
// code. Order matters only in that it is scanned with errors.Is, so wrapped
// kinds resolve to their first match.
var kindTable = []struct {
	kind    error
	status  int
	code    string
	message string
}{
	{ErrMissingCredential, http.StatusUnauthorized, "MISSING_CREDENTIAL", "authentication credential required"},
	{ErrTokenExpired, http.StatusUnauthorized, "TOKEN_EXPIRED", "session token has expired"},
	{ErrInvalidCredential, http.StatusUnauthorized, "INVALID_CREDENTIAL", "session token is invalid"},
	{ErrSubjectGone, http.StatusUnauthorized, "SUBJECT_GONE", "account no longer exists"},
	{ErrStaleSession, http.StatusUnauthorized, "STALE_SESSION", "credentials changed since sign-in"},
	{ErrCredentialMismatch, http.StatusUnauthorized, "CREDENTIAL_MISMATCH", "phone or password is incorrect"},
	{ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT", "request payload is invalid"},
	{ErrForbidden, http.StatusForbidden, "FORBIDDEN", "insufficient permissions"},
	{ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required"},
	{ErrNotFound, http.StatusNotFound, "NOT_FOUND", "resource not found"},
	{ErrDuplicateKey, http.StatusBadRequest, "DUPLICATE_KEY", "resource already exists"},
}

// FromError resolves any error to an AppError. Explicit AppErrors pass
// through, known kinds resolve via kindTable, and everything else is treated
// as non-operational and surfaced as an opaque 500.
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	for _, entry := range kindTable {
		if errors.Is(err, entry.kind) {
			return &AppError{
				Err:     entry.kind,
				Status:  entry.status,
				Code:    entry.code,
				Message: entry.message,
			}
		}
	}

	return &AppError{
		Err:     err,
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL",
		Message: "internal server error",
	}
}

// IsOperational reports whether err maps to a known, user-facing kind.
func IsOperational(err error) bool {
	if IsAppError(err) {
		return true
	}
	for _, entry := range kindTable {
		if errors.Is(err, entry.kind) {
			return true
		}
	}
	return false
}
