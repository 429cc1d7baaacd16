package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a uniqueness conflict.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrUnauthenticated indicates no principal could be resolved.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden indicates the principal lacks a required permission.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotProvisioned indicates a verified identity with no local account.
	ErrNotProvisioned = errors.New("account not provisioned")
	// ErrSessionUnavailable indicates the session store could not be reached.
	// This is a deployment fault, not an authentication failure.
	ErrSessionUnavailable = errors.New("session store unavailable")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// InvalidInputError reports a malformed field in a request or model.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

// DatabaseError wraps a storage statement failure with the failing operation.
// It is never swallowed: a hidden write failure on a security table is worse
// than a visible one.
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("database: %s: %v", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error { return e.Err }

// UserSafeMessage returns a message suitable for API clients. Database
// diagnostics stay in the logs.
func UserSafeMessage(err error) string {
	var dbErr *DatabaseError
	if errors.As(err, &dbErr) {
		return "a storage error occurred"
	}
	return err.Error()
}
