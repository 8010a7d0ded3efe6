package store

import (
	"errors"
	"fmt"
)

// NetworkError indicates a transient transport failure: connection refused,
// timeout, or a 5xx response. Eligible for retry under the caller's policy;
// the coordinator responds by reverting optimistic state.
type NetworkError struct {
	Op         string
	StatusCode int // 0 when the request never produced a response
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: server error (status %d)", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// AuthError is fatal to the current session: the credential was rejected.
// Forces channel teardown and surfaces to the auth collaborator. Never
// retried automatically.
type AuthError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: authentication failed (status %d): %s", e.Op, e.StatusCode, e.Message)
}

// ValidationError is a user-input problem reported by the server or caught
// client-side before the request. Surfaced as-is, never retried.
type ValidationError struct {
	Op      string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// ConflictError means server state diverged from the optimistic assumption.
// Resolved by forcing a full refetch, not a merge.
type ConflictError struct {
	Op      string
	Message string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: conflict: %s", e.Op, e.Message)
}

// IsNetworkError checks if an error is a transient transport failure
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsAuthError checks if an error is fatal to the current session
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsValidationError checks if an error is a user-input problem
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConflictError checks if an error signals divergent server state
func IsConflictError(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
