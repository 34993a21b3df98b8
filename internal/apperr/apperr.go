// Package apperr defines the error kinds the HTTP layer maps onto status
// codes. Services wrap these with fmt.Errorf("...: %w", ...) so handlers can
// classify failures with errors.Is without parsing messages.
package apperr

import "errors"

var (
	// ErrNotFound means the referenced challenge or user does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized means identity resolution failed.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrConflict means a concurrent mutation was detected; retried
	// internally before being surfaced as ErrInternal.
	ErrConflict = errors.New("conflict")

	// ErrInternal covers storage failures and data-integrity faults. No
	// partial state change is ever committed when it is returned.
	ErrInternal = errors.New("internal error")
)
