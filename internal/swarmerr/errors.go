// Package swarmerr defines the sentinel error taxonomy shared by every
// coordination-core component.
package swarmerr

import (
	"errors"
	"fmt"
)

// Sentinel errors for the coordination core's error taxonomy. Callers match
// with errors.Is; component code wraps one of these with fmt.Errorf to add
// identifying detail (task id, pattern, etc.) without introducing a bespoke
// error type.
var (
	// ErrNotFound is returned when an addressed task, subscription, or
	// proposal does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState is returned when an operation is not legal in the
	// record's current lifecycle state.
	ErrInvalidState = errors.New("invalid state")

	// ErrAlreadyClaimed is a distinguished variant of ErrInvalidState for
	// the claim race hot path. It wraps ErrInvalidState too, so a caller
	// checking only for the general kind still catches it.
	ErrAlreadyClaimed = fmt.Errorf("already claimed: %w", ErrInvalidState)

	// ErrCorruptRecord is returned when a persisted record could not be
	// deserialized.
	ErrCorruptRecord = errors.New("corrupt record")

	// ErrInvalidPattern is returned when a subscription pattern is not
	// well-formed.
	ErrInvalidPattern = errors.New("invalid pattern")

	// ErrDimensionMismatch is returned when a signal's embedding does not
	// match a semantic subscription's expected dimension.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrIO is returned for underlying storage or transport failures.
	ErrIO = errors.New("io error")
)

// Kind reports the taxonomy name for err, or "" if err does not wrap one of
// the sentinels above. Used by the CLI and tests to report the taxonomy
// without a type switch.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrAlreadyClaimed):
		return "ALREADY_CLAIMED"
	case errors.Is(err, ErrInvalidState):
		return "INVALID_STATE"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrCorruptRecord):
		return "CORRUPT_RECORD"
	case errors.Is(err, ErrInvalidPattern):
		return "INVALID_PATTERN"
	case errors.Is(err, ErrDimensionMismatch):
		return "DIMENSION_MISMATCH"
	case errors.Is(err, ErrIO):
		return "IO_ERROR"
	default:
		return ""
	}
}
