package domain

import (
	"errors"
	"fmt"
)

// Failure taxonomy shared by the pipeline and every store adapter. Callers
// classify with errors.Is; adapters wrap the driver error alongside one of these.
var (
	// ErrValidationRejected marks malformed input caught before it reaches the store.
	ErrValidationRejected = errors.New("validation rejected")

	// ErrStoreUnavailable marks a transient or permanent failure reaching the backing store.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrNotFound marks a mutation whose target no longer exists.
	ErrNotFound = errors.New("record not found")

	// ErrPageOutOfRange marks a page request outside [1, totalPages].
	ErrPageOutOfRange = errors.New("page out of range")
)

// ValidationError describes the first field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrValidationRejected, e.Field, e.Reason)
}

// Is reports ValidationError as ErrValidationRejected.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationRejected
}

func rejectField(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
