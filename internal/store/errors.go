package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist. The
	// entity-specific variants below wrap it, so errors.Is(err, ErrNotFound)
	// matches all of them.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate of
	// a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specifics.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrUpdateFailed is returned when an update violates constraints or
	// otherwise cannot be applied.
	ErrUpdateFailed = errors.New("update failed")

	// ErrDeleteFailed is returned when a delete cannot be applied, for
	// example because the entity is referenced by other entities.
	ErrDeleteFailed = errors.New("delete failed")

	// ErrTransactionFailed is returned when a transaction fails to commit or
	// an operation within it fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// Entity-specific "not found" errors.

	ErrUserNotFound    = fmt.Errorf("%w: user", ErrNotFound)
	ErrStudyNotFound   = fmt.Errorf("%w: study", ErrNotFound)
	ErrResultNotFound  = fmt.Errorf("%w: result", ErrNotFound)
	ErrInsightNotFound = fmt.Errorf("%w: insight", ErrNotFound)
	ErrTaskNotFound    = fmt.Errorf("%w: task", ErrNotFound)

	// ErrEmailExists indicates a user with the given email already exists.
	ErrEmailExists = fmt.Errorf("%w: email", ErrDuplicate)

	// ErrDuplicateParticipant indicates the participant has already submitted
	// a result for the study.
	ErrDuplicateParticipant = fmt.Errorf("%w: participant result", ErrDuplicate)
)

// IsNotFoundError reports whether the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError reports whether the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// StoreError carries entity and operation context alongside the underlying
// error.
type StoreError struct {
	Entity    string
	Operation string
	Message   string
	Err       error
}

func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation on %s failed: %s: %v", e.Operation, e.Entity, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a StoreError with the given context.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{Entity: entity, Operation: operation, Message: message, Err: err}
}
