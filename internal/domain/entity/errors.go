package entity

import (
	"errors"
	"fmt"
)

// Placement failure kinds. Callers inspect these with errors.Is; every one
// of them means the transaction was rolled back with no side effects.
var (
	// ErrProductNotFound is returned when the requested product row does not exist.
	ErrProductNotFound = errors.New("product not found")

	// ErrInsufficientStock is returned when the locked stock read shows fewer
	// units than requested.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrMissingPrice is returned when the product has no unit price set.
	ErrMissingPrice = errors.New("missing price")
)

// StorageError wraps any underlying store failure (lock wait timeout,
// constraint violation, connectivity loss). The original cause is available
// via errors.Unwrap.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps err as a StorageError for the given operation.
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}
