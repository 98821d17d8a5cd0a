package user

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Delete when no record exists.
var ErrNotFound = errors.New("user record not found")

// Repository defines the interface for the profile mirror
type Repository interface {
	// Upsert merges the record into the stored one (see Merge), creating it
	// on first sight. Returns the stored result.
	Upsert(ctx context.Context, record Record) (*Record, error)

	// Get retrieves a record by local ID.
	// Returns nil and no error when the record does not exist.
	Get(ctx context.Context, localID string) (*Record, error)

	// Delete removes a record. Returns ErrNotFound when absent.
	Delete(ctx context.Context, localID string) error
}
