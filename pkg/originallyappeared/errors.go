package originallyappeared

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrRecordNotFound indicates a record was not found
	ErrRecordNotFound = errors.New("record not found")

	// ErrAlreadyRegistered is returned when Register is called twice
	ErrAlreadyRegistered = errors.New("plugin already registered")

	// ErrMissingRepository indicates no meta repository was configured
	ErrMissingRepository = errors.New("meta repository is required")

	// ErrMissingTokens indicates no integrity token service was configured
	ErrMissingTokens = errors.New("token service is required")

	// ErrMissingAuthorizer indicates no authorizer was configured
	ErrMissingAuthorizer = errors.New("authorizer is required")

	// ErrMissingCanonical indicates no default canonical emitter was configured
	ErrMissingCanonical = errors.New("canonical emitter is required")
)

// RecordError represents a failed operation on a record's metadata.
type RecordError struct {
	RecordID uuid.UUID
	Op       string
	Err      error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("metadata operation %s failed for record %s: %v", e.Op, e.RecordID, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
