package errors

import (
	"errors"
	"fmt"
)

// Validation errors. These are returned before the store is touched.
var (
	ErrDegeneratePartitioning = errors.New("partition count must be at least 1")
	ErrRatingOutOfRange       = errors.New("rating must be between 0 and 5")
	ErrNoPartitionsExist      = errors.New("no partitions exist for scheme")
	ErrPartitionsExist        = errors.New("partitions already exist for scheme")
	ErrPartitionCountMismatch = errors.New("partition count does not match the store")
	ErrUnknownScheme          = errors.New("unknown partition scheme")
	ErrInvalidOrdinal         = errors.New("ordinal must be at least 1")
	ErrInvalidIdentifier      = errors.New("invalid table identifier")
	ErrMalformedRecord        = errors.New("malformed rating record")
	ErrUnsupportedDriver      = errors.New("unsupported database driver")
	ErrMissingRequiredFields  = errors.New("missing required fields")
)

// StoreError wraps a failure reported by the relational store. The enclosing
// transaction has already been rolled back when a StoreError is returned.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError wraps err with the failing operation. A nil err yields nil.
func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// MalformedRecordError reports the line of the ratings file that failed to parse.
func MalformedRecordError(line int, reason string) error {
	return fmt.Errorf("%w: line %d: %s", ErrMalformedRecord, line, reason)
}

func ConfigNotSetError(config string) error {
	return fmt.Errorf("the %s setting must be set", config)
}
