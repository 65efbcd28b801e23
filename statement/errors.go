package statement

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingStatementPeriod is returned when the text carries no "STATEMENT PERIOD:" line.
	ErrMissingStatementPeriod = errors.New("statement period not found")

	// ErrAmbiguousStatementPeriod is returned when more than one period line is present.
	ErrAmbiguousStatementPeriod = errors.New("more than one statement period found")

	// ErrInvalidPeriod is returned when a period ends before it starts.
	ErrInvalidPeriod = errors.New("statement period ends before it starts")

	// ErrInvalidDate is returned when a month/day token is not a real calendar date.
	ErrInvalidDate = errors.New("invalid transaction date")

	// ErrDateOutsidePeriod is returned when a resolved transaction date falls
	// outside the statement period.
	ErrDateOutsidePeriod = errors.New("transaction date outside statement period")
)

// PersistenceError wraps a failure reported by the persistence collaborator.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist transactions: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
