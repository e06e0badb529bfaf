package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrCollision if an item already exists within the store.
	ErrCollision = errors.New("item already exists")

	ErrNotFound = errors.New("not found")

	// ErrInvalidRecord if a record is missing its run id or destination.
	ErrInvalidRecord = errors.New("invalid record")
)

// ValidateCopy checks the fields every store requires.
func ValidateCopy(record CopyRecord) error {
	if record.RunID == "" {
		return fmt.Errorf("%w: missing run id", ErrInvalidRecord)
	}
	if record.Destination == "" {
		return fmt.Errorf("%w: missing destination", ErrInvalidRecord)
	}
	return nil
}

func ValidateRun(run RunRecord) error {
	if run.RunID == "" {
		return fmt.Errorf("%w: missing run id", ErrInvalidRecord)
	}
	return nil
}
