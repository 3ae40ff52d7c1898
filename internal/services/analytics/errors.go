package analytics

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned by a collaborator that has no credentials.
	ErrNotConfigured = errors.New("collaborator not configured")
	// ErrEmptySeries is returned when a remote model is asked to forecast nothing.
	ErrEmptySeries = errors.New("series is empty")
)

// CollaboratorError tags a failure with the collaborator that produced it.
type CollaboratorError struct {
	Collaborator string
	Err          error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s: %v", e.Collaborator, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

func wrap(name string, err error) error {
	if err == nil {
		return nil
	}
	var ce *CollaboratorError
	if errors.As(err, &ce) {
		return err
	}
	return &CollaboratorError{Collaborator: name, Err: err}
}
