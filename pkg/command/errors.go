package command

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by Context.
var (
	ErrNotConnected    = errors.New("not connected to database")
	ErrCannotUndo      = errors.New("nothing to undo")
	ErrCannotRedo      = errors.New("nothing to redo")
	ErrNoObjectManager = errors.New("no object manager registered")
	ErrInvalidCommand  = errors.New("invalid command")
	ErrMergeCycle      = errors.New("merge chain forms a cycle")
	ErrSaveCanceled    = errors.New("save canceled")
)

// ValidationError is returned by SaveChanges when a pending command fails
// validation. Nothing was executed.
type ValidationError struct {
	Command string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %q: %v", e.Command, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// PersistError is returned by SaveChanges when a persist action fails.
// Actions executed before the failure stay executed.
type PersistError struct {
	Command string
	Action  PersistAction
	Err     error
}

func (e *PersistError) Error() string {
	if e.Action.Title == "" {
		return fmt.Sprintf("failed to persist %q: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("failed to persist %q (%s): %v", e.Command, e.Action.Title, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}
