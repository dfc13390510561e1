package session

import (
	"errors"
	"fmt"
)

var (
	ErrTimerActive    = errors.New("a timer is running")
	ErrNoTimer        = errors.New("no timer is running")
	ErrInvalidState   = errors.New("set is not in a state that allows this action")
	ErrMissingInput   = errors.New("weight and reps are required")
	ErrInvalidNumber  = errors.New("value must be a number")
	ErrUnknownField   = errors.New("unknown field")
	ErrAlreadySkipped = errors.New("exercise is skipped")
	ErrLastSet        = errors.New("cannot delete the last set")
	ErrUnknownSet     = errors.New("set not found")
)

// ValidationError reports a rejected transition. The exercise is left
// unchanged whenever one is returned.
type ValidationError struct {
	Op    string
	SetID int
	Err   error
}

func (e *ValidationError) Error() string {
	if e.SetID > 0 {
		return fmt.Sprintf("%s set %d: %v", e.Op, e.SetID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(op string, setID int, err error) error {
	return &ValidationError{Op: op, SetID: setID, Err: err}
}
