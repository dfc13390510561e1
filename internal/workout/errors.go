package workout

import (
	"errors"
	"fmt"
)

var (
	// ErrConfirmationRequired is returned when a skip was not confirmed.
	ErrConfirmationRequired = errors.New("confirmation required")
	// ErrUnknownExercise is returned for a key that does not address an
	// eligible exercise of the plan.
	ErrUnknownExercise = errors.New("exercise not found in plan")
	// ErrDayIncomplete is returned by FinishDay while sets are still pending.
	ErrDayIncomplete = errors.New("day is not complete")
	// ErrTimerRunning is returned by FinishDay while an exercise of the day
	// still has a timer.
	ErrTimerRunning = errors.New("a timer is still running")
	// ErrDayCommitted is returned when mutating an exercise whose sets are
	// already in the durable store.
	ErrDayCommitted = errors.New("exercise already committed")
)

// PersistenceError wraps a failed store write. Cached state is left intact,
// so the operation can be retried.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
