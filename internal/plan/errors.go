package plan

import (
	"errors"
	"fmt"
)

var (
	// ErrNavigation marks a recoverable failure to compute the next day.
	ErrNavigation = errors.New("plan navigation failed")
	// ErrNoStartingPosition is returned when a plan has no day at all.
	ErrNoStartingPosition = errors.New("no valid starting position")
)

// MalformedPlanError is fatal for the plan it describes.
type MalformedPlanError struct {
	PlanID string
	Field  string
	Err    error
}

func (e *MalformedPlanError) Error() string {
	return fmt.Sprintf("plan %s: malformed %s: %v", e.PlanID, e.Field, e.Err)
}

func (e *MalformedPlanError) Unwrap() error { return e.Err }

// NavigationError describes where the navigator lost its way.
type NavigationError struct {
	WeekIndex int
	DayNumber int
	Reason    string
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("week %d day %d: %s", e.WeekIndex, e.DayNumber, e.Reason)
}

func (e *NavigationError) Is(target error) bool { return target == ErrNavigation }
