package session

import "time"

// TimerKind distinguishes the workout timer from the rest timer.
type TimerKind string

const (
	TimerWorkout TimerKind = "workout"
	TimerRest    TimerKind = "rest"
)

// Timer is the single running timer of an exercise instance. It is persisted
// together with the set array, so elapsed time survives a reload.
type Timer struct {
	Kind       TimerKind `json:"kind"`
	SetID      int       `json:"setId"`
	ExerciseID string    `json:"exerciseId"`
	StartedAt  time.Time `json:"startedAt"`
}

// Elapsed returns whole seconds since the timer started.
func (t *Timer) Elapsed(now time.Time) int {
	if t == nil || now.Before(t.StartedAt) {
		return 0
	}
	return int(now.Sub(t.StartedAt) / time.Second)
}
