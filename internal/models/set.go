package models

import (
	"encoding/json"
	"fmt"
)

// SetState is the lifecycle state of a single set.
type SetState string

const (
	SetLocked    SetState = "locked"
	SetActive    SetState = "active"
	SetRunning   SetState = "running"
	SetResting   SetState = "resting"
	SetEditing   SetState = "editing"
	SetCompleted SetState = "completed"
	SetSkipped   SetState = "skipped"
	SetDeleted   SetState = "deleted"
)

// Set is one physical set attempt within an exercise instance.
type Set struct {
	ID           int      `json:"id"`
	Weight       string   `json:"weight"`
	Reps         string   `json:"reps"`
	Duration     string   `json:"duration"`
	Rest         string   `json:"rest"`
	State        SetState `json:"state"`
	Date         string   `json:"date"`
	ExerciseID   string   `json:"exerciseId"`
	SkippedDates []string `json:"skippedDates"`
}

// IsCompleted reports whether the set has been logged. A resting set was
// completed; only its rest timer is still running.
func (s Set) IsCompleted() bool {
	return s.State == SetCompleted || s.State == SetResting
}

// IsTerminal reports whether the set is completed or skipped.
func (s Set) IsTerminal() bool {
	return s.IsCompleted() || s.State == SetSkipped
}

// IsPending reports whether the set can still become active.
func (s Set) IsPending() bool {
	return !s.IsTerminal() && s.State != SetDeleted
}

// wireSet is the document representation of a Set. It carries the legacy
// boolean flags next to the state so older readers keep working.
type wireSet struct {
	ID                int      `json:"id"`
	Weight            string   `json:"weight"`
	Reps              string   `json:"reps"`
	Duration          string   `json:"duration"`
	Rest              string   `json:"rest"`
	State             SetState `json:"state,omitempty"`
	IsCompleted       bool     `json:"isCompleted"`
	IsActive          bool     `json:"isActive"`
	IsEditing         bool     `json:"isEditing"`
	IsDurationRunning bool     `json:"isDurationRunning"`
	IsRestRunning     bool     `json:"isRestRunning"`
	Date              string   `json:"date"`
	ExerciseID        string   `json:"exerciseId"`
	Skipped           bool     `json:"skipped"`
	SkippedDates      []string `json:"skippedDates"`
	IsDeleted         bool     `json:"isDeleted"`
}

// MarshalJSON implements json.Marshaler.
func (s Set) MarshalJSON() ([]byte, error) {
	w := wireSet{
		ID:                s.ID,
		Weight:            s.Weight,
		Reps:              s.Reps,
		Duration:          s.Duration,
		Rest:              s.Rest,
		State:             s.State,
		IsCompleted:       s.IsCompleted(),
		IsActive:          s.State == SetActive || s.State == SetRunning || s.State == SetEditing,
		IsEditing:         s.State == SetEditing,
		IsDurationRunning: s.State == SetRunning,
		IsRestRunning:     s.State == SetResting,
		Date:              s.Date,
		ExerciseID:        s.ExerciseID,
		Skipped:           s.State == SetSkipped,
		SkippedDates:      s.SkippedDates,
		IsDeleted:         s.State == SetDeleted,
	}
	if w.SkippedDates == nil {
		w.SkippedDates = []string{}
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler. Documents written before the
// state field existed are decoded from their boolean flags.
func (s *Set) UnmarshalJSON(data []byte) error {
	var w wireSet
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decoding set: %w", err)
	}
	*s = Set{
		ID:           w.ID,
		Weight:       w.Weight,
		Reps:         w.Reps,
		Duration:     w.Duration,
		Rest:         w.Rest,
		State:        w.State,
		Date:         w.Date,
		ExerciseID:   w.ExerciseID,
		SkippedDates: w.SkippedDates,
	}
	if s.State == "" {
		s.State = stateFromFlags(w)
	}
	return nil
}

func stateFromFlags(w wireSet) SetState {
	switch {
	case w.IsDeleted:
		return SetDeleted
	case w.Skipped:
		return SetSkipped
	case w.IsRestRunning:
		return SetResting
	case w.IsDurationRunning:
		return SetRunning
	case w.IsEditing:
		return SetEditing
	case w.IsCompleted:
		return SetCompleted
	case w.IsActive:
		return SetActive
	default:
		return SetLocked
	}
}

// VisibleSets returns the sets that are not soft-deleted.
func VisibleSets(sets []Set) []Set {
	out := make([]Set, 0, len(sets))
	for _, s := range sets {
		if s.State != SetDeleted {
			out = append(out, s)
		}
	}
	return out
}

// HistoryEntry is one completed or skipped set, used for previous-record
// display and progress reporting.
type HistoryEntry struct {
	Date       string `json:"date"`
	ExerciseID string `json:"exerciseId"`
	SetID      int    `json:"setId,omitempty"`
	Weight     string `json:"weight,omitempty"`
	Reps       string `json:"reps,omitempty"`
	Skipped    bool   `json:"skipped"`
}
