package models

import (
	"time"

	"github.com/google/uuid"
)

// SetHistoryRow is a row for the set_history table, appended when a day is
// committed to the durable store.
type SetHistoryRow struct {
	BatchID    uuid.UUID
	UserID     int
	PlanID     string
	WeekIndex  int
	DayNumber  int
	ExerciseID string
	SetNumber  int
	SessionDay time.Time
	Weight     *float64
	Reps       *int
	Skipped    bool
}

// User is an identity known to the service.
type User struct {
	ID          int    `json:"id"`
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
}
