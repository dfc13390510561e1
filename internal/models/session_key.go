package models

import "fmt"

// SessionKey identifies the set array of one exercise on one day of a plan.
type SessionKey struct {
	PlanID     string `json:"planId"`
	WeekIndex  int    `json:"weekIndex"`
	DayNumber  int    `json:"dayNumber"`
	ExerciseID string `json:"exerciseId"`
}

// String returns the storage form workout-{week}-{day}-{exercise}-{plan}.
func (k SessionKey) String() string {
	return fmt.Sprintf("workout-%d-%d-%s-%s", k.WeekIndex, k.DayNumber, k.ExerciseID, k.PlanID)
}

// DayKeys returns the session keys of every eligible exercise of a day.
func DayKeys(planID string, weekIndex int, day Day) []SessionKey {
	var keys []SessionKey
	for _, ex := range day.EligibleExercises() {
		keys = append(keys, SessionKey{
			PlanID:     planID,
			WeekIndex:  weekIndex,
			DayNumber:  day.Number,
			ExerciseID: ex.ID,
		})
	}
	return keys
}
