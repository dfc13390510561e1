package models

import "encoding/json"

// RawPlan is a plan as persisted by the catalog. The JSON sub-fields may be
// stored either natively or as JSON-encoded strings.
type RawPlan struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	TotalWeeks      int             `json:"totalWeeks"`
	DaysPerWeek     int             `json:"daysPerWeek"`
	WorkoutPlan     json.RawMessage `json:"workoutPlan"`
	ExerciseHistory json.RawMessage `json:"exerciseHistory,omitempty"`
	DayNames        json.RawMessage `json:"dayNames,omitempty"`
	WeekNames       json.RawMessage `json:"weekNames,omitempty"`
}

// Plan is the normalized traversal structure of a multi-week program.
type Plan struct {
	ID          string                    `json:"id"`
	Name        string                    `json:"name"`
	TotalWeeks  int                       `json:"totalWeeks"`
	DaysPerWeek int                       `json:"daysPerWeek"`
	Weeks       []Week                    `json:"weeksExercise"`
	History     map[string][]HistoryEntry `json:"exerciseHistory,omitempty"`
}

// Week is one week of a plan. Index is 0-based.
type Week struct {
	Index int    `json:"weekIndex"`
	Name  string `json:"weekName"`
	Days  []Day  `json:"days"`
}

// Day is one training day. Number is 1-based and unique within its week, but
// not necessarily contiguous.
type Day struct {
	Number    int        `json:"dayNumber"`
	Name      string     `json:"dayName"`
	Exercises []Exercise `json:"exercises"`
}

// Exercise is a plan-bound exercise with its configured set count.
type Exercise struct {
	ID           string   `json:"exerciseId"`
	Name         string   `json:"name"`
	BodyPart     string   `json:"bodyPart"`
	Equipment    string   `json:"equipment"`
	GifURL       string   `json:"gifUrl"`
	Instructions []string `json:"instructions,omitempty"`
	Sets         int      `json:"sets"`
}

// Eligible reports whether the exercise can be tracked in a session.
func (e Exercise) Eligible() bool {
	return e.Name != "" && e.BodyPart != "" && e.GifURL != ""
}

// EligibleExercises returns the day's trackable exercises in plan order.
func (d Day) EligibleExercises() []Exercise {
	out := make([]Exercise, 0, len(d.Exercises))
	for _, ex := range d.Exercises {
		if ex.Eligible() {
			out = append(out, ex)
		}
	}
	return out
}

// Position points at one day of a plan. It doubles as the durable progress
// pointer and as the navigator's next-day result.
type Position struct {
	WeekIndex int    `json:"currentWeekIndex"`
	DayNumber int    `json:"currentDayNumber"`
	WeekName  string `json:"weekName"`
	DayName   string `json:"dayName"`
}

// CatalogExercise is an entry of the static exercise metadata catalog.
type CatalogExercise struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	BodyPart     string   `json:"bodyPart"`
	Equipment    string   `json:"equipment"`
	GifURL       string   `json:"gifUrl"`
	Instructions []string `json:"instructions"`
}
