// Package plan turns stored plan definitions into a traversal structure and
// walks it day by day.
package plan

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/claude/repcoach/internal/models"
)

// DefaultSets is used when an exercise carries no usable set configuration.
const DefaultSets = 3

type rawWeek struct {
	WeekIndex *int     `json:"weekIndex"`
	WeekName  string   `json:"weekName"`
	Days      []rawDay `json:"days"`
}

type rawDay struct {
	DayNumber *int          `json:"dayNumber"`
	DayName   string        `json:"dayName"`
	Exercises []rawExercise `json:"exercises"`
}

type rawExercise struct {
	ExerciseID      string          `json:"exerciseId"`
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	BodyPart        string          `json:"bodyPart"`
	Equipment       string          `json:"equipment"`
	GifURL          string          `json:"gifUrl"`
	Instructions    []string        `json:"instructions"`
	WeeklySetConfig json.RawMessage `json:"weeklySetConfig"`
}

type setConfig struct {
	Sets int `json:"sets"`
}

// Transform decodes a stored plan into its typed structure. A workoutPlan
// that does not decode to an array is a MalformedPlanError.
func Transform(raw models.RawPlan) (*models.Plan, error) {
	var weeks []rawWeek
	if err := decodeField(raw.WorkoutPlan, &weeks); err != nil {
		return nil, &MalformedPlanError{PlanID: raw.ID, Field: "workoutPlan", Err: err}
	}
	if weeks == nil {
		return nil, &MalformedPlanError{PlanID: raw.ID, Field: "workoutPlan", Err: errors.New("not an array")}
	}

	weekNames, err := decodeNames(raw.WeekNames)
	if err != nil {
		return nil, &MalformedPlanError{PlanID: raw.ID, Field: "weekNames", Err: err}
	}
	dayNames, err := decodeNames(raw.DayNames)
	if err != nil {
		return nil, &MalformedPlanError{PlanID: raw.ID, Field: "dayNames", Err: err}
	}
	history, err := decodeHistory(raw.ExerciseHistory)
	if err != nil {
		return nil, &MalformedPlanError{PlanID: raw.ID, Field: "exerciseHistory", Err: err}
	}

	p := &models.Plan{
		ID:          raw.ID,
		Name:        raw.Name,
		TotalWeeks:  raw.TotalWeeks,
		DaysPerWeek: raw.DaysPerWeek,
		Weeks:       make([]models.Week, 0, len(weeks)),
		History:     history,
	}

	for i, rw := range weeks {
		idx := i
		if rw.WeekIndex != nil {
			idx = *rw.WeekIndex
		}
		w := models.Week{Index: idx, Name: rw.WeekName}
		if w.Name == "" {
			w.Name = weekNames.lookup(idx, idx+1, fmt.Sprintf("Week %d", idx+1))
		}
		for j, rd := range rw.Days {
			num := j + 1
			if rd.DayNumber != nil {
				num = *rd.DayNumber
			}
			d := models.Day{Number: num, Name: rd.DayName}
			if d.Name == "" {
				d.Name = dayNames.lookup(num-1, num, fmt.Sprintf("Day %d", num))
			}
			for _, re := range rd.Exercises {
				d.Exercises = append(d.Exercises, re.toExercise(idx))
			}
			w.Days = append(w.Days, d)
		}
		p.Weeks = append(p.Weeks, w)
	}

	sort.SliceStable(p.Weeks, func(a, b int) bool { return p.Weeks[a].Index < p.Weeks[b].Index })
	if p.TotalWeeks <= 0 {
		p.TotalWeeks = len(p.Weeks)
	}
	return p, nil
}

func (re rawExercise) toExercise(weekIndex int) models.Exercise {
	id := re.ExerciseID
	if id == "" {
		id = re.ID
	}
	return models.Exercise{
		ID:           id,
		Name:         re.Name,
		BodyPart:     re.BodyPart,
		Equipment:    re.Equipment,
		GifURL:       re.GifURL,
		Instructions: re.Instructions,
		Sets:         configuredSets(re.WeeklySetConfig, weekIndex),
	}
}

// configuredSets accepts either a single {sets} object or one object per week.
func configuredSets(raw json.RawMessage, weekIndex int) int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return DefaultSets
	}
	var cfg setConfig
	if raw[0] == '[' {
		var perWeek []setConfig
		if err := json.Unmarshal(raw, &perWeek); err != nil || len(perWeek) == 0 {
			return DefaultSets
		}
		if weekIndex >= 0 && weekIndex < len(perWeek) {
			cfg = perWeek[weekIndex]
		} else {
			cfg = perWeek[len(perWeek)-1]
		}
	} else if err := json.Unmarshal(raw, &cfg); err != nil {
		return DefaultSets
	}
	if cfg.Sets < 1 {
		return DefaultSets
	}
	return cfg.Sets
}

// decodeField unmarshals raw into dst, first unwrapping a JSON string if the
// field was stored string-encoded. Absent fields leave dst untouched.
func decodeField(raw json.RawMessage, dst any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		if s == "" {
			return nil
		}
		raw = []byte(s)
	}
	return json.Unmarshal(raw, dst)
}

// names holds week or day names keyed either by position or by number.
type names struct {
	list  []string
	byKey map[string]string
}

func decodeNames(raw json.RawMessage) (names, error) {
	var n names
	var v any
	if err := decodeField(raw, &v); err != nil {
		return n, err
	}
	switch t := v.(type) {
	case nil:
	case []any:
		for _, item := range t {
			s, _ := item.(string)
			n.list = append(n.list, s)
		}
	case map[string]any:
		n.byKey = make(map[string]string, len(t))
		for k, item := range t {
			if s, ok := item.(string); ok {
				n.byKey[k] = s
			}
		}
	default:
		return n, fmt.Errorf("unexpected names type %T", v)
	}
	return n, nil
}

// lookup resolves a name by list position or map key, falling back to def.
func (n names) lookup(pos, key int, def string) string {
	if pos >= 0 && pos < len(n.list) && n.list[pos] != "" {
		return n.list[pos]
	}
	if s := n.byKey[strconv.Itoa(key)]; s != "" {
		return s
	}
	return def
}

func decodeHistory(raw json.RawMessage) (map[string][]models.HistoryEntry, error) {
	var byExercise map[string][]models.HistoryEntry
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}
	// Flat lists are grouped by exercise id.
	var flat []models.HistoryEntry
	if err := decodeField(raw, &flat); err == nil {
		if len(flat) == 0 {
			return nil, nil
		}
		byExercise = make(map[string][]models.HistoryEntry)
		for _, h := range flat {
			byExercise[h.ExerciseID] = append(byExercise[h.ExerciseID], h)
		}
		return byExercise, nil
	}
	if err := decodeField(raw, &byExercise); err != nil {
		return nil, err
	}
	return byExercise, nil
}
