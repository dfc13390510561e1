package progress

import (
	"sort"

	"github.com/claude/repcoach/internal/models"
)

// History lists one entry per completed or skipped set recorded against the
// plan, together with the history embedded in the plan itself. When
// exerciseID is non-empty only that exercise is returned. Entries are
// ordered by date, oldest first.
func History(p *models.Plan, snapshot Snapshot, exerciseID string) []models.HistoryEntry {
	if p == nil {
		return nil
	}
	var out []models.HistoryEntry
	for id, entries := range p.History {
		if exerciseID != "" && id != exerciseID {
			continue
		}
		out = append(out, entries...)
	}

	seen := make(map[string]bool)
	for _, w := range p.Weeks {
		for _, d := range w.Days {
			for _, key := range models.DayKeys(p.ID, w.Index, d) {
				if exerciseID != "" && key.ExerciseID != exerciseID {
					continue
				}
				k := key.String()
				if seen[k] {
					continue
				}
				seen[k] = true
				out = append(out, entriesFor(key.ExerciseID, snapshot[k])...)
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].ExerciseID != out[j].ExerciseID {
			return out[i].ExerciseID < out[j].ExerciseID
		}
		return out[i].SetID < out[j].SetID
	})
	return out
}

func entriesFor(exerciseID string, sets []models.Set) []models.HistoryEntry {
	var out []models.HistoryEntry
	for _, s := range sets {
		switch {
		case s.State == models.SetSkipped:
			date := s.Date
			if n := len(s.SkippedDates); n > 0 {
				date = s.SkippedDates[n-1]
			}
			out = append(out, models.HistoryEntry{Date: date, ExerciseID: exerciseID, SetID: s.ID, Skipped: true})
		case s.IsCompleted():
			out = append(out, models.HistoryEntry{
				Date:       s.Date,
				ExerciseID: exerciseID,
				SetID:      s.ID,
				Weight:     s.Weight,
				Reps:       s.Reps,
			})
		}
	}
	return out
}
