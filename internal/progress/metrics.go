package progress

import (
	"math"
	"sort"

	"github.com/claude/repcoach/internal/models"
)

// Metrics summarizes a plan's recorded sets. Planned sets are the first
// configured-count visible sets of each exercise in id order; anything beyond
// that is extra.
type Metrics struct {
	TotalPlannedSets          int `json:"totalPlannedSets"`
	TotalCompletedPlannedSets int `json:"totalCompletedPlannedSets"`
	TotalSkippedPlannedSets   int `json:"totalSkippedPlannedSets"`
	TotalUnloggedPlannedSets  int `json:"totalUnloggedPlannedSets"`
	TotalCompletedExtraSets   int `json:"totalCompletedExtraSets"`
	TotalSkippedExtraSets     int `json:"totalSkippedExtraSets"`

	ProgressPlannedOnlyPercent       int `json:"progressPlannedOnlyPercent"`
	ProgressIncludingExtraPercent    int `json:"progressIncludingExtraPercent"`
	OverallAttemptRatePercent        int `json:"overallAttemptRatePercent"`
	CompletionRateOfAttemptedPercent int `json:"completionRateOfAttemptedPercent"`

	// CountAllSkippedInStorage counts every skipped set in the snapshot,
	// whether or not the plan structure still references it.
	CountAllSkippedInStorage int `json:"countAllSkippedInStorage"`
}

// Compute walks every eligible exercise of every week present in the plan
// and tallies the sets recorded for it in snapshot.
func Compute(p *models.Plan, snapshot Snapshot) Metrics {
	var m Metrics
	if p != nil {
		for _, w := range p.Weeks {
			for _, d := range w.Days {
				for _, key := range models.DayKeys(p.ID, w.Index, d) {
					m.add(configured(d, key.ExerciseID), snapshot[key.String()])
				}
			}
		}
	}

	m.TotalUnloggedPlannedSets = max(m.TotalPlannedSets-m.TotalCompletedPlannedSets-m.TotalSkippedPlannedSets, 0)
	m.CountAllSkippedInStorage = CountSkipped(snapshot)

	if m.TotalPlannedSets == 0 {
		return m
	}
	planned := m.TotalPlannedSets
	done := m.TotalCompletedPlannedSets
	skipped := m.TotalSkippedPlannedSets
	m.ProgressPlannedOnlyPercent = percent(done, planned)
	m.ProgressIncludingExtraPercent = percent(done+m.TotalCompletedExtraSets, planned)
	m.OverallAttemptRatePercent = percent(done+skipped, planned)
	m.CompletionRateOfAttemptedPercent = percent(done, max(done+skipped, 1))
	return m
}

func (m *Metrics) add(planned int, sets []models.Set) {
	m.TotalPlannedSets += planned

	visible := models.VisibleSets(sets)
	sort.SliceStable(visible, func(i, j int) bool { return visible[i].ID < visible[j].ID })
	for i, s := range visible {
		extra := i >= planned
		switch {
		case s.State == models.SetSkipped && extra:
			m.TotalSkippedExtraSets++
		case s.State == models.SetSkipped:
			m.TotalSkippedPlannedSets++
		case s.IsCompleted() && extra:
			m.TotalCompletedExtraSets++
		case s.IsCompleted():
			m.TotalCompletedPlannedSets++
		}
	}
}

func configured(d models.Day, exerciseID string) int {
	for _, ex := range d.Exercises {
		if ex.ID == exerciseID {
			return ex.Sets
		}
	}
	return 0
}

// CountSkipped returns the number of skipped sets across the whole snapshot.
func CountSkipped(snapshot Snapshot) int {
	n := 0
	for _, sets := range snapshot {
		for _, s := range sets {
			if s.State == models.SetSkipped {
				n++
			}
		}
	}
	return n
}

// percent rounds half up and clamps to 0..100.
func percent(num, den int) int {
	if den <= 0 {
		return 0
	}
	v := int(math.Floor(100*float64(num)/float64(den) + 0.5))
	return min(max(v, 0), 100)
}
