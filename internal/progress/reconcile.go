// Package progress reconciles recorded sets from the cache and the durable
// store and derives completion metrics, the day completion gate and the
// per-set history used for previous-record display.
package progress

import "github.com/claude/repcoach/internal/models"

// Snapshot maps a session key string to its recorded set array.
type Snapshot map[string][]models.Set

// Resolve returns the set array for key. The durable entry is used verbatim
// when present, otherwise the cached one. ok is false when neither store
// holds the key.
func Resolve(key string, durable, cached Snapshot) (sets []models.Set, ok bool) {
	if sets, ok = durable[key]; ok {
		return sets, true
	}
	sets, ok = cached[key]
	return sets, ok
}

// Reconcile merges both stores into one snapshot. Entries are never merged
// set by set: for a key present in both, the durable array wins whole.
func Reconcile(durable, cached Snapshot) Snapshot {
	out := make(Snapshot, len(durable)+len(cached))
	for k, v := range cached {
		out[k] = v
	}
	for k, v := range durable {
		out[k] = v
	}
	return out
}

// DayComplete reports whether every eligible exercise of the day has sets
// and every visible set is completed or skipped. An exercise with no
// resolvable sets makes the day incomplete; a day that cannot be found is
// never complete.
func DayComplete(p *models.Plan, weekIndex, dayNumber int, durable, cached Snapshot) bool {
	day := findDay(p, weekIndex, dayNumber)
	if day == nil {
		return false
	}
	for _, key := range models.DayKeys(p.ID, weekIndex, *day) {
		sets, ok := Resolve(key.String(), durable, cached)
		if !ok {
			return false
		}
		visible := models.VisibleSets(sets)
		if len(visible) == 0 {
			return false
		}
		for _, s := range visible {
			if !s.IsTerminal() {
				return false
			}
		}
	}
	return true
}

func findDay(p *models.Plan, weekIndex, dayNumber int) *models.Day {
	if p == nil {
		return nil
	}
	for wi := range p.Weeks {
		if p.Weeks[wi].Index != weekIndex {
			continue
		}
		for di := range p.Weeks[wi].Days {
			if p.Weeks[wi].Days[di].Number == dayNumber {
				return &p.Weeks[wi].Days[di]
			}
		}
	}
	return nil
}
