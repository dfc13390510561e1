package plan

import "github.com/claude/repcoach/internal/models"

// NextDay computes the day after (weekIndex, dayNumber) in traversal order.
//
// It returns the next position, or (nil, nil) when the current day is the
// last day of the plan. A current week or day that cannot be located yields
// an error wrapping ErrNavigation; recorded sets must be left untouched by
// callers in that case.
func NextDay(weeks []models.Week, weekIndex, dayNumber, totalWeeks int) (*models.Position, error) {
	if weeks == nil {
		return nil, &NavigationError{WeekIndex: weekIndex, DayNumber: dayNumber, Reason: "plan has no weeks"}
	}
	week := FindWeek(weeks, weekIndex)
	if week == nil {
		return nil, &NavigationError{WeekIndex: weekIndex, DayNumber: dayNumber, Reason: "week not found"}
	}
	pos := dayPosition(week, dayNumber)
	if pos < 0 {
		return nil, &NavigationError{WeekIndex: weekIndex, DayNumber: dayNumber, Reason: "day not found"}
	}

	// Positional, not by day number: gaps in numbering are fine.
	if pos+1 < len(week.Days) {
		next := position(week, &week.Days[pos+1])
		return &next, nil
	}

	// Only the immediately following week is considered. A missing or empty
	// week there ends the plan, even when totalWeeks declares more.
	if weekIndex+1 < totalWeeks {
		if nw := FindWeek(weeks, weekIndex+1); nw != nil && len(nw.Days) > 0 {
			next := position(nw, &nw.Days[0])
			return &next, nil
		}
	}
	return nil, nil
}

// ResolveStart maps a stored pointer onto the current plan structure. The
// returned bool reports whether the pointer was stale and had to be corrected.
// A nil pointer resolves to the first day of the first week.
func ResolveStart(weeks []models.Week, ptr *models.Position) (models.Position, bool, error) {
	if ptr != nil {
		if w := FindWeek(weeks, ptr.WeekIndex); w != nil {
			if d := FindDay(w, ptr.DayNumber); d != nil {
				return position(w, d), false, nil
			}
			if len(w.Days) > 0 {
				return position(w, &w.Days[0]), true, nil
			}
		}
	}
	if len(weeks) > 0 && len(weeks[0].Days) > 0 {
		return position(&weeks[0], &weeks[0].Days[0]), ptr != nil, nil
	}
	return models.Position{}, false, ErrNoStartingPosition
}
