package plan

import "github.com/claude/repcoach/internal/models"

// FindWeek returns the week with the given index, or nil.
func FindWeek(weeks []models.Week, weekIndex int) *models.Week {
	for i := range weeks {
		if weeks[i].Index == weekIndex {
			return &weeks[i]
		}
	}
	return nil
}

// FindDay returns the day with the given number, or nil.
func FindDay(week *models.Week, dayNumber int) *models.Day {
	if week == nil {
		return nil
	}
	for i := range week.Days {
		if week.Days[i].Number == dayNumber {
			return &week.Days[i]
		}
	}
	return nil
}

func dayPosition(week *models.Week, dayNumber int) int {
	for i := range week.Days {
		if week.Days[i].Number == dayNumber {
			return i
		}
	}
	return -1
}

func position(w *models.Week, d *models.Day) models.Position {
	return models.Position{
		WeekIndex: w.Index,
		DayNumber: d.Number,
		WeekName:  w.Name,
		DayName:   d.Name,
	}
}
