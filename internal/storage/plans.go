package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/claude/repcoach/internal/models"
)

// GetPlan loads a raw plan. The JSON columns are returned as stored, so
// string-encoded fields stay string-encoded for the transformer.
func (db *DB) GetPlan(ctx context.Context, id string) (*models.RawPlan, error) {
	var p models.RawPlan
	var workout, history, dayNames, weekNames *string
	err := db.Pool.QueryRow(ctx,
		`SELECT id, name, total_weeks, days_per_week, workout_plan, exercise_history, day_names, week_names
		 FROM plans WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.TotalWeeks, &p.DaysPerWeek, &workout, &history, &dayNames, &weekNames)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying plan %s: %w", id, err)
	}
	p.WorkoutPlan = raw(workout)
	p.ExerciseHistory = raw(history)
	p.DayNames = raw(dayNames)
	p.WeekNames = raw(weekNames)
	return &p, nil
}

// UpsertPlan inserts or replaces a plan.
func (db *DB) UpsertPlan(ctx context.Context, p models.RawPlan) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO plans (id, name, total_weeks, days_per_week, workout_plan, exercise_history, day_names, week_names)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, total_weeks = EXCLUDED.total_weeks,
			days_per_week = EXCLUDED.days_per_week, workout_plan = EXCLUDED.workout_plan,
			exercise_history = EXCLUDED.exercise_history, day_names = EXCLUDED.day_names,
			week_names = EXCLUDED.week_names, updated_at = NOW()
	`, p.ID, p.Name, p.TotalWeeks, p.DaysPerWeek,
		text(p.WorkoutPlan), text(p.ExerciseHistory), text(p.DayNames), text(p.WeekNames))
	if err != nil {
		return fmt.Errorf("upserting plan %s: %w", p.ID, err)
	}
	return nil
}

// ListPlans returns every plan in the catalog ordered by name.
func (db *DB) ListPlans(ctx context.Context) ([]PlanSummary, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, name, total_weeks, days_per_week FROM plans ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("querying plans: %w", err)
	}
	defer rows.Close()

	var result []PlanSummary
	for rows.Next() {
		var s PlanSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.TotalWeeks, &s.DaysPerWeek); err != nil {
			return nil, fmt.Errorf("scanning plan: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func raw(s *string) json.RawMessage {
	if s == nil {
		return nil
	}
	return json.RawMessage(*s)
}

func text(m json.RawMessage) *string {
	if len(m) == 0 {
		return nil
	}
	s := string(m)
	return &s
}
