package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/claude/repcoach/internal/models"
)

// InsertSetHistory batch-inserts committed sets. Re-committing the same
// set on the same day is ignored. Returns count inserted.
func (db *DB) InsertSetHistory(ctx context.Context, rows []models.SetHistoryRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	query := `INSERT INTO set_history (batch_id, user_id, plan_id, week_index, day_number,
		exercise_id, set_number, session_day, weight_kg, reps, skipped) VALUES `
	args := make([]any, 0, len(rows)*11)
	valueStrings := make([]string, 0, len(rows))

	for i, r := range rows {
		base := i * 11
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6,
			base+7, base+8, base+9, base+10, base+11,
		))
		args = append(args, r.BatchID, r.UserID, r.PlanID, r.WeekIndex, r.DayNumber,
			r.ExerciseID, r.SetNumber, r.SessionDay, r.Weight, r.Reps, r.Skipped)
	}

	query += strings.Join(valueStrings, ",") + " ON CONFLICT DO NOTHING"

	tag, err := db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting set history: %w", err)
	}
	return tag.RowsAffected(), nil
}

// QuerySetHistory returns a user's committed sets for a plan, newest day
// first. An empty exerciseID returns every exercise.
func (db *DB) QuerySetHistory(ctx context.Context, userID int, planID, exerciseID string) ([]models.SetHistoryRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT batch_id, user_id, plan_id, week_index, day_number, exercise_id,
		 set_number, session_day, weight_kg, reps, skipped
		 FROM set_history
		 WHERE user_id = $1 AND plan_id = $2 AND ($3 = '' OR exercise_id = $3)
		 ORDER BY session_day DESC, exercise_id ASC, set_number ASC`,
		userID, planID, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("querying set history: %w", err)
	}
	defer rows.Close()

	var result []models.SetHistoryRow
	for rows.Next() {
		var r models.SetHistoryRow
		if err := rows.Scan(&r.BatchID, &r.UserID, &r.PlanID, &r.WeekIndex, &r.DayNumber,
			&r.ExerciseID, &r.SetNumber, &r.SessionDay, &r.Weight, &r.Reps, &r.Skipped); err != nil {
			return nil, fmt.Errorf("scanning set history: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
