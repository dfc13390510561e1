package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/claude/repcoach/internal/models"
)

// ListExercises returns the exercise catalog.
func (db *DB) ListExercises(ctx context.Context) ([]models.CatalogExercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, name, body_part, equipment, gif_url, instructions FROM exercises ORDER BY body_part, name`)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	var result []models.CatalogExercise
	for rows.Next() {
		var e models.CatalogExercise
		if err := rows.Scan(&e.ID, &e.Name, &e.BodyPart, &e.Equipment, &e.GifURL, &e.Instructions); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// GetExercise returns one catalog entry, or ErrNotFound.
func (db *DB) GetExercise(ctx context.Context, id string) (*models.CatalogExercise, error) {
	var e models.CatalogExercise
	err := db.Pool.QueryRow(ctx,
		`SELECT id, name, body_part, equipment, gif_url, instructions FROM exercises WHERE id = $1`, id,
	).Scan(&e.ID, &e.Name, &e.BodyPart, &e.Equipment, &e.GifURL, &e.Instructions)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying exercise %s: %w", id, err)
	}
	return &e, nil
}

// UpsertExercises batch-upserts catalog entries. Returns rows affected.
func (db *DB) UpsertExercises(ctx context.Context, exercises []models.CatalogExercise) (int64, error) {
	if len(exercises) == 0 {
		return 0, nil
	}

	query := `INSERT INTO exercises (id, name, body_part, equipment, gif_url, instructions) VALUES `
	args := make([]any, 0, len(exercises)*6)
	valueStrings := make([]string, 0, len(exercises))
	for i, e := range exercises {
		base := i * 6
		valueStrings = append(valueStrings, fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6))
		instructions := e.Instructions
		if instructions == nil {
			instructions = []string{}
		}
		args = append(args, e.ID, e.Name, e.BodyPart, e.Equipment, e.GifURL, instructions)
	}
	query += strings.Join(valueStrings, ",") + ` ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name, body_part = EXCLUDED.body_part, equipment = EXCLUDED.equipment,
		gif_url = EXCLUDED.gif_url, instructions = EXCLUDED.instructions`

	tag, err := db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("upserting exercises: %w", err)
	}
	return tag.RowsAffected(), nil
}
