package storage

import (
	"context"
	"encoding/json"

	"github.com/claude/repcoach/internal/models"
)

// Document collections.
const (
	CollectionWorkoutData     = "workout_data"
	CollectionWorkoutProgress = "workout_progress"
)

// Store is the durable store. *DB is the production implementation and
// *Memory its in-process twin.
type Store interface {
	// GetDocument returns the top-level keys of a user's document, or
	// ErrNotFound.
	GetDocument(ctx context.Context, collection string, userID int) (map[string]json.RawMessage, error)
	// SetDocument merges patch into the user's document. Objects merge
	// recursively and a JSON null removes the key.
	SetDocument(ctx context.Context, collection string, userID int, patch map[string]any) error

	GetPlan(ctx context.Context, id string) (*models.RawPlan, error)
	UpsertPlan(ctx context.Context, plan models.RawPlan) error
	ListPlans(ctx context.Context) ([]PlanSummary, error)

	ListExercises(ctx context.Context) ([]models.CatalogExercise, error)
	GetExercise(ctx context.Context, id string) (*models.CatalogExercise, error)
	UpsertExercises(ctx context.Context, exercises []models.CatalogExercise) (int64, error)

	GetOrCreateUser(ctx context.Context, login, displayName string) (int, error)

	InsertSetHistory(ctx context.Context, rows []models.SetHistoryRow) (int64, error)
	QuerySetHistory(ctx context.Context, userID int, planID, exerciseID string) ([]models.SetHistoryRow, error)

	InsertImportLog(ctx context.Context, log ImportLog) (int64, error)
	UpdateImportLog(ctx context.Context, id int64, log ImportLog) error
	QueryImportLogs(ctx context.Context, userID, limit int) ([]ImportLog, error)
}

var (
	_ Store = (*DB)(nil)
	_ Store = (*Memory)(nil)
)

// PlanSummary is a catalog listing entry.
type PlanSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	TotalWeeks  int    `json:"totalWeeks"`
	DaysPerWeek int    `json:"daysPerWeek"`
}
