package mcp

import (
	"context"

	"github.com/claude/repcoach/internal/models"
	"github.com/claude/repcoach/internal/progress"
	"github.com/claude/repcoach/internal/storage"
	"github.com/claude/repcoach/internal/workout"
)

// DataSource abstracts the data layer for MCP tools. Both Local (in-process)
// and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	ListPlans(ctx context.Context) ([]storage.PlanSummary, error)
	ListExercises(ctx context.Context) ([]models.CatalogExercise, error)
	Progress(ctx context.Context, userID int, planID string, live bool) (progress.Metrics, error)
	CurrentPosition(ctx context.Context, userID int, planID string) (models.Position, error)
	NextDay(ctx context.Context, planID string, weekIndex, dayNumber int) (*models.Position, error)
	History(ctx context.Context, userID int, planID, exerciseID string) ([]models.HistoryEntry, error)
}

// Local serves MCP tools from the in-process workout service.
type Local struct {
	*workout.Service
	store storage.Store
}

var (
	_ DataSource = (*Local)(nil)
	_ DataSource = (*HTTPClient)(nil)
)

// NewLocal wraps a service and its catalog store.
func NewLocal(svc *workout.Service, store storage.Store) *Local {
	return &Local{Service: svc, store: store}
}

func (l *Local) ListPlans(ctx context.Context) ([]storage.PlanSummary, error) {
	return l.store.ListPlans(ctx)
}

func (l *Local) ListExercises(ctx context.Context) ([]models.CatalogExercise, error) {
	return l.store.ListExercises(ctx)
}
