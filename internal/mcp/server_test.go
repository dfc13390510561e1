package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claude/repcoach/internal/cache"
	"github.com/claude/repcoach/internal/models"
	"github.com/claude/repcoach/internal/storage"
	"github.com/claude/repcoach/internal/workout"
)

// TestUserIDFromContextDefault verifies the default user ID (1) when no value
// is set in the context.
func TestUserIDFromContextDefault(t *testing.T) {
	ctx := context.Background()
	if id := UserIDFromContext(ctx); id != 1 {
		t.Errorf("UserIDFromContext(empty) = %d, want 1", id)
	}
}

// TestUserIDFromContextSet verifies the user ID is extracted from context
// after being set by WithUserID.
func TestUserIDFromContextSet(t *testing.T) {
	ctx := WithUserID(context.Background(), 42)
	if id := UserIDFromContext(ctx); id != 42 {
		t.Errorf("UserIDFromContext = %d, want 42", id)
	}
}

const planJSON = `[
  {"weekIndex":0,"weekName":"Base","days":[
    {"dayNumber":1,"dayName":"Push","exercises":[{"exerciseId":"bench","name":"Bench","bodyPart":"any","gifUrl":"g/bench","equipment":"barbell","weeklySetConfig":{"sets":2}}]},
    {"dayNumber":2,"dayName":"Pull","exercises":[{"exerciseId":"row","name":"Row","bodyPart":"any","gifUrl":"g/row","equipment":"cable","weeklySetConfig":{"sets":1}}]}
  ]}
]`

func newHandlers(t *testing.T) *handlers {
	t.Helper()
	store := storage.NewMemory()
	require.NoError(t, store.UpsertPlan(context.Background(), models.RawPlan{
		ID: "p1", Name: "Test", TotalWeeks: 1, DaysPerWeek: 2, WorkoutPlan: json.RawMessage(planJSON),
	}))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := workout.NewService(store, cache.NewMemory(), logger, workout.Options{})
	return &handlers{ds: NewLocal(svc, store), log: logger}
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "content is %T", res.Content[0])
	return tc.Text
}

func TestToolGetCurrentPosition(t *testing.T) {
	h := newHandlers(t)
	res, err := h.getCurrentPosition(context.Background(), call(map[string]any{"plan_id": "p1"}))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))

	var pos models.Position
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &pos))
	assert.Equal(t, 0, pos.WeekIndex)
	assert.Equal(t, 1, pos.DayNumber)
	assert.Equal(t, "Push", pos.DayName)
}

func TestToolGetNextDay(t *testing.T) {
	h := newHandlers(t)
	ctx := context.Background()

	res, err := h.getNextDay(ctx, call(map[string]any{"plan_id": "p1", "week_index": float64(0), "day_number": float64(1)}))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))
	assert.Contains(t, text(t, res), `"currentDayNumber":2`)

	res, err = h.getNextDay(ctx, call(map[string]any{"plan_id": "p1", "week_index": float64(0), "day_number": float64(2)}))
	require.NoError(t, err)
	assert.Contains(t, text(t, res), "plan complete")

	res, err = h.getNextDay(ctx, call(map[string]any{"plan_id": "p1"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestToolGetPlanProgress(t *testing.T) {
	h := newHandlers(t)
	res, err := h.getPlanProgress(context.Background(), call(map[string]any{"plan_id": "p1", "live": true}))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))
	assert.Contains(t, text(t, res), `"totalPlannedSets":3`)

	res, err = h.getPlanProgress(context.Background(), call(map[string]any{"plan_id": "missing"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestToolListPlansAndHistory(t *testing.T) {
	h := newHandlers(t)
	res, err := h.listPlans(context.Background(), call(nil))
	require.NoError(t, err)
	assert.Contains(t, text(t, res), `"id":"p1"`)

	res, err = h.getExerciseHistory(context.Background(), call(map[string]any{"plan_id": "p1", "exercise_id": "bench"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
}
