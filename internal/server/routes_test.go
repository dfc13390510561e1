package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claude/repcoach/internal/cache"
	"github.com/claude/repcoach/internal/models"
	"github.com/claude/repcoach/internal/storage"
	"github.com/claude/repcoach/internal/workout"
)

const routePlanJSON = `[
  {"weekIndex":0,"weekName":"Base","days":[
    {"dayNumber":1,"dayName":"Push","exercises":[
      {"exerciseId":"pushup","name":"Push Up","bodyPart":"any","gifUrl":"g/pushup","equipment":"body weight","weeklySetConfig":{"sets":1}}
    ]},
    {"dayNumber":2,"dayName":"Pull","exercises":[
      {"exerciseId":"row","name":"Row","bodyPart":"any","gifUrl":"g/row","equipment":"cable","weeklySetConfig":{"sets":1}}
    ]}
  ]}
]`

func newTestServer(t *testing.T) (*Server, *storage.Memory) {
	t.Helper()
	store := storage.NewMemory()
	require.NoError(t, store.UpsertPlan(context.Background(), models.RawPlan{
		ID: "p1", Name: "Test", TotalWeeks: 1, DaysPerWeek: 2, WorkoutPlan: json.RawMessage(routePlanJSON),
	}))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := workout.NewService(store, cache.NewMemory(), logger, workout.Options{})
	s := New(svc, store, "secret", nil, logger)
	s.tick = 10 * time.Millisecond
	return s, store
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

const exercisePath = "/api/v1/plans/p1/weeks/0/days/1/exercises/pushup"

func TestRoutesWorkoutFlow(t *testing.T) {
	s, store := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/v1/plans/p1/position", "")
	require.Equal(t, http.StatusOK, rec.Code)
	pos := decode[models.Position](t, rec)
	assert.Equal(t, 1, pos.DayNumber)

	rec = do(t, s, http.MethodGet, exercisePath, "")
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[workout.ExerciseState](t, rec)
	assert.Len(t, st.Sets, 1)
	assert.True(t, st.WeightExempt)

	rec = do(t, s, http.MethodPost, "/api/v1/plans/p1/weeks/0/days/1/finish", "")
	assert.Equal(t, http.StatusConflict, rec.Code, "day not complete yet")

	for _, body := range []string{
		`{"type":"start","setId":1}`,
		`{"type":"input","setId":1,"field":"reps","value":"12"}`,
		`{"type":"complete","setId":1}`,
		`{"type":"stop_rest"}`,
	} {
		rec = do(t, s, http.MethodPost, exercisePath+"/actions", body)
		require.Equal(t, http.StatusOK, rec.Code, body)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/plans/p1/weeks/0/days/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[workout.DayState](t, rec).Complete)

	rec = do(t, s, http.MethodPost, "/api/v1/plans/p1/weeks/0/days/1/finish", "")
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode[workout.Outcome](t, rec)
	require.NotNil(t, out.Next)
	assert.Equal(t, 2, out.Next.DayNumber)

	rows, err := store.QuerySetHistory(context.Background(), 1, "p1", "pushup")
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	rec = do(t, s, http.MethodGet, "/api/v1/plans/p1/progress", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"progressPlannedOnlyPercent":50`)
}

func TestRoutesValidationError(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPost, exercisePath+"/actions", `{"type":"complete","setId":1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, s, http.MethodPost, exercisePath+"/actions", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRoutesSkipNeedsConfirmation(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, exercisePath+"/actions", `{"type":"skip"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "confirm_required")

	rec = do(t, s, http.MethodPost, "/api/v1/plans/p1/weeks/0/days/2/skip", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/v1/plans/p1/weeks/0/days/2/skip", `{"confirm":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode[workout.Outcome](t, rec)
	assert.True(t, out.PlanComplete, "day 2 is the last day")
}

func TestRoutesBadParams(t *testing.T) {
	s, _ := newTestServer(t)
	tests := []struct {
		path string
		want int
	}{
		{"/api/v1/plans/p1/weeks/x/days/1", http.StatusBadRequest},
		{"/api/v1/plans/p1/weeks/0/days/0", http.StatusBadRequest},
		{"/api/v1/plans/p1/weeks/0/days/9", http.StatusNotFound},
		{"/api/v1/plans/missing/position", http.StatusNotFound},
		{"/api/v1/plans/p1/weeks/0/days/1/exercises/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := do(t, s, http.MethodGet, tt.path, "")
		assert.Equal(t, tt.want, rec.Code, tt.path)
	}
}

func TestRoutesAdmin(t *testing.T) {
	s, store := newTestServer(t)
	body := `{"name":"Fresh","totalWeeks":1,"daysPerWeek":2,"workoutPlan":` + routePlanJSON + `}`

	rec := do(t, s, http.MethodPost, "/api/v1/plans", body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/plans", strings.NewReader(body))
	req.Header.Set("X-API-Key", "secret")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	p := decode[models.Plan](t, rec)
	assert.NotEmpty(t, p.ID)

	plans, err := store.ListPlans(context.Background())
	require.NoError(t, err)
	assert.Len(t, plans, 2)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/plans", strings.NewReader(`{"id":"bad","workoutPlan":"{"}`))
	req.Header.Set("X-API-Key", "secret")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestExerciseEventsStream(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+exercisePath+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	next := func() string {
		for lines.Scan() {
			if strings.HasPrefix(lines.Text(), "event: ") {
				return strings.TrimPrefix(lines.Text(), "event: ")
			}
		}
		return ""
	}
	require.Equal(t, "state", next())

	rec := do(t, s, http.MethodPost, exercisePath+"/actions", `{"type":"start","setId":1}`)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Equal(t, "state", next())
	assert.Equal(t, "tick", next())
}
