package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/claude/repcoach/internal/models"
	"github.com/claude/repcoach/internal/progress"
	"github.com/claude/repcoach/internal/storage"
)

// newTestServer creates an httptest server that routes requests to handler functions
// keyed by path. Verifies the HTTP client sends correct paths and query params.
func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			t.Errorf("unexpected request path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatal(err)
	}
}

// TestProgress verifies the live flag is forwarded and metrics are decoded.
func TestProgress(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/plans/p1/progress": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("live"); got != "1" {
				t.Errorf("live=%q, want 1", got)
			}
			writeTestJSON(t, w, progress.Metrics{TotalPlannedSets: 6, ProgressPlannedOnlyPercent: 67})
		},
	})
	defer ts.Close()

	m, err := NewHTTPClient(ts.URL).Progress(context.Background(), 1, "p1", true)
	if err != nil {
		t.Fatal(err)
	}
	if m.TotalPlannedSets != 6 || m.ProgressPlannedOnlyPercent != 67 {
		t.Errorf("metrics = %+v", m)
	}
}

// TestCurrentPosition verifies a single struct response is parsed.
func TestCurrentPosition(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/plans/p1/position": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, models.Position{WeekIndex: 1, DayNumber: 3, DayName: "Legs"})
		},
	})
	defer ts.Close()

	pos, err := NewHTTPClient(ts.URL + "/").CurrentPosition(context.Background(), 1, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if pos.WeekIndex != 1 || pos.DayNumber != 3 || pos.DayName != "Legs" {
		t.Errorf("position = %+v", pos)
	}
}

// TestNextDay verifies both a following day and the end of the plan.
func TestNextDay(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/plans/p1/weeks/0/days/1/next": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, map[string]any{"next": models.Position{WeekIndex: 0, DayNumber: 2}})
		},
		"/api/v1/plans/p1/weeks/3/days/4/next": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, map[string]any{"next": nil})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL)
	next, err := client.NextDay(context.Background(), "p1", 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if next == nil || next.DayNumber != 2 {
		t.Errorf("next = %+v, want day 2", next)
	}

	next, err = client.NextDay(context.Background(), "p1", 3, 4)
	if err != nil {
		t.Fatal(err)
	}
	if next != nil {
		t.Errorf("next = %+v, want nil at plan end", next)
	}
}

// TestHistory verifies the exercise filter query param.
func TestHistory(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/plans/p1/history": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("exercise"); got != "bench" {
				t.Errorf("exercise=%q, want bench", got)
			}
			writeTestJSON(t, w, []models.HistoryEntry{{Date: "2026-03-02", ExerciseID: "bench", Weight: "60", Reps: "8"}})
		},
	})
	defer ts.Close()

	entries, err := NewHTTPClient(ts.URL).History(context.Background(), 1, "p1", "bench")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Weight != "60" {
		t.Errorf("entries = %+v", entries)
	}
}

// TestListPlans verifies the plan catalog listing.
func TestListPlans(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/plans": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, []storage.PlanSummary{{ID: "p1", Name: "Strength", TotalWeeks: 4}})
		},
	})
	defer ts.Close()

	plans, err := NewHTTPClient(ts.URL).ListPlans(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(plans) != 1 || plans[0].TotalWeeks != 4 {
		t.Errorf("plans = %+v", plans)
	}
}

// TestHTTPError verifies non-200 responses surface as errors.
func TestHTTPError(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/plans/gone/position": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"plan not found"}`, http.StatusNotFound)
		},
	})
	defer ts.Close()

	if _, err := NewHTTPClient(ts.URL).CurrentPosition(context.Background(), 1, "gone"); err == nil {
		t.Error("expected error for 404")
	}
}
