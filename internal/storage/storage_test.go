package storage

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/claude/repcoach/internal/models"
)

func TestMergeDocument(t *testing.T) {
	doc := map[string]any{
		"p1": map[string]any{"a": 1.0, "b": 2.0},
		"p2": "keep",
	}
	mergeDocument(doc, map[string]any{
		"p1": map[string]any{"b": nil, "c": 3.0},
		"p3": map[string]any{"x": nil, "y": true},
	})

	p1 := doc["p1"].(map[string]any)
	if p1["a"] != 1.0 || p1["c"] != 3.0 {
		t.Errorf("p1 = %v, want a=1 c=3", p1)
	}
	if _, ok := p1["b"]; ok {
		t.Error("p1.b should be removed by null")
	}
	if doc["p2"] != "keep" {
		t.Errorf("p2 = %v, untouched key changed", doc["p2"])
	}
	p3 := doc["p3"].(map[string]any)
	if _, ok := p3["x"]; ok || p3["y"] != true {
		t.Errorf("p3 = %v, want only y", p3)
	}

	mergeDocument(doc, map[string]any{"p1": nil})
	if _, ok := doc["p1"]; ok {
		t.Error("p1 should be removed")
	}
}

func TestMemoryDocuments(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, err := m.GetDocument(ctx, CollectionWorkoutProgress, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetDocument on empty store = %v, want ErrNotFound", err)
	}

	pos := models.Position{WeekIndex: 1, DayNumber: 2, WeekName: "Week 2", DayName: "Legs"}
	if err := m.SetDocument(ctx, CollectionWorkoutProgress, 1, map[string]any{"p1": pos}); err != nil {
		t.Fatalf("SetDocument: %v", err)
	}
	if err := m.SetDocument(ctx, CollectionWorkoutProgress, 1, map[string]any{"p2": pos}); err != nil {
		t.Fatalf("SetDocument: %v", err)
	}

	doc, err := m.GetDocument(ctx, CollectionWorkoutProgress, 1)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	var got models.Position
	if err := json.Unmarshal(doc["p1"], &got); err != nil {
		t.Fatalf("decoding p1: %v", err)
	}
	if got != pos {
		t.Errorf("p1 = %+v, want %+v", got, pos)
	}
	if len(doc) != 2 {
		t.Errorf("document keys = %d, want 2", len(doc))
	}

	if err := m.SetDocument(ctx, CollectionWorkoutProgress, 1, map[string]any{"p1": nil}); err != nil {
		t.Fatalf("clearing p1: %v", err)
	}
	doc, _ = m.GetDocument(ctx, CollectionWorkoutProgress, 1)
	if _, ok := doc["p1"]; ok {
		t.Error("p1 still present after null write")
	}

	if _, err := m.GetDocument(ctx, CollectionWorkoutProgress, 2); !errors.Is(err, ErrNotFound) {
		t.Errorf("other user's document = %v, want ErrNotFound", err)
	}
}

func TestMemoryFailWrites(t *testing.T) {
	m := NewMemory()
	m.FailWrites = errors.New("unavailable")
	err := m.SetDocument(context.Background(), CollectionWorkoutData, 1, map[string]any{"p1": 1})
	if !errors.Is(err, m.FailWrites) {
		t.Errorf("SetDocument = %v, want wrapped FailWrites", err)
	}
}

func TestMemorySetHistoryDedup(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	rows := []models.SetHistoryRow{
		{UserID: 1, PlanID: "p1", ExerciseID: "bench", SetNumber: 1, SessionDay: day},
		{UserID: 1, PlanID: "p1", ExerciseID: "bench", SetNumber: 2, SessionDay: day},
	}
	n, err := m.InsertSetHistory(ctx, rows)
	if err != nil || n != 2 {
		t.Fatalf("first insert = %d, %v; want 2", n, err)
	}
	n, _ = m.InsertSetHistory(ctx, rows)
	if n != 0 {
		t.Errorf("repeat insert = %d, want 0", n)
	}
	got, _ := m.QuerySetHistory(ctx, 1, "p1", "bench")
	if len(got) != 2 || got[0].SetNumber != 1 {
		t.Errorf("QuerySetHistory = %+v", got)
	}
}

func TestMemoryUsersAndPlans(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	a, _ := m.GetOrCreateUser(ctx, "alice@example.com", "Alice")
	b, _ := m.GetOrCreateUser(ctx, "bob@example.com", "Bob")
	again, _ := m.GetOrCreateUser(ctx, "alice@example.com", "")
	if a == b || a != again {
		t.Errorf("user ids = %d, %d, %d", a, b, again)
	}

	if _, err := m.GetPlan(ctx, "nope"); !errors.Is(err, ErrPlanNotFound) {
		t.Errorf("GetPlan(nope) = %v, want ErrPlanNotFound", err)
	}
	_ = m.UpsertPlan(ctx, models.RawPlan{ID: "b", Name: "Strength"})
	_ = m.UpsertPlan(ctx, models.RawPlan{ID: "a", Name: "Hypertrophy"})
	plans, _ := m.ListPlans(ctx)
	if len(plans) != 2 || plans[0].ID != "a" {
		t.Errorf("ListPlans = %+v", plans)
	}
}
