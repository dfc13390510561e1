package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/claude/repcoach/internal/models"
)

// Memory is an in-process Store with the same semantics as *DB. It backs
// tests and database-less local runs.
type Memory struct {
	mu        sync.Mutex
	docs      map[string]map[string]any
	plans     map[string]models.RawPlan
	exercises map[string]models.CatalogExercise
	users     map[string]int
	history   []models.SetHistoryRow
	logs      []ImportLog

	// FailWrites, when set, is returned by SetDocument and InsertSetHistory.
	FailWrites error
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		docs:      make(map[string]map[string]any),
		plans:     make(map[string]models.RawPlan),
		exercises: make(map[string]models.CatalogExercise),
		users:     make(map[string]int),
	}
}

func docKey(collection string, userID int) string {
	return fmt.Sprintf("%s/%d", collection, userID)
}

func (m *Memory) GetDocument(_ context.Context, collection string, userID int) (map[string]json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[docKey(collection, userID)]
	if !ok {
		return nil, ErrNotFound
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding %s document: %w", collection, err)
	}
	return splitDocument(data)
}

func (m *Memory) SetDocument(_ context.Context, collection string, userID int, patch map[string]any) error {
	norm, err := normalizePatch(patch)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return fmt.Errorf("writing %s document: %w", collection, m.FailWrites)
	}
	k := docKey(collection, userID)
	doc, ok := m.docs[k]
	if !ok {
		doc = make(map[string]any)
		m.docs[k] = doc
	}
	mergeDocument(doc, norm)
	return nil
}

func (m *Memory) GetPlan(_ context.Context, id string) (*models.RawPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[id]
	if !ok {
		return nil, ErrPlanNotFound
	}
	return &p, nil
}

func (m *Memory) UpsertPlan(_ context.Context, p models.RawPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans[p.ID] = p
	return nil
}

func (m *Memory) ListPlans(_ context.Context) ([]PlanSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PlanSummary, 0, len(m.plans))
	for _, p := range m.plans {
		out = append(out, PlanSummary{ID: p.ID, Name: p.Name, TotalWeeks: p.TotalWeeks, DaysPerWeek: p.DaysPerWeek})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) ListExercises(_ context.Context) ([]models.CatalogExercise, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.CatalogExercise, 0, len(m.exercises))
	for _, e := range m.exercises {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BodyPart != out[j].BodyPart {
			return out[i].BodyPart < out[j].BodyPart
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *Memory) GetExercise(_ context.Context, id string) (*models.CatalogExercise, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exercises[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (m *Memory) UpsertExercises(_ context.Context, exercises []models.CatalogExercise) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range exercises {
		m.exercises[e.ID] = e
	}
	return int64(len(exercises)), nil
}

func (m *Memory) GetOrCreateUser(_ context.Context, login, _ string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.users[login]; ok {
		return id, nil
	}
	id := len(m.users) + 1
	m.users[login] = id
	return id, nil
}

func (m *Memory) InsertSetHistory(_ context.Context, rows []models.SetHistoryRow) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return 0, fmt.Errorf("inserting set history: %w", m.FailWrites)
	}
	var n int64
	for _, r := range rows {
		if m.hasHistory(r) {
			continue
		}
		m.history = append(m.history, r)
		n++
	}
	return n, nil
}

// hasHistory mirrors the set_history unique key.
func (m *Memory) hasHistory(r models.SetHistoryRow) bool {
	for _, h := range m.history {
		if h.UserID == r.UserID && h.PlanID == r.PlanID && h.WeekIndex == r.WeekIndex &&
			h.DayNumber == r.DayNumber && h.ExerciseID == r.ExerciseID &&
			h.SetNumber == r.SetNumber && h.SessionDay.Equal(r.SessionDay) {
			return true
		}
	}
	return false
}

func (m *Memory) QuerySetHistory(_ context.Context, userID int, planID, exerciseID string) ([]models.SetHistoryRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.SetHistoryRow
	for _, h := range m.history {
		if h.UserID != userID || h.PlanID != planID {
			continue
		}
		if exerciseID != "" && h.ExerciseID != exerciseID {
			continue
		}
		out = append(out, h)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].SessionDay.Equal(out[j].SessionDay) {
			return out[i].SessionDay.After(out[j].SessionDay)
		}
		if out[i].ExerciseID != out[j].ExerciseID {
			return out[i].ExerciseID < out[j].ExerciseID
		}
		return out[i].SetNumber < out[j].SetNumber
	})
	return out, nil
}

func (m *Memory) InsertImportLog(_ context.Context, log ImportLog) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	log.ID = int64(len(m.logs) + 1)
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	m.logs = append(m.logs, log)
	return log.ID, nil
}

func (m *Memory) UpdateImportLog(_ context.Context, id int64, log ImportLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.logs {
		if m.logs[i].ID == id {
			log.ID, log.UserID, log.CreatedAt, log.Source = id, m.logs[i].UserID, m.logs[i].CreatedAt, m.logs[i].Source
			m.logs[i] = log
			return nil
		}
	}
	return fmt.Errorf("updating import log %d: %w", id, ErrNotFound)
}

func (m *Memory) QueryImportLogs(_ context.Context, userID, limit int) ([]ImportLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	var out []ImportLog
	for i := len(m.logs) - 1; i >= 0 && len(out) < limit; i-- {
		if m.logs[i].UserID == userID {
			out = append(out, m.logs[i])
		}
	}
	return out, nil
}
