package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/claude/repcoach/internal/models"
	"github.com/claude/repcoach/internal/plan"
	"github.com/claude/repcoach/internal/storage"
	"github.com/claude/repcoach/internal/workout"
)

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	info := userInfoFromContext(r)
	info.Admin = s.admins[info.Login]
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListExercises(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if list == nil {
		list = []models.CatalogExercise{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleUpsertExercises(w http.ResponseWriter, r *http.Request) {
	var list []models.CatalogExercise
	if err := json.NewDecoder(r.Body).Decode(&list); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	for _, e := range list {
		if e.ID == "" || e.Name == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "every exercise needs id and name"})
			return
		}
	}
	n, err := s.store.UpsertExercises(r.Context(), list)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"upserted": n})
}

func (s *Server) handleUpsertPlan(w http.ResponseWriter, r *http.Request) {
	var raw models.RawPlan
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if raw.ID == "" {
		raw.ID = uuid.NewString()
	}
	p, err := plan.Transform(raw)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	if err := s.store.UpsertPlan(r.Context(), raw); err != nil {
		s.writeError(w, err)
		return
	}
	s.log.Info("plan stored", "plan_id", raw.ID, "weeks", len(p.Weeks))
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.store.ListPlans(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if plans == nil {
		plans = []storage.PlanSummary{}
	}
	writeJSON(w, http.StatusOK, plans)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Plan(r.Context(), chi.URLParam(r, "planID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	pos, err := s.svc.CurrentPosition(r.Context(), uid, chi.URLParam(r, "planID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pos)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	live := r.URL.Query().Get("live") == "1" || r.URL.Query().Get("live") == "true"
	m, err := s.svc.Progress(r.Context(), uid, chi.URLParam(r, "planID"), live)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	entries, err := s.svc.History(r.Context(), uid, chi.URLParam(r, "planID"), r.URL.Query().Get("exercise"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// dayParams parses the week and day path parameters, writing 400 on failure.
func dayParams(w http.ResponseWriter, r *http.Request) (week, day int, ok bool) {
	week, err := strconv.Atoi(chi.URLParam(r, "week"))
	if err != nil || week < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid week index"})
		return 0, 0, false
	}
	day, err = strconv.Atoi(chi.URLParam(r, "day"))
	if err != nil || day < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid day number"})
		return 0, 0, false
	}
	return week, day, true
}

func sessionKey(w http.ResponseWriter, r *http.Request) (models.SessionKey, bool) {
	week, day, ok := dayParams(w, r)
	if !ok {
		return models.SessionKey{}, false
	}
	return models.SessionKey{
		PlanID:     chi.URLParam(r, "planID"),
		WeekIndex:  week,
		DayNumber:  day,
		ExerciseID: chi.URLParam(r, "exerciseID"),
	}, true
}

func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	week, day, ok := dayParams(w, r)
	if !ok {
		return
	}
	st, err := s.svc.Day(r.Context(), uid, chi.URLParam(r, "planID"), week, day)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleNextDay(w http.ResponseWriter, r *http.Request) {
	week, day, ok := dayParams(w, r)
	if !ok {
		return
	}
	next, err := s.svc.NextDay(r.Context(), chi.URLParam(r, "planID"), week, day)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"next": next})
}

func (s *Server) handleFinishDay(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	week, day, ok := dayParams(w, r)
	if !ok {
		return
	}
	out, err := s.svc.FinishDay(r.Context(), uid, chi.URLParam(r, "planID"), week, day)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type confirmRequest struct {
	Confirm bool `json:"confirm"`
}

func (s *Server) handleSkipDay(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	week, day, ok := dayParams(w, r)
	if !ok {
		return
	}
	var req confirmRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
			return
		}
	}
	planID := chi.URLParam(r, "planID")
	out, err := s.svc.SkipDay(r.Context(), uid, planID, week, day, workout.Confirmed(req.Confirm))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.broadcastDay(r.Context(), uid, planID, week, day)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleExercise(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	key, ok := sessionKey(w, r)
	if !ok {
		return
	}
	st, err := s.svc.Exercise(r.Context(), uid, key)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type actionRequest struct {
	workout.Action
	Confirm bool `json:"confirm"`
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	key, ok := sessionKey(w, r)
	if !ok {
		return
	}
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	st, err := s.svc.Apply(r.Context(), uid, key, req.Action, workout.Confirmed(req.Confirm))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.hub.broadcast(topic(uid, key), sseEvent{Event: "state", Data: mustJSON(st)})
	writeJSON(w, http.StatusOK, st)
}

// broadcastDay pushes fresh state to every open view of the day's exercises.
func (s *Server) broadcastDay(ctx context.Context, uid int, planID string, week, day int) {
	p, err := s.svc.Plan(ctx, planID)
	if err != nil {
		return
	}
	d := plan.FindDay(plan.FindWeek(p.Weeks, week), day)
	if d == nil {
		return
	}
	for _, key := range models.DayKeys(planID, week, *d) {
		if !s.hub.has(topic(uid, key)) {
			continue
		}
		st, err := s.svc.Exercise(ctx, uid, key)
		if err != nil {
			continue
		}
		s.hub.broadcast(topic(uid, key), sseEvent{Event: "state", Data: mustJSON(st)})
	}
}

func (s *Server) handleImportLogs(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	logs, err := s.store.QueryImportLogs(r.Context(), uid, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `{}`
	}
	return string(b)
}
