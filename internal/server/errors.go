package server

import (
	"errors"
	"net/http"

	"github.com/claude/repcoach/internal/plan"
	"github.com/claude/repcoach/internal/session"
	"github.com/claude/repcoach/internal/storage"
	"github.com/claude/repcoach/internal/workout"
)

// writeError maps service errors to HTTP responses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		ve *session.ValidationError
		pe *workout.PersistenceError
		me *plan.MalformedPlanError
	)
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": err.Error(), "op": ve.Op, "set_id": ve.SetID})
	case errors.Is(err, workout.ErrConfirmationRequired):
		writeJSON(w, http.StatusConflict, map[string]any{"error": err.Error(), "confirm_required": true})
	case errors.Is(err, plan.ErrNavigation):
		writeJSON(w, http.StatusConflict, map[string]any{"error": err.Error(), "recoverable": true})
	case errors.Is(err, workout.ErrDayIncomplete),
		errors.Is(err, workout.ErrTimerRunning),
		errors.Is(err, workout.ErrDayCommitted),
		errors.Is(err, plan.ErrNoStartingPosition):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.As(err, &pe):
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": err.Error(), "retryable": true})
	case errors.As(err, &me):
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load plan", "detail": err.Error()})
	case errors.Is(err, storage.ErrPlanNotFound),
		errors.Is(err, storage.ErrNotFound),
		errors.Is(err, workout.ErrUnknownExercise):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		if s.log != nil {
			s.log.Error("request failed", "error", err)
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
