package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/claude/repcoach/internal/clock"
	"github.com/claude/repcoach/internal/models"
	"github.com/claude/repcoach/internal/session"
	"github.com/claude/repcoach/internal/workout"
)

// sseEvent is an SSE message to send to subscribers.
type sseEvent struct {
	Event string
	Data  string
}

// hub fans state events out to every open view of an exercise instance.
type hub struct {
	mu   sync.Mutex
	subs map[string]map[chan sseEvent]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[string]map[chan sseEvent]struct{})}
}

func topic(userID int, key models.SessionKey) string {
	return fmt.Sprintf("%d/%s", userID, key)
}

func (h *hub) broadcast(t string, event sseEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[t] {
		select {
		case ch <- event:
		default:
			// slow subscriber, skip
		}
	}
}

func (h *hub) has(t string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[t]) > 0
}

func (h *hub) subscribe(t string) chan sseEvent {
	ch := make(chan sseEvent, 32)
	h.mu.Lock()
	if h.subs[t] == nil {
		h.subs[t] = make(map[chan sseEvent]struct{})
	}
	h.subs[t][ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *hub) unsubscribe(t string, ch chan sseEvent) {
	h.mu.Lock()
	delete(h.subs[t], ch)
	if len(h.subs[t]) == 0 {
		delete(h.subs, t)
	}
	h.mu.Unlock()
}

// tickPayload is the once-per-second timer update.
type tickPayload struct {
	Kind    session.TimerKind `json:"kind"`
	SetID   int               `json:"setId"`
	Elapsed int               `json:"elapsedSeconds"`
	Display string            `json:"display"`
}

// handleExerciseEvents streams the exercise state, then a tick event every
// second while a timer runs. The ticker stops when the client goes away.
func (s *Server) handleExerciseEvents(w http.ResponseWriter, r *http.Request) {
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

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming not supported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	t := topic(uid, key)
	ch := s.hub.subscribe(t)
	defer s.hub.unsubscribe(t, ch)

	fmt.Fprintf(w, "event: state\ndata: %s\n\n", mustJSON(st))
	flusher.Flush()

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	timer := st.Timer
	for {
		select {
		case <-r.Context().Done():
			return
		case evt := <-ch:
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Event, evt.Data)
			flusher.Flush()
			timer = timerOf(evt)
		case now := <-ticker.C:
			if timer == nil {
				continue
			}
			elapsed := timer.Elapsed(now)
			fmt.Fprintf(w, "event: tick\ndata: %s\n\n", mustJSON(tickPayload{
				Kind:    timer.Kind,
				SetID:   timer.SetID,
				Elapsed: elapsed,
				Display: clock.Format(elapsed, timer.Kind == session.TimerWorkout),
			}))
			flusher.Flush()
		}
	}
}

// timerOf extracts the timer from a broadcast state event.
func timerOf(evt sseEvent) *session.Timer {
	var st workout.ExerciseState
	if err := json.Unmarshal([]byte(evt.Data), &st); err != nil {
		return nil
	}
	return st.Timer
}
