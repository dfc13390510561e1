package server

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/claude/repcoach/internal/storage"
	"github.com/claude/repcoach/internal/workout"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	svc    *workout.Service
	store  storage.Store
	log    *slog.Logger
	apiKey string
	admins map[string]bool
	router chi.Router

	mu    sync.RWMutex
	whois WhoIser

	hub  *hub
	tick time.Duration
}

// New creates a new Server with all routes configured. admins lists the
// logins allowed to manage plans and the exercise catalog.
func New(svc *workout.Service, store storage.Store, apiKey string, admins []string, log *slog.Logger) *Server {
	s := &Server{
		svc:    svc,
		store:  store,
		log:    log,
		apiKey: apiKey,
		admins: make(map[string]bool, len(admins)),
		router: chi.NewRouter(),
		hub:    newHub(),
		tick:   time.Second,
	}
	for _, a := range admins {
		s.admins[a] = true
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetTailscale switches identity from the dev user to tailnet WhoIs lookups.
func (s *Server) SetTailscale(lc WhoIser) {
	s.mu.Lock()
	s.whois = lc
	s.mu.Unlock()
}

// Mount attaches an extra handler, such as the MCP endpoint, behind the
// identity middleware.
func (s *Server) Mount(pattern string, h http.Handler) {
	s.router.Group(func(r chi.Router) {
		r.Use(s.identity)
		r.Handle(pattern, h)
	})
}

func (s *Server) identity(next http.Handler) http.Handler {
	dev := DevIdentity(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		lc := s.whois
		s.mu.RUnlock()
		if lc == nil {
			dev.ServeHTTP(w, r)
			return
		}
		TailscaleIdentity(lc, s.store, s.log)(next).ServeHTTP(w, r)
	})
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.identity)

		r.Get("/me", s.handleMe)
		r.Get("/exercises", s.handleListExercises)
		r.Get("/import-logs", s.handleImportLogs)
		r.Get("/plans", s.handleListPlans)

		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin(s.apiKey, s.admins))
			r.Post("/exercises", s.handleUpsertExercises)
			r.Post("/plans", s.handleUpsertPlan)
		})

		r.Route("/plans/{planID}", func(r chi.Router) {
			r.Get("/", s.handleGetPlan)
			r.Get("/position", s.handlePosition)
			r.Get("/progress", s.handleProgress)
			r.Get("/history", s.handleHistory)

			r.Route("/weeks/{week}/days/{day}", func(r chi.Router) {
				r.Get("/", s.handleDay)
				r.Get("/next", s.handleNextDay)
				r.Post("/finish", s.handleFinishDay)
				r.Post("/skip", s.handleSkipDay)
				r.Get("/exercises/{exerciseID}", s.handleExercise)
				r.Post("/exercises/{exerciseID}/actions", s.handleAction)
				r.Get("/exercises/{exerciseID}/events", s.handleExerciseEvents)
			})
		})
	})
}
