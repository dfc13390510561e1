// Package workout orchestrates a user's progress through a plan: loading
// exercise state from the two stores, applying set transitions, gating and
// committing finished days, and reporting progress.
package workout

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/claude/repcoach/internal/cache"
	"github.com/claude/repcoach/internal/models"
	"github.com/claude/repcoach/internal/plan"
	"github.com/claude/repcoach/internal/progress"
	"github.com/claude/repcoach/internal/session"
	"github.com/claude/repcoach/internal/storage"
)

// DefaultWeightExempt lists the equipment that completes without a weight.
var DefaultWeightExempt = []string{"body weight", "band"}

// ConfirmFunc asks the user to confirm a destructive action.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

// Confirmed returns a ConfirmFunc with a fixed answer.
func Confirmed(yes bool) ConfirmFunc {
	return func(context.Context, string) (bool, error) { return yes, nil }
}

// Options configures a Service.
type Options struct {
	// WeightExempt decides whether an exercise completes without a weight.
	// Defaults to matching DefaultWeightExempt against the equipment.
	WeightExempt func(models.Exercise) bool
	// Location is used for set dates. Defaults to UTC.
	Location *time.Location
	Now      func() time.Time
}

// Service implements every workout operation for authenticated users.
type Service struct {
	repo         *Repository
	store        storage.Store
	logger       *slog.Logger
	weightExempt func(models.Exercise) bool
	loc          *time.Location
	now          func() time.Time
	locks        keyedMutex
}

// NewService creates a service over the durable store and the cache.
func NewService(store storage.Store, c cache.Cache, logger *slog.Logger, opts Options) *Service {
	s := &Service{
		repo:         NewRepository(c, store),
		store:        store,
		logger:       logger,
		weightExempt: opts.WeightExempt,
		loc:          opts.Location,
		now:          opts.Now,
	}
	if s.weightExempt == nil {
		s.weightExempt = EquipmentExempt(DefaultWeightExempt)
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// EquipmentExempt returns a predicate matching the exercise equipment
// against names, case-insensitively.
func EquipmentExempt(names []string) func(models.Exercise) bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[strings.ToLower(strings.TrimSpace(n))] = true
	}
	return func(ex models.Exercise) bool {
		return set[strings.ToLower(strings.TrimSpace(ex.Equipment))]
	}
}

func (s *Service) clock() time.Time {
	return s.now().In(s.loc)
}

// Plan loads and transforms a plan from the catalog.
func (s *Service) Plan(ctx context.Context, planID string) (*models.Plan, error) {
	raw, err := s.store.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	p, err := plan.Transform(*raw)
	if err != nil {
		s.logger.Error("plan transform failed", "plan_id", planID, "error", err)
		return nil, err
	}
	return p, nil
}

// CurrentPosition resolves where the user is in the plan. A stale pointer is
// corrected silently; a failed durable read falls back to the cached mirror.
func (s *Service) CurrentPosition(ctx context.Context, userID int, planID string) (models.Position, error) {
	p, err := s.Plan(ctx, planID)
	if err != nil {
		return models.Position{}, err
	}
	return s.position(ctx, userID, p)
}

func (s *Service) position(ctx context.Context, userID int, p *models.Plan) (models.Position, error) {
	ptr, err := s.repo.Pointer(ctx, userID, p.ID)
	if err != nil {
		s.logger.Warn("reading progress pointer, using cached copy", "plan_id", p.ID, "user_id", userID, "error", err)
		if ptr, err = s.repo.CachedPointer(ctx, userID, p.ID); err != nil {
			s.logger.Warn("reading cached pointer", "plan_id", p.ID, "user_id", userID, "error", err)
			ptr = nil
		}
	}
	pos, corrected, err := plan.ResolveStart(p.Weeks, ptr)
	if err != nil {
		return models.Position{}, err
	}
	if corrected {
		s.logger.Warn("stale progress pointer corrected", "plan_id", p.ID, "user_id", userID,
			"stored_week", ptr.WeekIndex, "stored_day", ptr.DayNumber,
			"week", pos.WeekIndex, "day", pos.DayNumber)
	}
	return pos, nil
}

// NextDay reports the day after (weekIndex, dayNumber), or nil when the
// plan ends there.
func (s *Service) NextDay(ctx context.Context, planID string, weekIndex, dayNumber int) (*models.Position, error) {
	p, err := s.Plan(ctx, planID)
	if err != nil {
		return nil, err
	}
	return plan.NextDay(p.Weeks, weekIndex, dayNumber, p.TotalWeeks)
}

// lookup returns the plan exercise addressed by key.
func lookup(p *models.Plan, key models.SessionKey) (*models.Day, models.Exercise, error) {
	day := plan.FindDay(plan.FindWeek(p.Weeks, key.WeekIndex), key.DayNumber)
	if day == nil {
		return nil, models.Exercise{}, fmt.Errorf("week %d day %d: %w", key.WeekIndex, key.DayNumber, ErrUnknownExercise)
	}
	for _, ex := range day.EligibleExercises() {
		if ex.ID == key.ExerciseID {
			return day, ex, nil
		}
	}
	return nil, models.Exercise{}, fmt.Errorf("%s: %w", key.ExerciseID, ErrUnknownExercise)
}

// load resolves an exercise instance: durable entry, else cache, else a
// fresh default array. committed reports a durable hit.
func (s *Service) load(ctx context.Context, userID int, key models.SessionKey, ex models.Exercise, durable progress.Snapshot) (e *session.Exercise, committed bool, err error) {
	if sets, ok := durable[key.String()]; ok {
		return session.FromSets(key, sets, nil), true, nil
	}
	sets, timer, ok, err := s.repo.CachedExercise(ctx, userID, key)
	if err != nil {
		return nil, false, err
	}
	if ok && len(sets) > 0 {
		return session.FromSets(key, sets, timer), false, nil
	}
	return session.New(key, ex.Sets, s.clock()), false, nil
}
