package workout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/claude/repcoach/internal/models"
	"github.com/claude/repcoach/internal/session"
	"github.com/claude/repcoach/internal/storage"
)

// ActionType names a set transition.
type ActionType string

const (
	ActionStart    ActionType = "start"
	ActionComplete ActionType = "complete"
	ActionStopRest ActionType = "stop_rest"
	ActionEdit     ActionType = "edit"
	ActionDelete   ActionType = "delete"
	ActionAdd      ActionType = "add"
	ActionSkip     ActionType = "skip"
	ActionInput    ActionType = "input"
)

// Action is one user-triggered transition on an exercise instance.
type Action struct {
	Type  ActionType `json:"type"`
	SetID int        `json:"setId,omitempty"`
	Field string     `json:"field,omitempty"`
	Value string     `json:"value,omitempty"`
}

// ExerciseState is an exercise instance as shown to the user.
type ExerciseState struct {
	Key          models.SessionKey `json:"key"`
	Exercise     models.Exercise   `json:"exercise"`
	Sets         []models.Set      `json:"sets"`
	Timer        *session.Timer    `json:"timer,omitempty"`
	Elapsed      int               `json:"elapsedSeconds"`
	ActiveSetID  int               `json:"activeSetId"`
	Done         bool              `json:"done"`
	Committed    bool              `json:"committed"`
	WeightExempt bool              `json:"weightExempt"`
}

func (s *Service) state(ex models.Exercise, e *session.Exercise, committed, exempt bool) *ExerciseState {
	now := s.clock()
	e.Tick(now)
	return &ExerciseState{
		Key:          e.Key,
		Exercise:     ex,
		Sets:         e.Sets,
		Timer:        e.Timer,
		Elapsed:      e.Timer.Elapsed(now),
		ActiveSetID:  e.Active(),
		Done:         e.Done(),
		Committed:    committed,
		WeightExempt: exempt,
	}
}

// exempt applies the weight exemption predicate. Exercises without
// equipment in the plan are looked up in the catalog.
func (s *Service) exempt(ctx context.Context, ex models.Exercise) bool {
	if ex.Equipment == "" {
		cat, err := s.store.GetExercise(ctx, ex.ID)
		switch {
		case err == nil:
			ex.Equipment = cat.Equipment
		case !errors.Is(err, storage.ErrNotFound):
			s.logger.Warn("catalog lookup failed", "exercise_id", ex.ID, "error", err)
		}
	}
	return s.weightExempt(ex)
}

// Exercise returns the resolved state of one exercise instance.
func (s *Service) Exercise(ctx context.Context, userID int, key models.SessionKey) (*ExerciseState, error) {
	p, err := s.Plan(ctx, key.PlanID)
	if err != nil {
		return nil, err
	}
	_, ex, err := lookup(p, key)
	if err != nil {
		return nil, err
	}
	durable, err := s.repo.DurableSets(ctx, userID, key.PlanID)
	if err != nil {
		return nil, fmt.Errorf("reading workout data: %w", err)
	}
	e, committed, err := s.load(ctx, userID, key, ex, durable)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", key, err)
	}
	return s.state(ex, e, committed, s.exempt(ctx, ex)), nil
}

// Apply runs one transition and writes the result back to the cache. Skips
// need confirm to answer yes; a nil confirm counts as no. Rejected
// transitions return a *session.ValidationError and persist nothing.
func (s *Service) Apply(ctx context.Context, userID int, key models.SessionKey, action Action, confirm ConfirmFunc) (*ExerciseState, error) {
	p, err := s.Plan(ctx, key.PlanID)
	if err != nil {
		return nil, err
	}
	_, ex, err := lookup(p, key)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(exerciseKey(userID, key))
	defer unlock()

	durable, err := s.repo.DurableSets(ctx, userID, key.PlanID)
	if err != nil {
		return nil, fmt.Errorf("reading workout data: %w", err)
	}
	e, committed, err := s.load(ctx, userID, key, ex, durable)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", key, err)
	}
	if committed {
		return nil, fmt.Errorf("%s: %w", key, ErrDayCommitted)
	}

	exempt := s.exempt(ctx, ex)
	now := s.clock()
	switch action.Type {
	case ActionStart:
		err = e.Start(action.SetID, now)
	case ActionComplete:
		err = e.Complete(action.SetID, exempt, now)
	case ActionStopRest:
		err = e.StopRest(now)
	case ActionEdit:
		err = e.Edit(action.SetID)
	case ActionDelete:
		err = e.Delete(action.SetID)
	case ActionAdd:
		err = e.Add(now)
	case ActionInput:
		err = e.Input(action.SetID, action.Field, action.Value)
	case ActionSkip:
		err = s.skip(ctx, e, confirm, now)
	default:
		err = &session.ValidationError{Op: string(action.Type), Err: fmt.Errorf("unknown action %q", action.Type)}
	}
	if err != nil {
		return nil, err
	}

	if err := s.repo.SaveExercise(ctx, userID, e); err != nil {
		s.logger.Error("caching exercise state", "key", key.String(), "user_id", userID, "error", err)
		return nil, &PersistenceError{Op: "caching " + key.String(), Err: err}
	}
	return s.state(ex, e, false, exempt), nil
}

func (s *Service) skip(ctx context.Context, e *session.Exercise, confirm ConfirmFunc, now time.Time) error {
	if e.Timer != nil {
		return &session.ValidationError{Op: "skip", Err: session.ErrTimerActive}
	}
	if e.Skipped() {
		return &session.ValidationError{Op: "skip", Err: session.ErrAlreadySkipped}
	}
	if err := ask(ctx, confirm, "Skip "+e.Key.ExerciseID+"?"); err != nil {
		return err
	}
	return e.Skip(now)
}

func ask(ctx context.Context, confirm ConfirmFunc, prompt string) error {
	if confirm == nil {
		return ErrConfirmationRequired
	}
	ok, err := confirm(ctx, prompt)
	if err != nil {
		return fmt.Errorf("confirming: %w", err)
	}
	if !ok {
		return ErrConfirmationRequired
	}
	return nil
}
