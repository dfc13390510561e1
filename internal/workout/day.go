package workout

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/claude/repcoach/internal/models"
	"github.com/claude/repcoach/internal/plan"
	"github.com/claude/repcoach/internal/progress"
	"github.com/claude/repcoach/internal/session"
)

// ExerciseSummary is one exercise row of a day view.
type ExerciseSummary struct {
	Exercise  models.Exercise `json:"exercise"`
	Completed int             `json:"completedSets"`
	Skipped   int             `json:"skippedSets"`
	Visible   int             `json:"visibleSets"`
	Recorded  bool            `json:"recorded"`
	Done      bool            `json:"done"`
}

// DayState is a day of the plan with the user's recorded progress.
type DayState struct {
	Position  models.Position   `json:"position"`
	Exercises []ExerciseSummary `json:"exercises"`
	Complete  bool              `json:"isDayComplete"`
}

// Outcome is the result of finishing or skipping a day. Next is nil when
// the plan has been completed.
type Outcome struct {
	Next         *models.Position `json:"next"`
	PlanComplete bool             `json:"planComplete"`
	Committed    int              `json:"committedExercises"`
}

func findDay(p *models.Plan, weekIndex, dayNumber int) (*models.Week, *models.Day, error) {
	w := plan.FindWeek(p.Weeks, weekIndex)
	d := plan.FindDay(w, dayNumber)
	if d == nil {
		return nil, nil, fmt.Errorf("week %d day %d: %w", weekIndex, dayNumber, ErrUnknownExercise)
	}
	return w, d, nil
}

// Day returns the day view with the completion gate evaluated.
func (s *Service) Day(ctx context.Context, userID int, planID string, weekIndex, dayNumber int) (*DayState, error) {
	p, err := s.Plan(ctx, planID)
	if err != nil {
		return nil, err
	}
	w, d, err := findDay(p, weekIndex, dayNumber)
	if err != nil {
		return nil, err
	}
	durable, cached, err := s.snapshots(ctx, userID, p)
	if err != nil {
		return nil, err
	}

	out := &DayState{
		Position: models.Position{WeekIndex: w.Index, DayNumber: d.Number, WeekName: w.Name, DayName: d.Name},
		Complete: progress.DayComplete(p, weekIndex, dayNumber, durable, cached),
	}
	for _, ex := range d.EligibleExercises() {
		key := models.SessionKey{PlanID: p.ID, WeekIndex: w.Index, DayNumber: d.Number, ExerciseID: ex.ID}
		sum := ExerciseSummary{Exercise: ex}
		sets, ok := progress.Resolve(key.String(), durable, cached)
		sum.Recorded = ok
		visible := models.VisibleSets(sets)
		sum.Visible = len(visible)
		for _, st := range visible {
			switch {
			case st.State == models.SetSkipped:
				sum.Skipped++
			case st.IsCompleted():
				sum.Completed++
			}
		}
		sum.Done = ok && sum.Visible > 0 && sum.Completed+sum.Skipped == sum.Visible
		out.Exercises = append(out.Exercises, sum)
	}
	return out, nil
}

// DayComplete evaluates the completion gate for one day.
func (s *Service) DayComplete(ctx context.Context, userID int, planID string, weekIndex, dayNumber int) (bool, error) {
	p, err := s.Plan(ctx, planID)
	if err != nil {
		return false, err
	}
	if _, _, err := findDay(p, weekIndex, dayNumber); err != nil {
		return false, err
	}
	durable, cached, err := s.snapshots(ctx, userID, p)
	if err != nil {
		return false, err
	}
	return progress.DayComplete(p, weekIndex, dayNumber, durable, cached), nil
}

func (s *Service) snapshots(ctx context.Context, userID int, p *models.Plan) (durable, cached progress.Snapshot, err error) {
	durable, err = s.repo.DurableSets(ctx, userID, p.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("reading workout data: %w", err)
	}
	cached, err = s.repo.CachedSets(ctx, userID, p)
	if err != nil {
		return nil, nil, fmt.Errorf("reading cached sets: %w", err)
	}
	return durable, cached, nil
}

// FinishDay commits a completed day and advances the progress pointer.
//
// The day must pass the completion gate with no timer running. On a
// navigation error nothing is written. The cache for the day is cleared
// only after the durable writes succeed; a failed write is returned as a
// *PersistenceError and can be retried.
func (s *Service) FinishDay(ctx context.Context, userID int, planID string, weekIndex, dayNumber int) (*Outcome, error) {
	p, err := s.Plan(ctx, planID)
	if err != nil {
		return nil, err
	}
	_, d, err := findDay(p, weekIndex, dayNumber)
	if err != nil {
		return nil, err
	}
	keys := models.DayKeys(p.ID, weekIndex, *d)
	unlock := s.lockDay(userID, keys)
	defer unlock()

	durable, err := s.repo.DurableSets(ctx, userID, p.ID)
	if err != nil {
		return nil, fmt.Errorf("reading workout data: %w", err)
	}
	day := make(progress.Snapshot, len(keys))
	cached := make(progress.Snapshot, len(keys))
	for _, key := range keys {
		ex, err := s.loadForDay(ctx, userID, p, key, durable)
		if err != nil {
			return nil, err
		}
		if ex.Timer != nil {
			return nil, fmt.Errorf("%s: %w", key.ExerciseID, ErrTimerRunning)
		}
		if _, ok := durable[key.String()]; !ok {
			sets, _, found, err := s.repo.CachedExercise(ctx, userID, key)
			if err != nil {
				return nil, fmt.Errorf("reading cached %s: %w", key, err)
			}
			if found {
				cached[key.String()] = sets
			}
		}
		day[key.String()] = ex.Sets
	}
	if !progress.DayComplete(p, weekIndex, dayNumber, durable, cached) {
		return nil, ErrDayIncomplete
	}

	return s.commitDay(ctx, userID, p, weekIndex, dayNumber, keys, day)
}

// SkipDay marks every eligible exercise of the day as skipped, bypassing
// the completion gate, then commits it like FinishDay.
func (s *Service) SkipDay(ctx context.Context, userID int, planID string, weekIndex, dayNumber int, confirm ConfirmFunc) (*Outcome, error) {
	p, err := s.Plan(ctx, planID)
	if err != nil {
		return nil, err
	}
	w, d, err := findDay(p, weekIndex, dayNumber)
	if err != nil {
		return nil, err
	}
	if err := ask(ctx, confirm, fmt.Sprintf("Skip %s of %s?", d.Name, w.Name)); err != nil {
		return nil, err
	}

	keys := models.DayKeys(p.ID, weekIndex, *d)
	unlock := s.lockDay(userID, keys)
	defer unlock()

	durable, err := s.repo.DurableSets(ctx, userID, p.ID)
	if err != nil {
		return nil, fmt.Errorf("reading workout data: %w", err)
	}
	now := s.clock()
	day := make(progress.Snapshot, len(keys))
	for _, key := range keys {
		ex, err := s.loadForDay(ctx, userID, p, key, durable)
		if err != nil {
			return nil, err
		}
		ex.SkipAll(now)
		if err := s.repo.SaveExercise(ctx, userID, ex); err != nil {
			return nil, &PersistenceError{Op: "caching " + key.String(), Err: err}
		}
		day[key.String()] = ex.Sets
	}

	return s.commitDay(ctx, userID, p, weekIndex, dayNumber, keys, day)
}

func (s *Service) lockDay(userID int, keys []models.SessionKey) func() {
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = exerciseKey(userID, k)
	}
	return s.locks.Lock(names...)
}

func (s *Service) loadForDay(ctx context.Context, userID int, p *models.Plan, key models.SessionKey, durable progress.Snapshot) (*session.Exercise, error) {
	_, ex, err := lookup(p, key)
	if err != nil {
		return nil, err
	}
	e, _, err := s.load(ctx, userID, key, ex, durable)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", key, err)
	}
	return e, nil
}

// commitDay navigates, writes the day's sets and the pointer, then clears
// the day's cache entries.
func (s *Service) commitDay(ctx context.Context, userID int, p *models.Plan, weekIndex, dayNumber int, keys []models.SessionKey, day progress.Snapshot) (*Outcome, error) {
	next, err := plan.NextDay(p.Weeks, weekIndex, dayNumber, p.TotalWeeks)
	if err != nil {
		s.logger.Warn("next day navigation failed", "plan_id", p.ID, "user_id", userID,
			"week", weekIndex, "day", dayNumber, "error", err)
		return nil, err
	}

	if err := s.repo.CommitSets(ctx, userID, p.ID, day); err != nil {
		s.logger.Error("committing day", "plan_id", p.ID, "user_id", userID, "error", err)
		return nil, &PersistenceError{Op: "committing day", Err: err}
	}
	if err := s.repo.SetPointer(ctx, userID, p.ID, next); err != nil {
		s.logger.Error("writing progress pointer", "plan_id", p.ID, "user_id", userID, "error", err)
		return nil, &PersistenceError{Op: "writing progress pointer", Err: err}
	}

	for _, key := range keys {
		if err := s.repo.ClearExercise(ctx, userID, key); err != nil {
			s.logger.Warn("clearing cached exercise", "key", key.String(), "user_id", userID, "error", err)
		}
	}
	if err := s.repo.MirrorPointer(ctx, userID, p.ID, next); err != nil {
		s.logger.Warn("mirroring progress pointer", "plan_id", p.ID, "user_id", userID, "error", err)
	}
	s.recordHistory(ctx, userID, p.ID, weekIndex, dayNumber, keys, day)

	s.logger.Info("day committed", "plan_id", p.ID, "user_id", userID,
		"week", weekIndex, "day", dayNumber, "plan_complete", next == nil)
	return &Outcome{Next: next, PlanComplete: next == nil, Committed: len(day)}, nil
}

// recordHistory appends the committed sets to set_history. Failures are
// logged; the document write is authoritative.
func (s *Service) recordHistory(ctx context.Context, userID int, planID string, weekIndex, dayNumber int, keys []models.SessionKey, day progress.Snapshot) {
	batch := uuid.New()
	today := s.clock()
	var rows []models.SetHistoryRow
	for _, key := range keys {
		for _, st := range models.VisibleSets(day[key.String()]) {
			if !st.IsTerminal() {
				continue
			}
			row := models.SetHistoryRow{
				BatchID:    batch,
				UserID:     userID,
				PlanID:     planID,
				WeekIndex:  weekIndex,
				DayNumber:  dayNumber,
				ExerciseID: key.ExerciseID,
				SetNumber:  st.ID,
				SessionDay: s.setDay(st, today),
				Skipped:    st.State == models.SetSkipped,
			}
			if w, err := strconv.ParseFloat(st.Weight, 64); err == nil {
				row.Weight = &w
			}
			if r, err := strconv.Atoi(st.Reps); err == nil {
				row.Reps = &r
			}
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		return
	}
	if _, err := s.store.InsertSetHistory(ctx, rows); err != nil {
		s.logger.Warn("recording set history", "plan_id", planID, "user_id", userID, "error", err)
	}
}

func (s *Service) setDay(st models.Set, fallback time.Time) time.Time {
	date := st.Date
	if st.State == models.SetSkipped && len(st.SkippedDates) > 0 {
		date = st.SkippedDates[len(st.SkippedDates)-1]
	}
	if t, err := time.ParseInLocation("2006-01-02", date, s.loc); err == nil {
		return t
	}
	y, m, d := fallback.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

// Progress computes the plan metrics from the durable store. With live set,
// uncommitted cached sets are included where the durable store has none.
func (s *Service) Progress(ctx context.Context, userID int, planID string, live bool) (progress.Metrics, error) {
	p, err := s.Plan(ctx, planID)
	if err != nil {
		return progress.Metrics{}, err
	}
	snap, err := s.snapshot(ctx, userID, p, live)
	if err != nil {
		return progress.Metrics{}, err
	}
	return progress.Compute(p, snap), nil
}

// History returns the reconciled history entries of a plan, optionally
// restricted to one exercise.
func (s *Service) History(ctx context.Context, userID int, planID, exerciseID string) ([]models.HistoryEntry, error) {
	p, err := s.Plan(ctx, planID)
	if err != nil {
		return nil, err
	}
	snap, err := s.snapshot(ctx, userID, p, true)
	if err != nil {
		return nil, err
	}
	return progress.History(p, snap, exerciseID), nil
}

func (s *Service) snapshot(ctx context.Context, userID int, p *models.Plan, live bool) (progress.Snapshot, error) {
	if !live {
		snap, err := s.repo.DurableSets(ctx, userID, p.ID)
		if err != nil {
			return nil, fmt.Errorf("reading workout data: %w", err)
		}
		return snap, nil
	}
	durable, cached, err := s.snapshots(ctx, userID, p)
	if err != nil {
		return nil, err
	}
	return progress.Reconcile(durable, cached), nil
}
