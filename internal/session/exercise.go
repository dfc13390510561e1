// Package session implements the per-exercise set state machine: starting,
// completing, resting, editing, deleting, adding and skipping sets.
package session

import (
	"regexp"
	"time"

	"github.com/claude/repcoach/internal/clock"
	"github.com/claude/repcoach/internal/models"
)

const (
	zeroDuration = "00:00:00"
	zeroRest     = "00:00"
	dateLayout   = "2006-01-02"
)

var numericOrEmpty = regexp.MustCompile(`^\d*(\.\d*)?$`)

// Exercise is the run-time state of one exercise instance. At most one set
// holds the timer, and at most one set is active, running or editing.
type Exercise struct {
	Key   models.SessionKey `json:"key"`
	Sets  []models.Set      `json:"sets"`
	Timer *Timer            `json:"timer,omitempty"`
}

// New builds the default set array: count sets, the first one active.
func New(key models.SessionKey, count int, now time.Time) *Exercise {
	if count < 1 {
		count = 1
	}
	e := &Exercise{Key: key, Sets: make([]models.Set, 0, count)}
	for i := 1; i <= count; i++ {
		state := models.SetLocked
		if i == 1 {
			state = models.SetActive
		}
		e.Sets = append(e.Sets, e.newSet(i, state, now))
	}
	return e
}

// FromSets wraps a loaded set array and re-derives which set is active.
func FromSets(key models.SessionKey, sets []models.Set, timer *Timer) *Exercise {
	e := &Exercise{Key: key, Sets: sets, Timer: timer}
	e.Normalize()
	return e
}

func (e *Exercise) newSet(id int, state models.SetState, now time.Time) models.Set {
	return models.Set{
		ID:           id,
		Duration:     zeroDuration,
		Rest:         zeroRest,
		State:        state,
		Date:         now.Format(dateLayout),
		ExerciseID:   e.Key.ExerciseID,
		SkippedDates: []string{},
	}
}

func (e *Exercise) find(setID int) int {
	for i := range e.Sets {
		if e.Sets[i].ID == setID {
			return i
		}
	}
	return -1
}

// Start runs the workout timer on an active or editing set.
func (e *Exercise) Start(setID int, now time.Time) error {
	if e.Timer != nil {
		return invalid("start", setID, ErrTimerActive)
	}
	i := e.find(setID)
	if i < 0 {
		return invalid("start", setID, ErrUnknownSet)
	}
	if s := e.Sets[i].State; s != models.SetActive && s != models.SetEditing {
		return invalid("start", setID, ErrInvalidState)
	}

	e.lockOthers(i)
	e.Sets[i].State = models.SetRunning
	e.Sets[i].Duration = zeroDuration
	e.Timer = &Timer{Kind: TimerWorkout, SetID: setID, ExerciseID: e.Key.ExerciseID, StartedAt: now}
	return nil
}

// Complete logs a running or editing set and starts its rest timer.
// weightExempt waives the weight requirement for body-weight style exercises.
func (e *Exercise) Complete(setID int, weightExempt bool, now time.Time) error {
	i := e.find(setID)
	if i < 0 {
		return invalid("complete", setID, ErrUnknownSet)
	}
	set := e.Sets[i]
	running := set.State == models.SetRunning && e.Timer != nil &&
		e.Timer.Kind == TimerWorkout && e.Timer.SetID == setID
	if set.State != models.SetEditing && !running {
		return invalid("complete", setID, ErrInvalidState)
	}
	if set.Reps == "" || (set.Weight == "" && !weightExempt) {
		return invalid("complete", setID, ErrMissingInput)
	}

	if running {
		e.Sets[i].Duration = clock.Format(e.Timer.Elapsed(now), true)
	}
	e.lockOthers(i)
	e.Sets[i].State = models.SetResting
	e.Sets[i].Rest = zeroRest
	e.Sets[i].Date = now.Format(dateLayout)
	e.Timer = &Timer{Kind: TimerRest, SetID: setID, ExerciseID: e.Key.ExerciseID, StartedAt: now}
	return nil
}

// StopRest ends the rest timer and activates the next pending set, if any.
func (e *Exercise) StopRest(now time.Time) error {
	if e.Timer == nil || e.Timer.Kind != TimerRest {
		return invalid("stop rest", 0, ErrNoTimer)
	}
	if i := e.find(e.Timer.SetID); i >= 0 && e.Sets[i].State == models.SetResting {
		e.Sets[i].Rest = clock.Format(e.Timer.Elapsed(now), false)
		e.Sets[i].State = models.SetCompleted
	}
	e.Timer = nil
	e.activateNext()
	return nil
}

// Edit reopens a completed set.
func (e *Exercise) Edit(setID int) error {
	if e.Timer != nil {
		return invalid("edit", setID, ErrTimerActive)
	}
	i := e.find(setID)
	if i < 0 {
		return invalid("edit", setID, ErrUnknownSet)
	}
	if e.Sets[i].State != models.SetCompleted {
		return invalid("edit", setID, ErrInvalidState)
	}
	e.lockOthers(i)
	e.Sets[i].State = models.SetEditing
	return nil
}

// Delete soft-deletes a set. The last visible set cannot be deleted.
func (e *Exercise) Delete(setID int) error {
	if e.Timer != nil {
		return invalid("delete", setID, ErrTimerActive)
	}
	i := e.find(setID)
	if i < 0 {
		return invalid("delete", setID, ErrUnknownSet)
	}
	state := e.Sets[i].State
	if state == models.SetSkipped || state == models.SetDeleted {
		return invalid("delete", setID, ErrInvalidState)
	}
	if len(models.VisibleSets(e.Sets)) <= 1 {
		return invalid("delete", setID, ErrLastSet)
	}
	e.Sets[i].State = models.SetDeleted
	if state == models.SetActive || state == models.SetEditing {
		e.activateNext()
	}
	return nil
}

// Add appends a set with the next id. It becomes active only when every
// visible set is already completed or skipped.
func (e *Exercise) Add(now time.Time) error {
	if e.Timer != nil {
		return invalid("add", 0, ErrTimerActive)
	}
	maxID, allDone := 0, true
	for _, s := range e.Sets {
		if s.ID > maxID {
			maxID = s.ID
		}
		if s.State == models.SetDeleted {
			continue
		}
		if s.State == models.SetSkipped {
			return invalid("add", 0, ErrAlreadySkipped)
		}
		if !s.IsTerminal() {
			allDone = false
		}
	}
	state := models.SetLocked
	if allDone {
		state = models.SetActive
	}
	e.Sets = append(e.Sets, e.newSet(maxID+1, state, now))
	return nil
}

// Skip marks the whole exercise as skipped for today. Callers must obtain the
// user's confirmation first.
func (e *Exercise) Skip(now time.Time) error {
	if e.Timer != nil {
		return invalid("skip", 0, ErrTimerActive)
	}
	if e.Skipped() {
		return invalid("skip", 0, ErrAlreadySkipped)
	}
	e.SkipAll(now)
	return nil
}

// SkipAll is the bulk form used when a whole day is skipped: it stops any
// timer and skips every visible set. Repeating it on the same day does not
// duplicate the skip date.
func (e *Exercise) SkipAll(now time.Time) {
	today := now.Format(dateLayout)
	e.Timer = nil
	for i := range e.Sets {
		s := &e.Sets[i]
		if s.State == models.SetDeleted {
			continue
		}
		s.State = models.SetSkipped
		if !contains(s.SkippedDates, today) {
			s.SkippedDates = append(s.SkippedDates, today)
		}
	}
}

// Input sets the weight or reps of the set being worked on.
func (e *Exercise) Input(setID int, field, value string) error {
	i := e.find(setID)
	if i < 0 {
		return invalid("input", setID, ErrUnknownSet)
	}
	state := e.Sets[i].State
	if state != models.SetActive && state != models.SetRunning && state != models.SetEditing {
		return invalid("input", setID, ErrInvalidState)
	}
	if e.Timer != nil && e.Timer.Kind == TimerRest && state != models.SetEditing {
		return invalid("input", setID, ErrTimerActive)
	}
	if !numericOrEmpty.MatchString(value) {
		return invalid("input", setID, ErrInvalidNumber)
	}
	switch field {
	case "weight":
		e.Sets[i].Weight = value
	case "reps":
		e.Sets[i].Reps = value
	default:
		return invalid("input", setID, ErrUnknownField)
	}
	return nil
}

// Tick refreshes the displayed duration or rest of the timed set.
func (e *Exercise) Tick(now time.Time) {
	if e.Timer == nil {
		return
	}
	i := e.find(e.Timer.SetID)
	if i < 0 {
		return
	}
	switch e.Timer.Kind {
	case TimerWorkout:
		e.Sets[i].Duration = clock.Format(e.Timer.Elapsed(now), true)
	case TimerRest:
		e.Sets[i].Rest = clock.Format(e.Timer.Elapsed(now), false)
	}
}

// Normalize re-derives the active set after a load. A timer that no longer
// matches this exercise or its set is discarded.
func (e *Exercise) Normalize() {
	if e.Timer != nil && !e.timerMatches() {
		e.Timer = nil
	}
	if e.Timer != nil {
		ti := e.find(e.Timer.SetID)
		e.lockOthers(ti)
		return
	}

	editing := -1
	for i := range e.Sets {
		switch e.Sets[i].State {
		case models.SetRunning:
			e.Sets[i].State = models.SetActive
		case models.SetResting:
			e.Sets[i].State = models.SetCompleted
		}
		if e.Sets[i].State == models.SetEditing && editing < 0 {
			editing = i
		}
	}
	if editing >= 0 {
		e.lockOthers(editing)
		return
	}
	e.lockOthers(-1)
	e.activateNext()
}

func (e *Exercise) timerMatches() bool {
	if e.Timer.ExerciseID != e.Key.ExerciseID {
		return false
	}
	i := e.find(e.Timer.SetID)
	if i < 0 {
		return false
	}
	switch e.Timer.Kind {
	case TimerWorkout:
		return e.Sets[i].State == models.SetRunning
	case TimerRest:
		return e.Sets[i].State == models.SetResting
	}
	return false
}

// lockOthers demotes every active, running or editing set except index keep.
func (e *Exercise) lockOthers(keep int) {
	for i := range e.Sets {
		if i == keep {
			continue
		}
		switch e.Sets[i].State {
		case models.SetActive, models.SetRunning, models.SetEditing:
			e.Sets[i].State = models.SetLocked
		}
	}
}

func (e *Exercise) activateNext() {
	for _, s := range e.Sets {
		switch s.State {
		case models.SetActive, models.SetRunning, models.SetEditing:
			return
		}
	}
	for i := range e.Sets {
		if e.Sets[i].IsPending() {
			e.Sets[i].State = models.SetActive
			return
		}
	}
}

// Skipped reports whether the exercise has been skipped.
func (e *Exercise) Skipped() bool {
	for _, s := range e.Sets {
		if s.State == models.SetSkipped {
			return true
		}
	}
	return false
}

// Done reports whether every visible set is completed or skipped.
func (e *Exercise) Done() bool {
	visible := models.VisibleSets(e.Sets)
	if len(visible) == 0 {
		return false
	}
	for _, s := range visible {
		if !s.IsTerminal() {
			return false
		}
	}
	return true
}

// Active returns the id of the set currently being worked on, or 0.
func (e *Exercise) Active() int {
	for _, s := range e.Sets {
		switch s.State {
		case models.SetActive, models.SetRunning, models.SetEditing, models.SetResting:
			return s.ID
		}
	}
	return 0
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
