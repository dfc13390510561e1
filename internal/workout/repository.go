package workout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/claude/repcoach/internal/cache"
	"github.com/claude/repcoach/internal/models"
	"github.com/claude/repcoach/internal/progress"
	"github.com/claude/repcoach/internal/session"
	"github.com/claude/repcoach/internal/storage"
)

// Repository is the typed access layer over the ephemeral cache and the
// durable store. Key strings are built here and nowhere else.
type Repository struct {
	cache cache.Cache
	store storage.Store
}

// NewRepository returns a repository over c and store.
func NewRepository(c cache.Cache, store storage.Store) *Repository {
	return &Repository{cache: c, store: store}
}

// cachedExercise is the cache value of one exercise instance: its sets and
// the running timer, written together.
type cachedExercise struct {
	Sets  []models.Set   `json:"sets"`
	Timer *session.Timer `json:"timer,omitempty"`
}

func userPrefix(userID int) string {
	return fmt.Sprintf("u%d:", userID)
}

func exerciseKey(userID int, key models.SessionKey) string {
	return userPrefix(userID) + key.String()
}

func pointerKey(userID int, planID string) string {
	return userPrefix(userID) + "workout-progress-" + planID
}

// CachedExercise returns the cached sets and timer for key.
func (r *Repository) CachedExercise(ctx context.Context, userID int, key models.SessionKey) ([]models.Set, *session.Timer, bool, error) {
	raw, ok, err := r.cache.Get(ctx, exerciseKey(userID, key))
	if err != nil || !ok {
		return nil, nil, false, err
	}
	ce, err := decodeCached(raw)
	if err != nil {
		return nil, nil, false, fmt.Errorf("decoding cached %s: %w", key, err)
	}
	return ce.Sets, ce.Timer, true, nil
}

// decodeCached accepts both the current object form and a bare set array.
func decodeCached(raw string) (cachedExercise, error) {
	var ce cachedExercise
	data := bytes.TrimSpace([]byte(raw))
	if len(data) > 0 && data[0] == '[' {
		err := json.Unmarshal(data, &ce.Sets)
		return ce, err
	}
	err := json.Unmarshal(data, &ce)
	return ce, err
}

// SaveExercise writes the whole exercise state to the cache.
func (r *Repository) SaveExercise(ctx context.Context, userID int, e *session.Exercise) error {
	data, err := json.Marshal(cachedExercise{Sets: e.Sets, Timer: e.Timer})
	if err != nil {
		return fmt.Errorf("encoding %s: %w", e.Key, err)
	}
	return r.cache.Set(ctx, exerciseKey(userID, e.Key), string(data))
}

// ClearExercise removes the cached state for key.
func (r *Repository) ClearExercise(ctx context.Context, userID int, key models.SessionKey) error {
	return r.cache.Remove(ctx, exerciseKey(userID, key))
}

// CachedSets returns the cached set arrays of every exercise of p.
func (r *Repository) CachedSets(ctx context.Context, userID int, p *models.Plan) (progress.Snapshot, error) {
	want := make(map[string]models.SessionKey)
	for _, w := range p.Weeks {
		for _, d := range w.Days {
			for _, k := range models.DayKeys(p.ID, w.Index, d) {
				want[exerciseKey(userID, k)] = k
			}
		}
	}

	keys, err := r.cache.Keys(ctx, userPrefix(userID)+"workout-")
	if err != nil {
		return nil, fmt.Errorf("listing cached sets: %w", err)
	}
	snap := make(progress.Snapshot)
	for _, ck := range keys {
		k, ok := want[ck]
		if !ok {
			continue
		}
		sets, _, found, err := r.CachedExercise(ctx, userID, k)
		if err != nil {
			return nil, err
		}
		if found {
			snap[k.String()] = sets
		}
	}
	return snap, nil
}

// DurableSets returns the committed set arrays of a plan. A user without a
// document yet has an empty snapshot.
func (r *Repository) DurableSets(ctx context.Context, userID int, planID string) (progress.Snapshot, error) {
	doc, err := r.store.GetDocument(ctx, storage.CollectionWorkoutData, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return progress.Snapshot{}, nil
	}
	if err != nil {
		return nil, err
	}
	snap := progress.Snapshot{}
	raw, ok := doc[planID]
	if !ok {
		return snap, nil
	}
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decoding workout data for plan %s: %w", planID, err)
	}
	if snap == nil {
		snap = progress.Snapshot{}
	}
	return snap, nil
}

// CommitSets merges set arrays into the plan's durable entry.
func (r *Repository) CommitSets(ctx context.Context, userID int, planID string, sets progress.Snapshot) error {
	entry := make(map[string]any, len(sets))
	for k, v := range sets {
		entry[k] = v
	}
	return r.store.SetDocument(ctx, storage.CollectionWorkoutData, userID, map[string]any{planID: entry})
}

// Pointer returns the durable progress pointer, or nil when none is set.
func (r *Repository) Pointer(ctx context.Context, userID int, planID string) (*models.Position, error) {
	doc, err := r.store.GetDocument(ctx, storage.CollectionWorkoutProgress, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	raw, ok := doc[planID]
	if !ok || string(raw) == "null" {
		return nil, nil
	}
	var pos models.Position
	if err := json.Unmarshal(raw, &pos); err != nil {
		return nil, fmt.Errorf("decoding progress pointer for plan %s: %w", planID, err)
	}
	return &pos, nil
}

// SetPointer overwrites the durable pointer. A nil pos clears it.
func (r *Repository) SetPointer(ctx context.Context, userID int, planID string, pos *models.Position) error {
	var v any
	if pos != nil {
		v = *pos
	}
	return r.store.SetDocument(ctx, storage.CollectionWorkoutProgress, userID, map[string]any{planID: v})
}

// CachedPointer returns the last pointer mirrored into the cache.
func (r *Repository) CachedPointer(ctx context.Context, userID int, planID string) (*models.Position, error) {
	raw, ok, err := r.cache.Get(ctx, pointerKey(userID, planID))
	if err != nil || !ok {
		return nil, err
	}
	var pos models.Position
	if err := json.Unmarshal([]byte(raw), &pos); err != nil {
		return nil, fmt.Errorf("decoding cached pointer for plan %s: %w", planID, err)
	}
	return &pos, nil
}

// MirrorPointer copies pos into the cache, or removes the entry when nil.
func (r *Repository) MirrorPointer(ctx context.Context, userID int, planID string, pos *models.Position) error {
	if pos == nil {
		return r.cache.Remove(ctx, pointerKey(userID, planID))
	}
	data, err := json.Marshal(pos)
	if err != nil {
		return fmt.Errorf("encoding pointer: %w", err)
	}
	return r.cache.Set(ctx, pointerKey(userID, planID), string(data))
}
