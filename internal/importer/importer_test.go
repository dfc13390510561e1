package importer

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claude/repcoach/internal/storage"
)

const planFile = `{
  "id": "strength-4w",
  "name": "Strength",
  "totalWeeks": 1,
  "daysPerWeek": 1,
  "workoutPlan": "[{\"weekIndex\":0,\"weekName\":\"W1\",\"days\":[{\"dayNumber\":1,\"dayName\":\"Push\",\"exercises\":[{\"exerciseId\":\"bench\",\"name\":\"Bench\",\"weeklySetConfig\":{\"sets\":3}}]}]}]"
}`

const anonymousPlan = `{
  "name": "No ID",
  "totalWeeks": 1,
  "daysPerWeek": 1,
  "workoutPlan": [{"weekIndex":0,"days":[{"dayNumber":1,"exercises":[]}]}]
}`

const exercisesFile = `[
  {"id":"bench","name":"Bench Press","bodyPart":"chest","equipment":"barbell","instructions":["lie down","press"]},
  {"id":"","name":"broken"}
]`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func writeGzip(t *testing.T, dir, name, content string) {
	t.Helper()
	f, err := os.Create(filepath.Join(dir, name))
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestImport(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a-strength.json", planFile)
	writeGzip(t, dir, "b-anon.json.gz", anonymousPlan)
	writeFile(t, dir, "c-broken.json", `{"id":"x","workoutPlan":"{"}`)
	writeFile(t, dir, "d-garbage.json", `not json`)
	writeFile(t, dir, "empty.json", "  ")
	writeFile(t, dir, "exercises.json", exercisesFile)
	writeFile(t, dir, "notes.txt", "ignored")

	store := storage.NewMemory()
	stats, err := New(store, discard(), 1, false).Import(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.PlansImported)
	assert.Equal(t, 1, stats.PlansRejected)
	assert.Equal(t, []string{"c-broken.json"}, stats.RejectedFiles)
	assert.Equal(t, 1, stats.FilesErrored)
	assert.Equal(t, 1, stats.FilesSkipped)
	assert.EqualValues(t, 1, stats.ExercisesLoaded)

	plans, err := store.ListPlans(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 2)
	var ids []string
	for _, p := range plans {
		ids = append(ids, p.ID)
	}
	assert.Contains(t, ids, "strength-4w")

	ex, err := store.GetExercise(context.Background(), "bench")
	require.NoError(t, err)
	assert.Equal(t, "barbell", ex.Equipment)

	logs, err := store.QueryImportLogs(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "success", logs[0].Status)
	assert.Equal(t, 2, logs[0].PlansImported)
	require.NotNil(t, logs[0].Metadata)
	assert.Contains(t, string(*logs[0].Metadata), "c-broken.json")
}

func TestImportDryRun(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "plan.json", planFile)

	store := storage.NewMemory()
	stats, err := New(store, discard(), 1, true).Import(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.PlansImported)

	plans, err := store.ListPlans(context.Background())
	require.NoError(t, err)
	assert.Empty(t, plans)
	logs, err := store.QueryImportLogs(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestImportMissingDir(t *testing.T) {
	_, err := New(storage.NewMemory(), discard(), 1, false).Import(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	writeGzip(t, dir, "p.json.gz", planFile)
	writeFile(t, dir, "bad.json.gz", "not gzip")

	data, err := ReadFile(filepath.Join(dir, "p.json.gz"))
	require.NoError(t, err)
	assert.Equal(t, planFile, string(data))

	_, err = ReadFile(filepath.Join(dir, "bad.json.gz"))
	assert.Error(t, err)
}
