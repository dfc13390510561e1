package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const planFile = `{
  "id": "p1",
  "name": "Strength",
  "totalWeeks": 1,
  "daysPerWeek": 2,
  "workoutPlan": [{"weekIndex":0,"weekName":"Base","days":[
    {"dayNumber":1,"dayName":"Push","exercises":[{"exerciseId":"bench","name":"Bench","bodyPart":"any","gifUrl":"g/bench","weeklySetConfig":{"sets":2}}]},
    {"dayNumber":2,"dayName":"Pull","exercises":[{"exerciseId":"row","name":"Row","bodyPart":"any","gifUrl":"g/row","weeklySetConfig":{"sets":1}}]}
  ]}]
}`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cli := CLI{out: &out}
	parser, err := newParser(&cli)
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	if err != nil {
		return "", err
	}
	err = ctx.Run()
	return out.String(), err
}

func writePlan(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.json")
	require.NoError(t, os.WriteFile(path, []byte(planFile), 0o644))
	return path
}

func TestClockCommands(t *testing.T) {
	out, err := run(t, "clock", "seconds", "01:02:03")
	require.NoError(t, err)
	assert.Equal(t, "3723\n", out)

	out, err = run(t, "clock", "format", "90")
	require.NoError(t, err)
	assert.Equal(t, "01:30\n", out)

	out, err = run(t, "clock", "format", "90", "--hours")
	require.NoError(t, err)
	assert.Equal(t, "00:01:30\n", out)
}

func TestPlanCheck(t *testing.T) {
	out, err := run(t, "plan", "check", writePlan(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Strength (p1): 1 weeks, 2 days per week")
	assert.Contains(t, out, "day 1 Push: 1 exercises, 2 sets")
}

func TestPlanNext(t *testing.T) {
	path := writePlan(t)
	out, err := run(t, "plan", "next", path, "--week", "0", "--day", "1")
	require.NoError(t, err)
	assert.Equal(t, "week 0 day 2 (Base, Pull)\n", out)

	out, err = run(t, "plan", "next", path, "--week", "0", "--day", "2")
	require.NoError(t, err)
	assert.Equal(t, "plan complete\n", out)
}

func TestProgress(t *testing.T) {
	plan := writePlan(t)
	export := filepath.Join(t.TempDir(), "export.json")
	doc := `{"p1":{"workout-0-1-bench-p1":[
	  {"id":1,"state":"completed","weight":"60","reps":"8","date":"2026-03-02"},
	  {"id":2,"state":"skipped","skippedDates":["2026-03-02"]}
	]}}`
	require.NoError(t, os.WriteFile(export, []byte(doc), 0o644))

	out, err := run(t, "progress", plan, export, "--history", "bench")
	require.NoError(t, err)
	assert.Contains(t, out, `"totalPlannedSets": 3`)
	assert.Contains(t, out, `"totalCompletedPlannedSets": 1`)
	assert.True(t, strings.Count(out, `"exerciseId": "bench"`) >= 2, out)
}
