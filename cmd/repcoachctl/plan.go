package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/claude/repcoach/internal/importer"
	"github.com/claude/repcoach/internal/models"
	"github.com/claude/repcoach/internal/plan"
)

// PlanCmd groups the plan file commands.
type PlanCmd struct {
	Check PlanCheckCmd `cmd:"check" help:"Validate a plan file and print its structure"`
	Next  PlanNextCmd  `cmd:"next" help:"Print the day that follows a week and day"`
	Push  PlanPushCmd  `cmd:"push" help:"Upload a plan file to a RepCoach server"`
}

// loadPlan reads a .json or .json.gz plan file.
func loadPlan(path string) (models.RawPlan, *models.Plan, error) {
	data, err := importer.ReadFile(path)
	if err != nil {
		return models.RawPlan{}, nil, err
	}
	var raw models.RawPlan
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.RawPlan{}, nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	p, err := plan.Transform(raw)
	if err != nil {
		return raw, nil, err
	}
	return raw, p, nil
}

type PlanCheckCmd struct {
	File string `arg:"" type:"existingfile" help:"Plan file"`
}

func (c *PlanCheckCmd) Run(cli *CLI) error {
	_, p, err := loadPlan(c.File)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%s (%s): %d weeks, %d days per week\n", p.Name, p.ID, p.TotalWeeks, p.DaysPerWeek)
	for _, w := range p.Weeks {
		fmt.Fprintf(cli.out, "  week %d %s\n", w.Index, w.Name)
		for _, d := range w.Days {
			planned := 0
			for _, ex := range d.EligibleExercises() {
				planned += ex.Sets
			}
			fmt.Fprintf(cli.out, "    day %d %s: %d exercises, %d sets\n", d.Number, d.Name, len(d.EligibleExercises()), planned)
		}
	}
	return nil
}

type PlanNextCmd struct {
	File string `arg:"" type:"existingfile" help:"Plan file"`
	Week int    `required:"" help:"0-based week index"`
	Day  int    `required:"" help:"Day number"`
}

func (c *PlanNextCmd) Run(cli *CLI) error {
	_, p, err := loadPlan(c.File)
	if err != nil {
		return err
	}
	next, err := plan.NextDay(p.Weeks, c.Week, c.Day, p.TotalWeeks)
	if err != nil {
		return err
	}
	if next == nil {
		_, err = fmt.Fprintln(cli.out, "plan complete")
		return err
	}
	_, err = fmt.Fprintf(cli.out, "week %d day %d (%s, %s)\n", next.WeekIndex, next.DayNumber, next.WeekName, next.DayName)
	return err
}

type PlanPushCmd struct {
	File    string        `arg:"" type:"existingfile" help:"Plan file"`
	Server  string        `required:"" env:"REPCOACH_SERVER" help:"RepCoach server URL"`
	APIKey  string        `env:"REPCOACH_AUTH_API_KEY" help:"Admin API key (not needed for tailnet admins)"`
	Timeout time.Duration `default:"2m" help:"Overall timeout"`
}

func (c *PlanPushCmd) Run(cli *CLI) error {
	raw, _, err := loadPlan(c.File)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()
	id, err := importer.NewClient(c.Server, c.APIKey).PushPlan(ctx, raw)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cli.out, "stored plan", id)
	return err
}
