package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/claude/repcoach/internal/progress"
)

// ProgressCmd computes metrics offline from an exported workout_data
// document ({planId: {sessionKey: sets}}).
type ProgressCmd struct {
	PlanFile   string `arg:"" type:"existingfile" help:"Plan file"`
	ExportFile string `arg:"" type:"existingfile" help:"workout_data export"`
	History    string `help:"Also print the history of this exercise id"`
}

func (c *ProgressCmd) Run(cli *CLI) error {
	_, p, err := loadPlan(c.PlanFile)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(c.ExportFile)
	if err != nil {
		return err
	}
	var doc map[string]progress.Snapshot
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing %s: %w", c.ExportFile, err)
	}
	snap := progress.Reconcile(doc[p.ID], nil)

	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(progress.Compute(p, snap)); err != nil {
		return err
	}
	if c.History != "" {
		return enc.Encode(progress.History(p, snap, c.History))
	}
	return nil
}
