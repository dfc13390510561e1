package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// CLI is the offline companion tool for plan authors.
type CLI struct {
	Version kong.VersionFlag `help:"Show version information"`

	Clock    ClockCmd    `cmd:"clock" help:"Convert between seconds and clock display"`
	Plan     PlanCmd     `cmd:"plan" help:"Inspect and publish plan files"`
	Progress ProgressCmd `cmd:"progress" help:"Compute progress metrics from a workout data export"`

	out io.Writer `kong:"-"`
}

func newParser(cli *CLI) (*kong.Kong, error) {
	return kong.New(cli,
		kong.Name("repcoachctl"),
		kong.Description("Offline tools for RepCoach workout plans"),
		kong.Vars{"version": "repcoachctl " + Version},
		kong.UsageOnError(),
		kong.Bind(cli),
	)
}

func main() {
	cli := CLI{out: os.Stdout}
	parser, err := newParser(&cli)
	if err != nil {
		panic(err)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	if err := ctx.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
