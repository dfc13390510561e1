package main

import (
	"fmt"

	"github.com/claude/repcoach/internal/clock"
)

// ClockCmd groups the clock codec commands.
type ClockCmd struct {
	Seconds ClockSecondsCmd `cmd:"seconds" help:"Parse MM:SS or HH:MM:SS into seconds"`
	Format  ClockFormatCmd  `cmd:"format" help:"Render seconds as MM:SS or HH:MM:SS"`
}

type ClockSecondsCmd struct {
	Text string `arg:"" help:"Clock text"`
}

func (c *ClockSecondsCmd) Run(cli *CLI) error {
	_, err := fmt.Fprintln(cli.out, clock.Seconds(c.Text))
	return err
}

type ClockFormatCmd struct {
	Seconds int  `arg:"" help:"Elapsed seconds"`
	Hours   bool `help:"Always include the hours field"`
}

func (c *ClockFormatCmd) Run(cli *CLI) error {
	_, err := fmt.Fprintln(cli.out, clock.Format(c.Seconds, c.Hours))
	return err
}
