package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/finbricklab/finbrick"
	"github.com/finbricklab/finbrick/month"
	"github.com/finbricklab/finbrick/renderer"
	"github.com/finbricklab/finbrick/strategies"
	"github.com/google/subcommands"
)

type runCmd struct {
	start     string
	months    int
	selection string
	check     string
	tolerance float64
	json      bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "run the scenario and report the projection" }
func (*runCmd) Usage() string {
	return `fbx run [-s <month>] [-m <months>] [-select <ids>] [-check <mode>] [-json]

  Runs the scenario over the given timeline and prints a projection report:
  yearly totals, MacroBrick aggregates and lifecycle events. With -json the
  full result is written as one canonical JSON document instead.

Usage Examples:
# Project the next ten years.
$ fbx run

# Project 2026 only, for the selected MacroBrick.
$ fbx run -s 2026-01 -m 12 -select household
`
}

func (c *runCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.start, "s", "", "First month of the projection (YYYY-MM, defaults to the current month).")
	f.IntVar(&c.months, "m", 120, "Number of months to project.")
	f.StringVar(&c.selection, "select", "", "Comma-separated brick or MacroBrick ids to execute (defaults to all).")
	f.StringVar(&c.check, "check", "warn", "Post-run validation mode (raise, warn, off).")
	f.Float64Var(&c.tolerance, "tolerance", 0, "Absolute tolerance for post-run validation checks.")
	f.BoolVar(&c.json, "json", false, "Write the run result as canonical JSON to stdout.")
}

// execute is the common run pipeline shared by the run, query and ledger
// commands.
func (c *runCmd) execute() (*finbrick.RunResult, error) {
	s, err := DecodeScenario()
	if err != nil {
		return nil, err
	}
	start := month.Now()
	if c.start != "" {
		if start, err = month.Parse(c.start); err != nil {
			return nil, fmt.Errorf("invalid start month: %w", err)
		}
	}
	var selection []string
	if c.selection != "" {
		selection = strings.Split(c.selection, ",")
		for i := range selection {
			selection[i] = strings.TrimSpace(selection[i])
		}
	}
	res, err := s.Run(start, c.months, selection, strategies.DefaultCatalog())
	if err != nil {
		return nil, err
	}
	switch c.check {
	case "raise":
		if err := finbrick.ValidateRun(res, s.Bricks, finbrick.ModeRaise, c.tolerance); err != nil {
			return nil, err
		}
	case "warn", "":
		finbrick.ValidateRun(res, s.Bricks, finbrick.ModeWarn, c.tolerance)
	case "off":
	default:
		return nil, fmt.Errorf("unknown check mode %q (want raise, warn or off)", c.check)
	}
	return res, nil
}

func (c *runCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	res, err := c.execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if c.json {
		if err := finbrick.EncodeRunResult(os.Stdout, res); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}
	printMarkdown(renderer.RunMarkdown(res))
	return subcommands.ExitSuccess
}
