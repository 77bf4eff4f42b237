package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/finbricklab/finbrick"
	"github.com/finbricklab/finbrick/renderer"
	"github.com/google/subcommands"
)

type ledgerCmd struct {
	runCmd
	format string
}

func (*ledgerCmd) Name() string { return "ledger" }
func (*ledgerCmd) Synopsis() string {
	return "run the scenario and export the double-entry ledger"
}
func (*ledgerCmd) Usage() string {
	return `fbx ledger [run flags] [-format <format>]

  Runs the scenario and writes the resulting double-entry ledger to stdout.
  Entry ids are content-addressed, so an unchanged scenario always produces
  the same stream.

Usage Examples:
# Ledger as JSONL, one entry per line.
$ fbx ledger -format jsonl > ledger.jsonl

# Ledger as CSV for a spreadsheet.
$ fbx ledger -format csv > ledger.csv
`
}

func (c *ledgerCmd) SetFlags(f *flag.FlagSet) {
	c.runCmd.SetFlags(f)
	f.StringVar(&c.format, "format", "table", "Output format (table, jsonl, csv).")
}

func (c *ledgerCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	res, err := c.execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	switch c.format {
	case "jsonl":
		err = finbrick.EncodeLedger(os.Stdout, res.Journal)
	case "csv":
		err = finbrick.EncodeLedgerCSV(os.Stdout, res.Journal)
	case "table", "":
		printMarkdown(renderer.LedgerMarkdown(res.Journal))
	default:
		err = fmt.Errorf("unknown format %q (want table, jsonl or csv)", c.format)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
