package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/PaesslerAG/jsonpath"
	"github.com/finbricklab/finbrick"
	"github.com/google/subcommands"
)

type queryCmd struct {
	runCmd
}

func (*queryCmd) Name() string { return "query" }
func (*queryCmd) Synopsis() string {
	return "run the scenario and extract values from the result with a JSONPath"
}
func (*queryCmd) Usage() string {
	return `fbx query [run flags] <jsonpath>

  Runs the scenario and evaluates a JSONPath expression against the canonical
  JSON result, for scripting and spot checks.

Usage Examples:
# Equity series values.
$ fbx query '$.totals.equity.values'

# Execution order.
$ fbx query '$.meta.execution_order'
`
}

func (c *queryCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "query needs exactly one JSONPath argument")
		return subcommands.ExitUsageError
	}
	res, err := c.execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	var buf bytes.Buffer
	if err := finbrick.EncodeRunResult(&buf, res); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	jobj := make(map[string]any)
	if err := json.Unmarshal(buf.Bytes(), &jobj); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	jval, err := jsonpath.Get(f.Arg(0), jobj)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot evaluate %q: %v\n", f.Arg(0), err)
		return subcommands.ExitFailure
	}
	out, err := json.Marshal(jval)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Println(string(out))
	return subcommands.ExitSuccess
}
