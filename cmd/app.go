// Package cmd implements the CLI application to define, validate and run
// financial scenarios.
package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/finbricklab/finbrick"
	"github.com/google/subcommands"
)

// Register the subcommands.
// A main package calls Register() and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&runCmd{}, "scenario")
	c.Register(&validateCmd{}, "scenario")
	c.Register(&queryCmd{}, "scenario")
	c.Register(&ledgerCmd{}, "scenario")
	c.Register(&topicCmd{}, "documentation")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to
// use global variables.

var scenarioFile = flag.String("scenario-file", "scenario.json", "Path to the scenario definition file (JSON format)")

// DecodeScenario loads the scenario from the app scenario file.
func DecodeScenario() (*finbrick.Scenario, error) {
	f, err := os.Open(*scenarioFile)
	if err != nil {
		return nil, fmt.Errorf("cannot open scenario file %q: %w", *scenarioFile, err)
	}
	defer f.Close()
	return finbrick.DecodeScenario(f)
}

// printMarkdown renders markdown for the terminal.
func printMarkdown(doc string) {
	out, err := glamour.Render(doc, "auto")
	if err != nil {
		// Fall back to the raw markdown.
		fmt.Println(doc)
		return
	}
	fmt.Print(out)
}
