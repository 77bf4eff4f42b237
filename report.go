package finbrick

import (
	"errors"
	"fmt"
	"strings"
)

// Report is the aggregated outcome of registry validation. Structural
// findings (unknown ids, cycles, id conflicts) are errors and keep the
// registry from being used; empty MacroBricks and overlaps are warnings.
type Report struct {
	UnknownIDs       []string            `json:"unknown_ids,omitempty"`
	Cycles           [][]string          `json:"cycles,omitempty"`
	EmptyMacroBricks []string            `json:"empty_macrobricks,omitempty"`
	IDConflicts      []string            `json:"id_conflicts,omitempty"`
	Overlaps         map[string][]string `json:"overlaps,omitempty"` // brick id -> owning MacroBrick ids
}

// HasErrors reports whether any hard error was found.
func (r *Report) HasErrors() bool {
	return len(r.UnknownIDs) > 0 || len(r.Cycles) > 0 || len(r.IDConflicts) > 0
}

// HasWarnings reports whether any warning was found.
func (r *Report) HasWarnings() bool {
	return len(r.EmptyMacroBricks) > 0 || len(r.Overlaps) > 0
}

// IsValid reports whether validation passed. Warnings do not invalidate.
func (r *Report) IsValid() bool { return !r.HasErrors() }

// ExitCode maps the report to a CLI exit code: 0 valid, 1 errors, 2 warnings only.
func (r *Report) ExitCode() int {
	switch {
	case r.HasErrors():
		return 1
	case r.HasWarnings():
		return 2
	default:
		return 0
	}
}

// Err combines every hard error into one, or nil when the report is valid.
func (r *Report) Err() error {
	var errs []error
	for _, id := range r.UnknownIDs {
		errs = append(errs, configErrorf(id, "unknown member id"))
	}
	for _, cycle := range r.Cycles {
		errs = append(errs, &cycleError{path: cycle})
	}
	for _, conflict := range r.IDConflicts {
		errs = append(errs, errors.New(conflict))
	}
	return errors.Join(errs...)
}

func (r *Report) String() string {
	var lines []string
	if r.IsValid() {
		lines = append(lines, "validation passed")
	} else {
		lines = append(lines, "validation failed")
	}
	if len(r.UnknownIDs) > 0 {
		lines = append(lines, "unknown ids: "+strings.Join(r.UnknownIDs, ", "))
	}
	for _, cycle := range r.Cycles {
		lines = append(lines, "cycle: "+strings.Join(cycle, " -> "))
	}
	if len(r.IDConflicts) > 0 {
		lines = append(lines, "id conflicts: "+strings.Join(r.IDConflicts, ", "))
	}
	if len(r.EmptyMacroBricks) > 0 {
		lines = append(lines, "empty MacroBricks: "+strings.Join(r.EmptyMacroBricks, ", "))
	}
	for _, brickID := range sortedKeys(r.Overlaps) {
		lines = append(lines, fmt.Sprintf("brick %q shared by: %s", brickID, strings.Join(r.Overlaps[brickID], ", ")))
	}
	return strings.Join(lines, "\n")
}

// Conflict names two MacroBricks and the bricks they share.
type Conflict struct {
	A      string   `json:"macrobrick_a"`
	B      string   `json:"macrobrick_b"`
	Shared []string `json:"shared_bricks"`
}

// DisjointReport is the outcome of a disjointness check over MacroBricks.
type DisjointReport struct {
	Disjoint  bool       `json:"disjoint"`
	Conflicts []Conflict `json:"conflicts,omitempty"`
}

func (r *DisjointReport) String() string {
	if r.Disjoint {
		return "MacroBricks are disjoint (no shared bricks)"
	}
	lines := []string{"MacroBricks are not disjoint:"}
	for _, c := range r.Conflicts {
		lines = append(lines, fmt.Sprintf("  %q and %q share: %s", c.A, c.B, strings.Join(c.Shared, ", ")))
	}
	return strings.Join(lines, "\n")
}
