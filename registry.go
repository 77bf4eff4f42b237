package finbrick

import (
	"errors"
	"fmt"
	"maps"
	"sort"
	"strings"
)

// MacroBrick is a named composite grouping bricks and other MacroBricks.
// Membership forms a DAG, no cycles allowed. It holds references only, never
// state: aggregated views are derived from member outputs after a run.
type MacroBrick struct {
	ID      string   `json:"id"`
	Name    string   `json:"name,omitempty"`
	Members []string `json:"members"`
	Tags    []string `json:"tags,omitempty"`
}

func (m *MacroBrick) String() string {
	return fmt.Sprintf("MacroBrick(%s, %d members)", m.ID, len(m.Members))
}

// reservedPrefixes can never start a brick or MacroBrick id.
var reservedPrefixes = []string{"b:", "mb:"}

// Registry is an immutable index of bricks and MacroBricks. All derived
// caches (flattened memberships, global overlaps) are computed once at
// construction and never mutated afterwards.
type Registry struct {
	bricks map[string]*Brick
	macros map[string]*MacroBrick
	flat   map[string][]string // macro id -> transitive member brick ids
	report *Report
}

// NewRegistry builds and validates a registry from the two id maps. It fails
// on structural problems (id conflicts, reserved prefixes, unknown members,
// cycles) so an unusable registry can never reach the execution engine.
// Non-structural findings (empty MacroBricks, overlaps) are kept as warnings
// in the report.
func NewRegistry(bricks map[string]*Brick, macros map[string]*MacroBrick) (*Registry, error) {
	r := &Registry{
		bricks: maps.Clone(bricks),
		macros: maps.Clone(macros),
		flat:   make(map[string][]string),
	}
	if r.bricks == nil {
		r.bricks = map[string]*Brick{}
	}
	if r.macros == nil {
		r.macros = map[string]*MacroBrick{}
	}
	report := &Report{Overlaps: map[string][]string{}}

	for _, id := range sortedKeys(r.bricks) {
		for _, prefix := range reservedPrefixes {
			if strings.HasPrefix(id, prefix) {
				report.IDConflicts = append(report.IDConflicts, fmt.Sprintf("brick id %q uses reserved prefix %q", id, prefix))
			}
		}
	}
	for _, id := range sortedKeys(r.macros) {
		for _, prefix := range reservedPrefixes {
			if strings.HasPrefix(id, prefix) {
				report.IDConflicts = append(report.IDConflicts, fmt.Sprintf("MacroBrick id %q uses reserved prefix %q", id, prefix))
			}
		}
		if _, ok := r.bricks[id]; ok {
			report.IDConflicts = append(report.IDConflicts, fmt.Sprintf("id %q is both a brick and a MacroBrick", id))
		}
	}

	// Expand every MacroBrick, collecting unknown ids and cycles instead of
	// stopping at the first problem.
	for _, id := range sortedKeys(r.macros) {
		flat, err := r.expand(id)
		if err != nil {
			var cycleErr *cycleError
			if errors.As(err, &cycleErr) {
				report.Cycles = append(report.Cycles, cycleErr.path)
			} else {
				report.UnknownIDs = append(report.UnknownIDs, err.(*ConfigError).ID)
			}
			continue
		}
		r.flat[id] = flat
		if len(r.macros[id].Members) == 0 {
			report.EmptyMacroBricks = append(report.EmptyMacroBricks, id)
		}
	}

	// Global overlap map: which MacroBricks contain brick X.
	owners := map[string][]string{}
	for _, id := range sortedKeys(r.macros) {
		for _, brickID := range r.flat[id] {
			owners[brickID] = append(owners[brickID], id)
		}
	}
	for brickID, macroIDs := range owners {
		if len(macroIDs) > 1 {
			sort.Strings(macroIDs)
			report.Overlaps[brickID] = macroIDs
		}
	}

	r.report = report
	if report.HasErrors() {
		return nil, report.Err()
	}
	return r, nil
}

// cycleError carries the membership path that closed the cycle.
type cycleError struct{ path []string }

func (e *cycleError) Error() string {
	return fmt.Sprintf("cycle in MacroBrick membership: %s", strings.Join(e.path, " -> "))
}

// expand resolves a MacroBrick to its flat transitive list of brick ids.
// Cycle detection distinguishes the active DFS path from fully expanded
// macros, so diamond-shaped membership (the same macro reachable through two
// branches) expands fine while a true cycle fails naming the offending path.
func (r *Registry) expand(macroID string) ([]string, error) {
	var flat []string
	brickSeen := map[string]bool{}
	macroDone := map[string]bool{}
	var path []string
	onPath := map[string]bool{}

	var dfs func(id string) error
	dfs = func(id string) error {
		if onPath[id] {
			return &cycleError{path: append(append([]string{}, path...), id)}
		}
		if macroDone[id] {
			// Fully expanded through another branch; its bricks are already
			// merged, so a diamond is legal.
			return nil
		}
		onPath[id] = true
		path = append(path, id)
		defer func() {
			delete(onPath, id)
			path = path[:len(path)-1]
		}()

		macro, ok := r.macros[id]
		if !ok {
			return configErrorf(id, "unknown MacroBrick")
		}
		for _, member := range macro.Members {
			switch {
			case r.IsMacro(member):
				if err := dfs(member); err != nil {
					return err
				}
			case r.IsBrick(member):
				if !brickSeen[member] {
					brickSeen[member] = true
					flat = append(flat, member)
				}
			default:
				return configErrorf(member, "unknown member id in MacroBrick %q", id)
			}
		}
		macroDone[id] = true
		return nil
	}
	if err := dfs(macroID); err != nil {
		return nil, err
	}
	return flat, nil
}

// IsBrick reports whether the id refers to a brick.
func (r *Registry) IsBrick(id string) bool { _, ok := r.bricks[id]; return ok }

// IsMacro reports whether the id refers to a MacroBrick.
func (r *Registry) IsMacro(id string) bool { _, ok := r.macros[id]; return ok }

// Brick returns the brick with the given id.
func (r *Registry) Brick(id string) (*Brick, error) {
	b, ok := r.bricks[id]
	if !ok {
		return nil, configErrorf(id, "brick not found in registry")
	}
	return b, nil
}

// Macro returns the MacroBrick with the given id.
func (r *Registry) Macro(id string) (*MacroBrick, error) {
	m, ok := r.macros[id]
	if !ok {
		return nil, configErrorf(id, "MacroBrick not found in registry")
	}
	return m, nil
}

// BrickIDs returns all brick ids, sorted.
func (r *Registry) BrickIDs() []string { return sortedKeys(r.bricks) }

// MacroIDs returns all MacroBrick ids, sorted.
func (r *Registry) MacroIDs() []string { return sortedKeys(r.macros) }

// FlatMembers returns the cached flat transitive member brick ids of a
// MacroBrick, in first-reached order.
func (r *Registry) FlatMembers(macroID string) ([]string, error) {
	flat, ok := r.flat[macroID]
	if !ok {
		return nil, configErrorf(macroID, "MacroBrick not found in registry")
	}
	return flat, nil
}

// Validate returns the report computed at construction.
func (r *Registry) Validate() *Report { return r.report }

// CheckDisjoint reports whether the given MacroBricks share any brick.
func (r *Registry) CheckDisjoint(macroIDs ...string) (*DisjointReport, error) {
	report := &DisjointReport{Disjoint: true}
	for i := 0; i < len(macroIDs); i++ {
		for k := i + 1; k < len(macroIDs); k++ {
			a, err := r.FlatMembers(macroIDs[i])
			if err != nil {
				return nil, err
			}
			b, err := r.FlatMembers(macroIDs[k])
			if err != nil {
				return nil, err
			}
			if shared := intersect(a, b); len(shared) > 0 {
				report.Disjoint = false
				report.Conflicts = append(report.Conflicts, Conflict{
					A: macroIDs[i], B: macroIDs[k], Shared: shared,
				})
			}
		}
	}
	return report, nil
}

func intersect(a, b []string) []string {
	set := map[string]bool{}
	for _, id := range a {
		set[id] = true
	}
	var out []string
	for _, id := range b {
		if set[id] {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
