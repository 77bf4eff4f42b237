package finbrick

import (
	"fmt"
	"math"
	"sort"

	"github.com/finbricklab/finbrick/month"
)

// Scenario owns the brick and MacroBrick definitions for one projection. Each
// call to Run produces a fresh, independent result: brick definitions are
// cloned into per-run working copies so no state bleeds between runs.
type Scenario struct {
	ID       string        `json:"id,omitempty"`
	Name     string        `json:"name,omitempty"`
	Currency string        `json:"currency,omitempty"`
	Bricks   []*Brick      `json:"bricks"`
	Macros   []*MacroBrick `json:"macrobricks,omitempty"`
}

// Registry builds the validated immutable index over the scenario's bricks
// and MacroBricks.
func (s *Scenario) Registry() (*Registry, error) {
	bricks := make(map[string]*Brick, len(s.Bricks))
	for _, b := range s.Bricks {
		if _, dup := bricks[b.ID]; dup {
			return nil, configErrorf(b.ID, "duplicate brick id")
		}
		bricks[b.ID] = b
	}
	macros := make(map[string]*MacroBrick, len(s.Macros))
	for _, m := range s.Macros {
		if _, dup := macros[m.ID]; dup {
			return nil, configErrorf(m.ID, "duplicate MacroBrick id")
		}
		macros[m.ID] = m
	}
	return NewRegistry(bricks, macros)
}

// Meta carries run diagnostics.
type Meta struct {
	ExecutionOrder []string            `json:"execution_order"`
	Overlaps       map[string][]string `json:"overlaps,omitempty"` // brick id -> selected MacroBricks containing it
	Warnings       []string            `json:"warnings,omitempty"`
}

// Totals are the scenario-wide aggregates: flows are summed across bricks,
// stocks are summed across bricks, equity is assets minus liabilities.
type Totals struct {
	CashIn      *month.Series[float64] `json:"cash_in"`
	CashOut     *month.Series[float64] `json:"cash_out"`
	NetCashflow *month.Series[float64] `json:"net_cashflow"`
	Assets      *month.Series[float64] `json:"assets"`
	Liabilities *month.Series[float64] `json:"liabilities"`
	Equity      *month.Series[float64] `json:"equity"`
}

// RunResult is the complete outcome of one scenario run, consumed read-only
// by export and rendering layers.
type RunResult struct {
	Timeline month.Range
	Currency string
	Outputs  map[string]*Output // brick id -> simulated output
	Totals   *Totals
	ByStruct map[string]*Output // MacroBrick id -> aggregate of executed members
	Journal  *Journal
	Meta     Meta
}

// eps is the tolerance for float identities over aggregated series.
const eps = 1e-6

// Run executes the scenario over the timeline starting at the given month.
// The selection lists brick and/or MacroBrick ids to execute; nil selects
// every brick. The pipeline is fixed: resolve selection, build dependency
// graph, topological order, initialize context, prepare, simulate, route
// cash, aggregate, build macro aggregates. A failure at any stage aborts the
// whole run.
func (s *Scenario) Run(start month.Period, months int, selection []string, catalog *Catalog) (*RunResult, error) {
	if months < 1 {
		return nil, configErrorf(s.ID, "run needs at least one month, got %d", months)
	}
	if catalog == nil {
		return nil, configErrorf(s.ID, "run needs a strategy catalog")
	}
	timeline := month.NewRange(start, months)
	currency := s.Currency
	if currency == "" {
		currency = "EUR"
	}

	registry, err := s.Registry()
	if err != nil {
		return nil, err
	}

	// Per-run working copies. A run never mutates the caller's definitions.
	working := make(map[string]*Brick, len(s.Bricks))
	for _, b := range s.Bricks {
		c := b.Clone()
		c.Family, err = FamilyOfKind(c.Kind)
		if err != nil {
			return nil, err
		}
		working[c.ID] = c
	}

	executionSet, overlaps, err := resolveSelection(registry, selection)
	if err != nil {
		return nil, err
	}

	var warnings []string
	warnf := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	if err := resolveStartLinks(working, executionSet, timeline, warnf); err != nil {
		return nil, err
	}

	deps := dependencyGraph(working, executionSet)
	order, ok := topologicalOrder(executionSet, deps)
	if !ok {
		// A dependency cycle does not affect computed values, links were
		// resolved before ordering. Order only decides ledger sequencing, so
		// fall back to a plain sort by id.
		warnf("dependency cycle detected, falling back to id order")
		order = append([]string{}, executionSet...)
		sort.Strings(order)
	}

	// Exactly one designated cash brick receives all routed flows and is
	// simulated last, so interest accrues on the fully-updated balance.
	var cashIDs []string
	for _, id := range executionSet {
		if working[id].Kind == KindCash {
			cashIDs = append(cashIDs, id)
		}
	}
	if len(cashIDs) != 1 {
		return nil, configErrorf(s.ID, "execution set needs exactly one cash brick (kind %q), got %d", KindCash, len(cashIDs))
	}
	cashID := cashIDs[0]
	ordered := make([]string, 0, len(order))
	for _, id := range order {
		if id != cashID {
			ordered = append(ordered, id)
		}
	}
	ordered = append(ordered, cashID)

	// Initialize the per-run accounting state.
	accounts := NewAccountRegistry(currency)
	journal := NewJournal(accounts)
	ctx := &Context{
		Timeline: timeline,
		Currency: currency,
		Journal:  journal,
		Accounts: accounts,
		bricks:   working,
		outputs:  make(map[string]*Output),
		warnf:    warnf,
	}
	for _, id := range ordered {
		b := working[id]
		if b.Family == FamilyTransfer {
			continue // transfers own no account, they move between existing ones
		}
		if _, err := accounts.RegisterBrickAccount(b.ID, b.Family, b.Name, currency); err != nil {
			return nil, err
		}
	}
	if err := postOpeningBalance(journal, working[cashID], start, currency); err != nil {
		return nil, err
	}

	// Prepare every brick before any simulation, so configuration errors
	// fail fast with no partially-posted ledger state.
	strategies := make(map[string]Strategy, len(ordered))
	for _, id := range ordered {
		b := working[id]
		strat, err := catalog.Lookup(b.Kind)
		if err != nil {
			return nil, err
		}
		strategies[id] = strat
		if err := strat.Prepare(b, ctx); err != nil {
			return nil, fmt.Errorf("prepare %s: %w", id, err)
		}
	}

	cashAccount := "asset:" + cashID
	for _, id := range ordered[:len(ordered)-1] {
		b := working[id]
		out, err := strategies[id].Simulate(b, ctx)
		if err != nil {
			return nil, fmt.Errorf("simulate %s: %w", id, err)
		}
		applyWindow(out, ctx.ActiveMask(b))
		ctx.outputs[id] = out
		if err := captureEntries(journal, b, out, cashAccount, currency); err != nil {
			return nil, err
		}
	}

	// Cash routing: the cash brick absorbs the period-summed flows of every
	// other simulated brick.
	ctx.RoutedIn = month.NewSeries[float64](timeline)
	ctx.RoutedOut = month.NewSeries[float64](timeline)
	for id, out := range ctx.outputs {
		if id == cashID {
			continue
		}
		if err := ctx.RoutedIn.Add(out.CashIn); err != nil {
			return nil, err
		}
		if err := ctx.RoutedOut.Add(out.CashOut); err != nil {
			return nil, err
		}
	}
	cashOut, err := strategies[cashID].Simulate(working[cashID], ctx)
	if err != nil {
		return nil, fmt.Errorf("simulate %s: %w", cashID, err)
	}
	ctx.outputs[cashID] = cashOut

	totals, err := aggregate(timeline, ctx.outputs)
	if err != nil {
		return nil, err
	}

	byStruct, err := buildMacroAggregates(registry, timeline, ctx.outputs)
	if err != nil {
		return nil, err
	}

	return &RunResult{
		Timeline: timeline,
		Currency: currency,
		Outputs:  ctx.outputs,
		Totals:   totals,
		ByStruct: byStruct,
		Journal:  journal,
		Meta: Meta{
			ExecutionOrder: ordered,
			Overlaps:       overlaps,
			Warnings:       warnings,
		},
	}, nil
}

// resolveSelection expands a selection of brick and MacroBrick ids into the
// deduplicated execution set, in first-selected order. A brick reachable
// through two selected MacroBricks executes once; the overlap is reported.
func resolveSelection(registry *Registry, selection []string) (set []string, overlaps map[string][]string, err error) {
	if selection == nil {
		return registry.BrickIDs(), map[string][]string{}, nil
	}
	seen := map[string]bool{}
	owners := map[string][]string{}
	for _, id := range selection {
		switch {
		case registry.IsBrick(id):
			if !seen[id] {
				seen[id] = true
				set = append(set, id)
			}
		case registry.IsMacro(id):
			flat, err := registry.FlatMembers(id)
			if err != nil {
				return nil, nil, err
			}
			for _, brickID := range flat {
				owners[brickID] = append(owners[brickID], id)
				if !seen[brickID] {
					seen[brickID] = true
					set = append(set, brickID)
				}
			}
		default:
			return nil, nil, configErrorf(id, "unknown id in selection")
		}
	}
	overlaps = map[string][]string{}
	for brickID, macroIDs := range owners {
		if len(macroIDs) > 1 {
			sort.Strings(macroIDs)
			overlaps[brickID] = macroIDs
		}
	}
	return set, overlaps, nil
}

// resolveStartLinks rewrites windows whose start is linked to another brick's
// lifecycle into explicit start months.
func resolveStartLinks(working map[string]*Brick, executionSet []string, timeline month.Range, warnf func(string, ...any)) error {
	for _, id := range executionSet {
		b := working[id]
		if b.Links.Start == nil || b.Links.Start.OnEndOf == "" {
			continue
		}
		ref, ok := working[b.Links.Start.OnEndOf]
		if !ok {
			return configErrorf(id, "start link references unknown brick %q", b.Links.Start.OnEndOf)
		}
		end := windowEnd(ref, timeline, warnf)
		b.Window.Start = end.Add(1 + b.Links.Start.Offset)
	}
	return nil
}

// windowEnd returns the last active month of a brick's window.
func windowEnd(b *Brick, timeline month.Range, warnf func(string, ...any)) month.Period {
	mask := b.Window.Mask(timeline, warnf)
	end := timeline.To
	for i := len(mask) - 1; i >= 0; i-- {
		if mask[i] {
			return timeline.From.Add(i)
		}
	}
	return end
}

// dependencyGraph maps each brick of the execution set to the set members it
// references. References outside the set were resolved in the link-resolution
// pass and are ignored here.
func dependencyGraph(working map[string]*Brick, executionSet []string) map[string][]string {
	inSet := map[string]bool{}
	for _, id := range executionSet {
		inSet[id] = true
	}
	deps := make(map[string][]string, len(executionSet))
	for _, id := range executionSet {
		var refs []string
		for _, ref := range working[id].Links.Refs() {
			if inSet[ref] && ref != id {
				refs = append(refs, ref)
			}
		}
		deps[id] = refs
	}
	return deps
}

// topologicalOrder runs Kahn's algorithm over the dependency graph.
// Zero-in-degree bricks are queued in sorted-id order and dependents are
// visited in sorted order, so the result is deterministic across runs. It
// reports ok=false when a cycle keeps some bricks unordered.
func topologicalOrder(executionSet []string, deps map[string][]string) (order []string, ok bool) {
	indegree := map[string]int{}
	dependents := map[string][]string{}
	for _, id := range executionSet {
		indegree[id] = len(deps[id])
		for _, dep := range deps[id] {
			dependents[dep] = append(dependents[dep], id)
		}
	}
	var queue []string
	for _, id := range executionSet {
		if indegree[id] == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		next := append([]string{}, dependents[id]...)
		sort.Strings(next)
		for _, dependent := range next {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				queue = append(queue, dependent)
				sort.Strings(queue)
			}
		}
	}
	return order, len(order) == len(executionSet)
}

// applyWindow zeroes the flow series outside the activation mask while
// leaving stock series untouched: a position persists at its last value past
// its own window unless the strategy explicitly disposed of it and booked the
// matching cash leg.
func applyWindow(out *Output, mask []bool) {
	timeline := out.CashIn.Range()
	for i, active := range mask {
		if active {
			continue
		}
		p := timeline.From.Add(i)
		out.CashIn.Set(p, 0)
		out.CashOut.Set(p, 0)
		out.Interest.Set(p, 0)
	}
}

// postOpeningBalance books the cash brick's initial balance against the
// boundary account in the first month.
func postOpeningBalance(journal *Journal, cash *Brick, start month.Period, currency string) error {
	initial := cash.Params.Float("initial_balance", 0)
	if initial == 0 {
		return nil
	}
	amount := M(initial, currency).Round()
	e, err := NewEntry(
		EntryID(cash.ID, start, cash.Params, cash.Links, 0),
		start,
		Posting{Account: BoundaryAccountID, Amount: amount.Neg(), Meta: map[string]string{"type": "opening_balance"}},
		Posting{Account: "asset:" + cash.ID, Amount: amount, Meta: map[string]string{"type": "opening_balance"}},
	)
	if err != nil {
		return err
	}
	return journal.Post(e)
}

// captureEntries books the month-by-month double entries implied by a brick's
// output. Amounts are rounded once and reused across legs so every entry
// stays exactly zero-sum.
func captureEntries(journal *Journal, b *Brick, out *Output, cashAccount, currency string) error {
	timeline := out.CashIn.Range()
	for p := range timeline.Periods() {
		in := M(out.CashIn.Get(p), currency).Round()
		outflow := M(out.CashOut.Get(p), currency).Round()
		if in.IsZero() && outflow.IsZero() {
			continue
		}
		var postings []Posting
		meta := map[string]string{"brick": b.ID, "kind": b.Kind}
		switch b.Family {
		case FamilyFlow:
			if !in.IsZero() {
				postings = append(postings,
					Posting{Account: BoundaryAccountID, Amount: in.Neg(), Meta: meta},
					Posting{Account: cashAccount, Amount: in, Meta: meta},
				)
			}
			if !outflow.IsZero() {
				postings = append(postings,
					Posting{Account: cashAccount, Amount: outflow.Neg(), Meta: meta},
					Posting{Account: BoundaryAccountID, Amount: outflow, Meta: meta},
				)
			}
		case FamilyAsset:
			account := "asset:" + b.ID
			if !outflow.IsZero() { // purchase or contribution
				postings = append(postings,
					Posting{Account: cashAccount, Amount: outflow.Neg(), Meta: meta},
					Posting{Account: account, Amount: outflow, Meta: meta},
				)
			}
			if !in.IsZero() { // sale proceeds
				postings = append(postings,
					Posting{Account: account, Amount: in.Neg(), Meta: meta},
					Posting{Account: cashAccount, Amount: in, Meta: meta},
				)
			}
		case FamilyLiability:
			account := "liability:" + b.ID
			if !in.IsZero() { // disbursement
				postings = append(postings,
					Posting{Account: account, Amount: in.Neg(), Meta: meta},
					Posting{Account: cashAccount, Amount: in, Meta: meta},
				)
			}
			if !outflow.IsZero() { // payment split into principal and interest
				interest := M(out.Interest.Get(p), currency).Round()
				if interest.GreaterThan(outflow) {
					interest = outflow
				}
				principal := outflow.Sub(interest)
				postings = append(postings,
					Posting{Account: cashAccount, Amount: outflow.Neg(), Meta: meta},
				)
				if !principal.IsZero() {
					postings = append(postings, Posting{Account: account, Amount: principal, Meta: meta})
				}
				if !interest.IsZero() {
					postings = append(postings, Posting{Account: BoundaryAccountID, Amount: interest, Meta: meta})
				}
			}
		case FamilyTransfer:
			if !in.Equal(outflow) {
				return configErrorf(b.ID, "transfer inflow %s differs from outflow %s", in, outflow)
			}
			postings = append(postings,
				Posting{Account: "asset:" + b.Links.From, Amount: outflow.Neg(), Meta: meta},
				Posting{Account: "asset:" + b.Links.To, Amount: in, Meta: meta},
			)
		}
		if len(postings) < 2 {
			continue
		}
		e, err := NewEntry(EntryID(b.ID, p, b.Params, b.Links, 1), p, postings...)
		if err != nil {
			return err
		}
		if err := journal.Post(e); err != nil {
			return err
		}
	}
	return nil
}

// aggregate sums per-brick outputs into scenario totals and asserts the
// aggregate identities. A violation is a strategy bug and is never silently
// downgraded.
func aggregate(timeline month.Range, outputs map[string]*Output) (*Totals, error) {
	t := &Totals{
		CashIn:      month.NewSeries[float64](timeline),
		CashOut:     month.NewSeries[float64](timeline),
		NetCashflow: month.NewSeries[float64](timeline),
		Assets:      month.NewSeries[float64](timeline),
		Liabilities: month.NewSeries[float64](timeline),
		Equity:      month.NewSeries[float64](timeline),
	}
	for _, out := range outputs {
		if err := t.CashIn.Add(out.CashIn); err != nil {
			return nil, err
		}
		if err := t.CashOut.Add(out.CashOut); err != nil {
			return nil, err
		}
		if err := t.Assets.Add(out.AssetValue); err != nil {
			return nil, err
		}
		if err := t.Liabilities.Add(out.DebtBalance); err != nil {
			return nil, err
		}
	}
	// Independent recomputation of net cashflow per brick, cross-checked
	// against the summed in/out series.
	netFromBricks := month.NewSeries[float64](timeline)
	for _, out := range outputs {
		for p := range timeline.Periods() {
			netFromBricks.AddAt(p, out.NetCashflow(p))
		}
	}
	for p := range timeline.Periods() {
		in, out := t.CashIn.Get(p), t.CashOut.Get(p)
		assets, liabilities := t.Assets.Get(p), t.Liabilities.Get(p)
		for _, v := range []float64{in, out, assets, liabilities} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, &IdentityError{Check: "finite totals", Period: p.String(), Detail: "non-finite aggregate value"}
			}
		}
		net := netFromBricks.Get(p)
		if math.Abs(net-(in-out)) > eps {
			return nil, &IdentityError{Check: "net cashflow", Period: p.String(), Detail: fmt.Sprintf("net %f != in %f - out %f", net, in, out)}
		}
		t.NetCashflow.Set(p, net)
		t.Equity.Set(p, assets-liabilities)
	}
	return t, nil
}

// buildMacroAggregates sums the outputs of each MacroBrick's executed
// transitive members element-wise. A MacroBrick none of whose members were
// executed is omitted, not reported as zero.
func buildMacroAggregates(registry *Registry, timeline month.Range, outputs map[string]*Output) (map[string]*Output, error) {
	byStruct := map[string]*Output{}
	for _, macroID := range registry.MacroIDs() {
		flat, err := registry.FlatMembers(macroID)
		if err != nil {
			return nil, err
		}
		var agg *Output
		for _, brickID := range flat {
			out, executed := outputs[brickID]
			if !executed {
				continue
			}
			if agg == nil {
				agg = NewOutput(timeline)
			}
			if err := agg.Accumulate(out); err != nil {
				return nil, err
			}
		}
		if agg != nil {
			byStruct[macroID] = agg
		}
	}
	return byStruct, nil
}

// Resample aggregates the monthly totals into calendar-year rows: flows are
// summed, stocks keep their year-end value.
func (t *Totals) Resample() (years []int, cashIn, cashOut, netCF, assets, liabilities, equity []float64) {
	years, cashIn = t.CashIn.YearlySum()
	_, cashOut = t.CashOut.YearlySum()
	_, netCF = t.NetCashflow.YearlySum()
	_, assets = t.Assets.YearlyLast()
	_, liabilities = t.Liabilities.YearlyLast()
	_, equity = t.Equity.YearlyLast()
	return
}
