package finbrick

import (
	"errors"
	"fmt"
	"log"
	"math"
)

// Mode selects how ValidateRun reports failures.
type Mode string

const (
	// ModeRaise aborts with one combined error listing every failure.
	ModeRaise Mode = "raise"
	// ModeWarn logs each failure and continues.
	ModeWarn Mode = "warn"
)

// ValidateRun checks a finished run against the domain invariants: the
// equity and net-cashflow identities, liability monotonicity, liquidity
// limits, non-negative holdings, balloon payoff completeness, income
// escalation monotonicity and the window-end stock/flow identity. It never
// fails partially: every check runs, and the failures are either combined
// into one error (raise) or logged (warn).
func ValidateRun(res *RunResult, bricks []*Brick, mode Mode, tol float64) error {
	if tol <= 0 {
		tol = eps
	}
	var fails []error
	fail := func(format string, args ...any) {
		fails = append(fails, fmt.Errorf(format, args...))
	}

	timeline := res.Timeline
	totals := res.Totals

	// Equity identity: equity = assets - liabilities.
	for p := range timeline.Periods() {
		want := totals.Assets.Get(p) - totals.Liabilities.Get(p)
		if math.Abs(totals.Equity.Get(p)-want) > tol {
			fail("equity != assets - liabilities at %s", p)
			break
		}
	}

	// Cash flow identity: net_cf = cash_in - cash_out.
	for p := range timeline.Periods() {
		want := totals.CashIn.Get(p) - totals.CashOut.Get(p)
		if math.Abs(totals.NetCashflow.Get(p)-want) > tol {
			fail("net cashflow != cash_in - cash_out at %s", p)
			break
		}
	}

	// Liabilities must not increase after the initial draws.
	liabilities := totals.Liabilities.Values()
	for i := 2; i < len(liabilities); i++ {
		if liabilities[i]-liabilities[i-1] > tol {
			fail("liabilities increased after initial draws at %s", timeline.From.Add(i))
			break
		}
	}

	for _, b := range bricks {
		out, executed := res.Outputs[b.ID]
		if !executed {
			continue
		}
		mask := b.Window.Mask(timeline, nil)

		switch b.Kind {
		case KindCash:
			// Liquidity constraints on the cash balance.
			overdraft := b.Params.Float("overdraft_limit", 0)
			minBuffer := b.Params.Float("min_buffer", 0)
			for p := range timeline.Periods() {
				bal := out.AssetValue.Get(p)
				if bal < -overdraft-tol {
					fail("liquidity breach: cash %q = %.2f < overdraft limit %.2f at %s", b.ID, bal, overdraft, p)
					break
				}
			}
			for p := range timeline.Periods() {
				bal := out.AssetValue.Get(p)
				if minBuffer > 0 && bal < minBuffer-tol {
					fail("buffer breach: cash %q = %.2f < min buffer %.2f at %s", b.ID, bal, minBuffer, p)
					break
				}
			}

		case KindETF:
			// Holdings can be sold down to zero, never below.
			for p := range timeline.Periods() {
				if v := out.AssetValue.Get(p); v < -tol {
					fail("negative holding: %q has asset value %.2f at %s", b.ID, v, p)
					break
				}
			}

		case KindMortgageAnnuity:
			if b.Params.Str("balloon_policy", "payoff") != "payoff" {
				break
			}
			tStop := lastActive(mask)
			if tStop < 0 {
				break
			}
			p := timeline.From.Add(tStop)
			if residual := out.DebtBalance.Get(p); residual > tol {
				fail("balloon inconsistency: mortgage %q has residual debt %.2f at end of window", b.ID, residual)
			}
			if tStop > 0 {
				before := out.DebtBalance.Get(p.Add(-1))
				balloon := out.CashOut.Get(p)
				if balloon > tol && balloon < before-tol {
					fail("balloon payment insufficient: mortgage %q paid %.2f against debt %.2f", b.ID, balloon, before)
				}
			}

		case KindIncomeRecurring:
			// With a non-negative escalator the income never decreases
			// within its active window.
			if b.Params.Float("annual_step_pct", 0) < 0 {
				break
			}
			for i := 1; i < timeline.Months(); i++ {
				if !mask[i] || !mask[i-1] {
					continue
				}
				prev := out.CashIn.Get(timeline.From.Add(i - 1))
				cur := out.CashIn.Get(timeline.From.Add(i))
				if cur < prev-tol {
					fail("income escalator violation: %q decreased from %.2f to %.2f at %s", b.ID, prev, cur, timeline.From.Add(i))
					break
				}
			}
		}

		// Window-end identity: a stock that changes right after the window
		// without a matching cash leg in the last active month points at a
		// missing sale or payoff.
		if family, _ := FamilyOfKind(b.Kind); family == FamilyAsset || family == FamilyLiability {
			tStop := lastActive(mask)
			if tStop < 0 || tStop+1 >= timeline.Months() {
				continue
			}
			p := timeline.From.Add(tStop)
			dAssets := out.AssetValue.Get(p.Add(1)) - out.AssetValue.Get(p)
			dDebt := out.DebtBalance.Get(p.Add(1)) - out.DebtBalance.Get(p)
			dStocks := dAssets - dDebt
			flows := out.NetCashflow(p)
			if math.Abs(dStocks) > 0.01 && math.Abs(dStocks-flows) > 0.01 {
				fail("window-end mismatch for %q at %s: stock delta %.2f vs flows %.2f, missing sale or payoff?", b.ID, p, dStocks, flows)
			}
		}
	}

	if len(fails) == 0 {
		return nil
	}
	if mode == ModeWarn {
		for _, f := range fails {
			log.Printf("run validation: %v", f)
		}
		return nil
	}
	return fmt.Errorf("run validation failed: %w", errors.Join(fails...))
}

// lastActive returns the index of the last true value in the mask, or -1.
func lastActive(mask []bool) int {
	for i := len(mask) - 1; i >= 0; i-- {
		if mask[i] {
			return i
		}
	}
	return -1
}
