package strategies

import (
	"fmt"
	"math"

	"github.com/finbricklab/finbrick"
)

// ETF models a unitized security position (kind "a.etf_unitized"). The
// position starts from an initial amount or an explicit unit count, grows at
// a constant price drift, and may be topped up by a monthly contribution
// bought at the then-current price. Dividends, when a yield is set, are paid
// out in cash rather than reinvested.
type ETF struct{}

func (s *ETF) Prepare(b *finbrick.Brick, ctx *finbrick.Context) error {
	_, hasAmount := b.Params["initial_amount"]
	_, hasUnits := b.Params["initial_units"]
	if !hasAmount && !hasUnits && b.Params.Float("monthly_contribution", 0) == 0 {
		return &finbrick.ConfigError{ID: b.ID, Reason: "needs initial_amount, initial_units or monthly_contribution"}
	}
	if hasAmount && hasUnits {
		return &finbrick.ConfigError{ID: b.ID, Reason: "initial_amount and initial_units are mutually exclusive"}
	}
	if b.Params.Float("price0", 100) <= 0 {
		return &finbrick.ConfigError{ID: b.ID, Reason: "price0 must be positive"}
	}
	return nil
}

func (s *ETF) Simulate(b *finbrick.Brick, ctx *finbrick.Context) (*finbrick.Output, error) {
	out := finbrick.NewOutput(ctx.Timeline)
	mask := ctx.ActiveMask(b)
	t0 := firstActive(mask)
	if t0 < 0 {
		return out, nil
	}
	tStop := lastActive(mask)

	price0 := b.Params.Float("price0", 100)
	drift := b.Params.Float("drift_pa", 0.03)
	growth := math.Pow(1+drift, 1.0/12)
	divYield := b.Params.Float("div_yield_pa", 0)
	contribution := b.Params.Float("monthly_contribution", 0)

	units := b.Params.Float("initial_units", 0)
	if amount := b.Params.Float("initial_amount", 0); amount > 0 {
		units = amount / price0
		out.CashOut.AddAt(ctx.Timeline.From.Add(t0), amount)
	}

	price := price0
	for i := t0; i < ctx.Timeline.Months(); i++ {
		p := ctx.Timeline.From.Add(i)
		if i > t0 && i <= tStop {
			price *= growth
		}
		if i <= tStop {
			if contribution > 0 {
				out.CashOut.AddAt(p, contribution)
				units += contribution / price
			}
			if divYield > 0 {
				out.CashIn.AddAt(p, units*price*divYield/12)
			}
		}
		out.AssetValue.Set(p, units*price)
	}

	if b.Params.Bool("sell_on_window_end", false) {
		p := ctx.Timeline.From.Add(tStop)
		gross := out.AssetValue.Get(p)
		proceeds := gross * (1 - b.Params.Float("sell_fees_pct", 0))
		out.CashIn.AddAt(p, proceeds)
		for i := tStop; i < ctx.Timeline.Months(); i++ {
			out.AssetValue.Set(ctx.Timeline.From.Add(i), 0)
		}
		out.Events = append(out.Events, finbrick.Event{On: p, Kind: "asset_dispose", Message: fmt.Sprintf("position sold for %.2f", proceeds)})
	}
	return out, nil
}
