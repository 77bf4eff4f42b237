package strategies

import (
	"fmt"
	"math"

	"github.com/finbricklab/finbrick"
)

// Property models a discrete real-estate purchase (kind
// "a.property_discrete"): bought at the window start for price plus the cash
// portion of the fees, then appreciating at a constant annual rate. When
// sell_on_window_end is set the position is disposed of in the last active
// month and the sale proceeds are booked in the same month, keeping the
// window end equity-neutral.
type Property struct{}

func (s *Property) Prepare(b *finbrick.Brick, ctx *finbrick.Context) error {
	for _, key := range []string{"initial_value", "fees_pct", "appreciation_pa"} {
		if _, ok := b.Params[key]; !ok {
			return &finbrick.ConfigError{ID: b.ID, Reason: fmt.Sprintf("missing required parameter %q", key)}
		}
	}
	pct := feesFinancedPct(b.Params)
	if pct < 0 || pct > 1 {
		ctx.Warnf("%s: fees_financed_pct clamped to [0,1]", b.ID)
	}
	return nil
}

// feesFinancedPct returns the share of the purchase fees rolled into the
// financing, clamped to [0,1]. finance_fees is the boolean shorthand for 1.
func feesFinancedPct(p finbrick.Params) float64 {
	def := 0.0
	if p.Bool("finance_fees", false) {
		def = 1.0
	}
	return math.Max(0, math.Min(1, p.Float("fees_financed_pct", def)))
}

func (s *Property) Simulate(b *finbrick.Brick, ctx *finbrick.Context) (*finbrick.Output, error) {
	out := finbrick.NewOutput(ctx.Timeline)
	mask := ctx.ActiveMask(b)
	t0 := firstActive(mask)
	if t0 < 0 {
		return out, nil
	}

	price := b.Params.Float("initial_value", 0)
	fees := price * b.Params.Float("fees_pct", 0)
	feesCash := fees * (1 - feesFinancedPct(b.Params))
	rate := math.Pow(1+b.Params.Float("appreciation_pa", 0), 1.0/12) - 1

	// Settlement in the purchase month: pay the seller plus the cash portion
	// of the fees, once.
	start := ctx.Timeline.From.Add(t0)
	out.CashOut.AddAt(start, price+feesCash)
	out.Events = append(out.Events, finbrick.Event{On: start, Kind: "purchase", Message: fmt.Sprintf("purchase %s for %.2f", b.ID, price)})
	if feesCash > 0 {
		out.Events = append(out.Events, finbrick.Event{On: start, Kind: "fees_cash", Message: fmt.Sprintf("fees paid from cash: %.2f", feesCash)})
	}

	tStop := lastActive(mask)
	value := price
	out.AssetValue.Set(start, value)
	for i := t0 + 1; i < ctx.Timeline.Months(); i++ {
		if i <= tStop {
			value *= 1 + rate
		}
		out.AssetValue.Set(ctx.Timeline.From.Add(i), value)
	}

	if b.Params.Bool("sell_on_window_end", false) {
		p := ctx.Timeline.From.Add(tStop)
		gross := out.AssetValue.Get(p)
		proceeds := gross * (1 - b.Params.Float("sell_fees_pct", 0))
		out.CashIn.AddAt(p, proceeds)
		for i := tStop; i < ctx.Timeline.Months(); i++ {
			out.AssetValue.Set(ctx.Timeline.From.Add(i), 0)
		}
		out.Events = append(out.Events, finbrick.Event{On: p, Kind: "asset_dispose", Message: fmt.Sprintf("property sold for %.2f", proceeds)})
	}
	return out, nil
}
