package strategies

import (
	"math"

	"github.com/finbricklab/finbrick"
)

// IncomeRecurring models a recurring income (kind "f.income.recurring"): a
// fixed monthly amount, optionally stepped up on an annual or custom
// schedule counted from the window start.
type IncomeRecurring struct{}

func (s *IncomeRecurring) Prepare(b *finbrick.Brick, ctx *finbrick.Context) error {
	if _, ok := b.Params["amount_monthly"]; !ok {
		return &finbrick.ConfigError{ID: b.ID, Reason: "missing required parameter \"amount_monthly\""}
	}
	_, annual := b.Params["annual_step_pct"]
	_, custom := b.Params["step_every_m"]
	if annual && custom {
		return &finbrick.ConfigError{ID: b.ID, Reason: "annual_step_pct and step_every_m are mutually exclusive"}
	}
	if custom && b.Params.Int("step_every_m", 0) <= 0 {
		return &finbrick.ConfigError{ID: b.ID, Reason: "step_every_m must be positive"}
	}
	return nil
}

// steppedAmount returns the amount in the given month, counted in whole step
// intervals since the window start.
func steppedAmount(p finbrick.Params, monthsSinceStart int) float64 {
	base := p.Float("amount_monthly", 0)
	every := 12
	step := p.Float("annual_step_pct", 0)
	if n := p.Int("step_every_m", 0); n > 0 {
		every = n
		step = p.Float("step_pct", 0)
	}
	if step == 0 {
		return base
	}
	return base * math.Pow(1+step, float64(monthsSinceStart/every))
}

func (s *IncomeRecurring) Simulate(b *finbrick.Brick, ctx *finbrick.Context) (*finbrick.Output, error) {
	out := finbrick.NewOutput(ctx.Timeline)
	mask := ctx.ActiveMask(b)
	t0 := firstActive(mask)
	if t0 < 0 {
		return out, nil
	}
	for i := t0; i < ctx.Timeline.Months(); i++ {
		if !mask[i] {
			continue
		}
		out.CashIn.AddAt(ctx.Timeline.From.Add(i), steppedAmount(b.Params, i-t0))
	}
	return out, nil
}

// IncomeOnetime models a single income event (kind "f.income.onetime") paid
// in the first active month of the window.
type IncomeOnetime struct{}

func (s *IncomeOnetime) Prepare(b *finbrick.Brick, ctx *finbrick.Context) error {
	if _, ok := b.Params["amount"]; !ok {
		return &finbrick.ConfigError{ID: b.ID, Reason: "missing required parameter \"amount\""}
	}
	return nil
}

func (s *IncomeOnetime) Simulate(b *finbrick.Brick, ctx *finbrick.Context) (*finbrick.Output, error) {
	out := finbrick.NewOutput(ctx.Timeline)
	mask := ctx.ActiveMask(b)
	if t0 := firstActive(mask); t0 >= 0 {
		out.CashIn.AddAt(ctx.Timeline.From.Add(t0), b.Params.Float("amount", 0))
	}
	return out, nil
}
