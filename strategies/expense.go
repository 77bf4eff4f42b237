package strategies

import (
	"github.com/finbricklab/finbrick"
)

// ExpenseRecurring models a recurring expense (kind "f.expense.recurring").
// It shares the stepping rules of IncomeRecurring, on the outflow side.
type ExpenseRecurring struct{}

func (s *ExpenseRecurring) Prepare(b *finbrick.Brick, ctx *finbrick.Context) error {
	return (&IncomeRecurring{}).Prepare(b, ctx)
}

func (s *ExpenseRecurring) Simulate(b *finbrick.Brick, ctx *finbrick.Context) (*finbrick.Output, error) {
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
		out.CashOut.AddAt(ctx.Timeline.From.Add(i), steppedAmount(b.Params, i-t0))
	}
	return out, nil
}

// ExpenseOnetime models a single expense event (kind "f.expense.onetime")
// paid in the first active month of the window.
type ExpenseOnetime struct{}

func (s *ExpenseOnetime) Prepare(b *finbrick.Brick, ctx *finbrick.Context) error {
	if _, ok := b.Params["amount"]; !ok {
		return &finbrick.ConfigError{ID: b.ID, Reason: "missing required parameter \"amount\""}
	}
	return nil
}

func (s *ExpenseOnetime) Simulate(b *finbrick.Brick, ctx *finbrick.Context) (*finbrick.Output, error) {
	out := finbrick.NewOutput(ctx.Timeline)
	mask := ctx.ActiveMask(b)
	if t0 := firstActive(mask); t0 >= 0 {
		out.CashOut.AddAt(ctx.Timeline.From.Add(t0), b.Params.Float("amount", 0))
	}
	return out, nil
}
