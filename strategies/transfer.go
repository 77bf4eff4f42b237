package strategies

import (
	"fmt"

	"github.com/finbricklab/finbrick"
)

// transferFrequencies maps a frequency name to its month interval.
var transferFrequencies = map[string]int{
	"monthly":      1,
	"bimonthly":    2,
	"quarterly":    3,
	"semiannually": 6,
	"yearly":       12,
}

func prepareTransfer(b *finbrick.Brick, ctx *finbrick.Context) error {
	if b.Params.Float("amount", 0) <= 0 {
		return &finbrick.ConfigError{ID: b.ID, Reason: "amount must be positive"}
	}
	from, to := b.Links.From, b.Links.To
	if from == "" || to == "" {
		return &finbrick.ConfigError{ID: b.ID, Reason: "needs from and to links"}
	}
	if from == to {
		return &finbrick.ConfigError{ID: b.ID, Reason: "from and to must differ"}
	}
	return ctx.Accounts.ValidateTransferAccounts("asset:"+from, "asset:"+to)
}

// TransferLumpSum moves a fixed amount between two internal accounts once,
// in the first active month (kind "t.transfer.lumpsum"). Both sides of the
// move are reported so the transfer stays cash-neutral in the aggregate.
type TransferLumpSum struct{}

func (s *TransferLumpSum) Prepare(b *finbrick.Brick, ctx *finbrick.Context) error {
	return prepareTransfer(b, ctx)
}

func (s *TransferLumpSum) Simulate(b *finbrick.Brick, ctx *finbrick.Context) (*finbrick.Output, error) {
	out := finbrick.NewOutput(ctx.Timeline)
	mask := ctx.ActiveMask(b)
	if t0 := firstActive(mask); t0 >= 0 {
		p := ctx.Timeline.From.Add(t0)
		amount := b.Params.Float("amount", 0)
		out.CashOut.AddAt(p, amount)
		out.CashIn.AddAt(p, amount)
	}
	return out, nil
}

// TransferRecurring moves a fixed amount between two internal accounts on a
// regular schedule (kind "t.transfer.recurring").
type TransferRecurring struct{}

func (s *TransferRecurring) Prepare(b *finbrick.Brick, ctx *finbrick.Context) error {
	if err := prepareTransfer(b, ctx); err != nil {
		return err
	}
	freq := b.Params.Str("frequency", "monthly")
	if _, ok := transferFrequencies[freq]; !ok {
		return &finbrick.ConfigError{ID: b.ID, Reason: fmt.Sprintf("unknown frequency %q", freq)}
	}
	return nil
}

func (s *TransferRecurring) Simulate(b *finbrick.Brick, ctx *finbrick.Context) (*finbrick.Output, error) {
	out := finbrick.NewOutput(ctx.Timeline)
	mask := ctx.ActiveMask(b)
	t0 := firstActive(mask)
	if t0 < 0 {
		return out, nil
	}
	interval := transferFrequencies[b.Params.Str("frequency", "monthly")]
	amount := b.Params.Float("amount", 0)
	for i := t0; i < ctx.Timeline.Months(); i++ {
		if !mask[i] || (i-t0)%interval != 0 {
			continue
		}
		p := ctx.Timeline.From.Add(i)
		out.CashOut.AddAt(p, amount)
		out.CashIn.AddAt(p, amount)
	}
	return out, nil
}
