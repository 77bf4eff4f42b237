package strategies

import (
	"github.com/finbricklab/finbrick"
)

// Cash models the designated settlement account (kind "a.cash"). It receives
// the routed flows of every other brick and earns monthly interest on the
// running balance. The engine populates the routed flows before this strategy
// simulates, which is why cash is always simulated last.
type Cash struct{}

func (s *Cash) Prepare(b *finbrick.Brick, ctx *finbrick.Context) error {
	if b.Params == nil {
		b.Params = finbrick.Params{}
	}
	overdraft := b.Params.Float("overdraft_limit", 0)
	minBuffer := b.Params.Float("min_buffer", 0)
	if overdraft < 0 {
		return &finbrick.ConfigError{ID: b.ID, Reason: "overdraft_limit must be >= 0"}
	}
	if minBuffer < 0 {
		return &finbrick.ConfigError{ID: b.ID, Reason: "min_buffer must be >= 0"}
	}
	if initial := b.Params.Float("initial_balance", 0); minBuffer > initial {
		ctx.Warnf("%s: min_buffer (%.2f) > initial_balance (%.2f)", b.ID, minBuffer, initial)
	}
	return nil
}

func (s *Cash) Simulate(b *finbrick.Brick, ctx *finbrick.Context) (*finbrick.Output, error) {
	out := finbrick.NewOutput(ctx.Timeline)
	rate := b.Params.Float("interest_pa", 0) / 12.0

	balance := b.Params.Float("initial_balance", 0)
	first := true
	for p := range ctx.Timeline.Periods() {
		if !first {
			balance = out.AssetValue.Get(p.Add(-1))
		}
		balance += ctx.RoutedIn.Get(p) - ctx.RoutedOut.Get(p)
		interest := balance * rate
		balance += interest
		out.AssetValue.Set(p, balance)
		out.Interest.Set(p, interest)
		first = false

		if interest != 0 && ctx.Journal != nil {
			amount := finbrick.M(interest, ctx.Currency).Round()
			if amount.IsZero() {
				continue
			}
			e, err := finbrick.NewEntry(
				finbrick.EntryID(b.ID, p, b.Params, b.Links, 2), p,
				finbrick.Posting{Account: finbrick.BoundaryAccountID, Amount: amount.Neg(), Meta: map[string]string{"type": "interest"}},
				finbrick.Posting{Account: "asset:" + b.ID, Amount: amount, Meta: map[string]string{"type": "interest"}},
			)
			if err != nil {
				return nil, err
			}
			if err := ctx.Journal.Post(e); err != nil {
				return nil, err
			}
		}
	}
	// The cash brick generates no flows of its own, it only absorbs routed
	// ones; reporting them here would double-count them in the totals.
	return out, nil
}
