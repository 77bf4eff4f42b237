package strategies

import (
	"fmt"
	"math"

	"github.com/finbricklab/finbrick"
)

// MortgageAnnuity models an annuity loan (kind "l.mortgage.annuity"): a
// single drawdown at the window start followed by constant monthly payments
// splitting into interest and principal until the debt is repaid, the term
// ends or the window closes.
//
// The principal comes from exactly one of three sources: an explicit
// "principal" parameter, a link to a property purchase (price minus down
// payment plus the financed fees), or a link to the remaining balance of an
// earlier loan for refinancing chains.
type MortgageAnnuity struct{}

func (s *MortgageAnnuity) Prepare(b *finbrick.Brick, ctx *finbrick.Context) error {
	_, hasPrincipal := b.Params["principal"]
	if hasPrincipal && b.Links.Principal != nil {
		return &finbrick.ConfigError{ID: b.ID, Reason: "principal parameter and principal link are mutually exclusive"}
	}
	if !hasPrincipal && b.Links.Principal == nil {
		return &finbrick.ConfigError{ID: b.ID, Reason: "needs a principal parameter or a principal link"}
	}
	if l := b.Links.Principal; l != nil {
		if (l.FromProperty == "") == (l.RemainingOf == "") {
			return &finbrick.ConfigError{ID: b.ID, Reason: "principal link needs exactly one of from_property or remaining_of"}
		}
		if l.FromProperty != "" {
			ref, err := ctx.Brick(l.FromProperty)
			if err != nil {
				return err
			}
			if ref.Kind != finbrick.KindProperty {
				return &finbrick.ConfigError{ID: b.ID, Reason: fmt.Sprintf("from_property %q is not a property brick", l.FromProperty)}
			}
		}
		if l.RemainingOf != "" {
			ref, err := ctx.Brick(l.RemainingOf)
			if err != nil {
				return err
			}
			if ref.Family != finbrick.FamilyLiability {
				return &finbrick.ConfigError{ID: b.ID, Reason: fmt.Sprintf("remaining_of %q is not a liability brick", l.RemainingOf)}
			}
		}
	}
	if _, ok := b.Params["rate_pa"]; !ok {
		return &finbrick.ConfigError{ID: b.ID, Reason: "missing required parameter \"rate_pa\""}
	}
	if b.Params.Int("term_months", 0) <= 0 {
		return &finbrick.ConfigError{ID: b.ID, Reason: "term_months must be positive"}
	}
	switch policy := b.Params.Str("balloon_policy", "payoff"); policy {
	case "payoff", "refinance":
	default:
		return &finbrick.ConfigError{ID: b.ID, Reason: fmt.Sprintf("unknown balloon_policy %q", policy)}
	}
	return nil
}

// principal resolves the loan amount, consulting linked brick outputs for
// property purchases and refinanced loans. Linked bricks are simulated
// before this one, so their outputs are available.
func (s *MortgageAnnuity) principal(b *finbrick.Brick, ctx *finbrick.Context, t0 int) (float64, error) {
	if _, ok := b.Params["principal"]; ok {
		return b.Params.Float("principal", 0), nil
	}
	l := b.Links.Principal
	if l.FromProperty != "" {
		ref, err := ctx.Brick(l.FromProperty)
		if err != nil {
			return 0, err
		}
		price := ref.Params.Float("initial_value", 0)
		fees := price * ref.Params.Float("fees_pct", 0)
		financed := fees * feesFinancedPct(ref.Params)
		down := b.Params.Float("down_payment", 0)
		if pct := b.Params.Float("down_payment_pct", 0); pct > 0 {
			down = price * pct
		}
		amount := price - down + financed
		if amount <= 0 {
			return 0, &finbrick.ConfigError{ID: b.ID, Reason: "down payment exceeds purchase price"}
		}
		return amount, nil
	}
	out, err := ctx.Output(l.RemainingOf)
	if err != nil {
		return 0, err
	}
	share := l.Share
	if share == 0 {
		share = 1
	}
	if t0 == 0 {
		return 0, &finbrick.ConfigError{ID: b.ID, Reason: "refinancing loan cannot start in the first month"}
	}
	remaining := out.DebtBalance.Get(ctx.Timeline.From.Add(t0 - 1))
	if remaining <= 0 {
		return 0, &finbrick.ConfigError{ID: b.ID, Reason: fmt.Sprintf("%s has no remaining debt to refinance", l.RemainingOf)}
	}
	amount := share * remaining
	if l.Nominal > 0 && l.Nominal < amount {
		amount = l.Nominal
	}
	return amount, nil
}

func (s *MortgageAnnuity) Simulate(b *finbrick.Brick, ctx *finbrick.Context) (*finbrick.Output, error) {
	out := finbrick.NewOutput(ctx.Timeline)
	mask := ctx.ActiveMask(b)
	t0 := firstActive(mask)
	if t0 < 0 {
		return out, nil
	}
	tStop := lastActive(mask)

	principal, err := s.principal(b, ctx, t0)
	if err != nil {
		return nil, err
	}
	rm := b.Params.Float("rate_pa", 0) / 12
	term := b.Params.Int("term_months", 0)
	offset := b.Params.Int("first_payment_offset", 1)
	if offset < 0 {
		offset = 0
	}

	var annuity float64
	if rm == 0 {
		annuity = principal / float64(term)
	} else {
		q := math.Pow(1+rm, float64(term))
		annuity = principal * rm * q / (q - 1)
	}

	start := ctx.Timeline.From.Add(t0)
	out.CashIn.AddAt(start, principal)
	out.Events = append(out.Events, finbrick.Event{On: start, Kind: "loan_draw", Message: fmt.Sprintf("loan drawn: %.2f", principal)})

	prepayAmount := b.Params.Float("prepay_amount", 0)
	prepayAfter := b.Params.Int("prepay_after_m", 0)
	prepayFee := b.Params.Float("prepay_fee_pct", 0)

	debt := principal
	lastDebt := principal
	for i := t0; i < ctx.Timeline.Months(); i++ {
		p := ctx.Timeline.From.Add(i)
		if i > tStop || debt <= 0 {
			out.DebtBalance.Set(p, debt)
			continue
		}
		if i-t0 >= offset {
			interest := debt * rm
			principalPay := math.Min(annuity-interest, debt)
			out.CashOut.AddAt(p, interest+principalPay)
			out.Interest.AddAt(p, interest)
			debt -= principalPay
		}
		if prepayAmount > 0 && i-t0 == prepayAfter && debt > 0 {
			pay := math.Min(prepayAmount, debt)
			out.CashOut.AddAt(p, pay*(1+prepayFee))
			debt -= pay
			out.Events = append(out.Events, finbrick.Event{On: p, Kind: "prepayment", Message: fmt.Sprintf("prepaid %.2f", pay)})
		}
		out.DebtBalance.Set(p, debt)
		lastDebt = debt
	}

	// Residual debt at the window end is either paid off with a balloon
	// payment or left standing for a refinancing loan to pick up. A window
	// running to the end of the timeline has no balloon, the debt simply
	// continues past the horizon.
	if lastDebt > 0 && tStop < ctx.Timeline.Months()-1 {
		p := ctx.Timeline.From.Add(tStop)
		switch b.Params.Str("balloon_policy", "payoff") {
		case "payoff":
			residual := out.DebtBalance.Get(p)
			if residual > 0 {
				out.CashOut.AddAt(p, residual)
				for i := tStop; i < ctx.Timeline.Months(); i++ {
					out.DebtBalance.Set(ctx.Timeline.From.Add(i), 0)
				}
				out.Events = append(out.Events, finbrick.Event{On: p, Kind: "balloon_payoff", Message: fmt.Sprintf("balloon payoff: %.2f", residual)})
			}
		case "refinance":
			out.Events = append(out.Events, finbrick.Event{On: p, Kind: "balloon_due", Message: fmt.Sprintf("balloon due: %.2f", out.DebtBalance.Get(p))})
		}
	}
	return out, nil
}
