package finbrick_test

import (
	"strings"
	"testing"

	"github.com/finbricklab/finbrick"
	"github.com/finbricklab/finbrick/month"
)

func TestValidateRunPasses(t *testing.T) {
	s := &finbrick.Scenario{
		Currency: "EUR",
		Bricks: []*finbrick.Brick{
			cashBrick("main", 120000),
			incomeBrick("salary", 5000),
			expenseBrick("living", 2000),
			{ID: "house", Kind: finbrick.KindProperty, Params: finbrick.Params{
				"initial_value":   400000.0,
				"fees_pct":        0.10,
				"appreciation_pa": 0.02,
			}},
			{ID: "loan", Kind: finbrick.KindMortgageAnnuity,
				Links: finbrick.Links{Principal: &finbrick.PrincipalLink{FromProperty: "house"}},
				Params: finbrick.Params{
					"down_payment": 80000.0,
					"rate_pa":      0.03,
					"term_months":  360,
				}},
		},
	}
	res := mustRun(t, s, 24, nil)
	if err := finbrick.ValidateRun(res, s.Bricks, finbrick.ModeRaise, 0); err != nil {
		t.Fatalf("valid run rejected: %v", err)
	}
}

func TestValidateRunLiquidityBreach(t *testing.T) {
	s := &finbrick.Scenario{
		Currency: "EUR",
		Bricks: []*finbrick.Brick{
			cashBrick("main", 1000),
			expenseBrick("living", 2000),
		},
	}
	res := mustRun(t, s, 6, nil)
	err := finbrick.ValidateRun(res, s.Bricks, finbrick.ModeRaise, 0)
	if err == nil {
		t.Fatal("overdrawn cash accepted")
	}
	if !strings.Contains(err.Error(), "liquidity breach") {
		t.Errorf("unexpected error: %v", err)
	}
	// The same failures only log in warn mode.
	if err := finbrick.ValidateRun(res, s.Bricks, finbrick.ModeWarn, 0); err != nil {
		t.Errorf("warn mode returned %v", err)
	}
}

func TestValidateRunMinBuffer(t *testing.T) {
	s := &finbrick.Scenario{
		Currency: "EUR",
		Bricks: []*finbrick.Brick{
			{ID: "main", Kind: finbrick.KindCash, Params: finbrick.Params{
				"initial_balance": 10000.0,
				"min_buffer":      9000.0,
			}},
			expenseBrick("living", 1000),
		},
	}
	res := mustRun(t, s, 6, nil)
	err := finbrick.ValidateRun(res, s.Bricks, finbrick.ModeRaise, 0)
	if err == nil || !strings.Contains(err.Error(), "buffer breach") {
		t.Errorf("buffer breach not reported: %v", err)
	}
}

func TestValidateRunEquityIdentityTamper(t *testing.T) {
	res := mustRun(t, householdScenario(), 6, nil)
	res.Totals.Equity.Set(month.MustParse("2026-03"), 1)
	err := finbrick.ValidateRun(res, householdScenario().Bricks, finbrick.ModeRaise, 0)
	if err == nil || !strings.Contains(err.Error(), "equity") {
		t.Errorf("broken equity identity not reported: %v", err)
	}
}

func TestValidateRunNetCashflowTamper(t *testing.T) {
	res := mustRun(t, householdScenario(), 6, nil)
	res.Totals.NetCashflow.Set(month.MustParse("2026-03"), 999)
	err := finbrick.ValidateRun(res, householdScenario().Bricks, finbrick.ModeRaise, 0)
	if err == nil || !strings.Contains(err.Error(), "net cashflow") {
		t.Errorf("broken cashflow identity not reported: %v", err)
	}
}

func TestValidateRunLiabilityIncreaseTamper(t *testing.T) {
	res := mustRun(t, householdScenario(), 6, nil)
	res.Totals.Liabilities.Set(month.MustParse("2026-04"), 5000)
	err := finbrick.ValidateRun(res, householdScenario().Bricks, finbrick.ModeRaise, 1e-6)
	if err == nil || !strings.Contains(err.Error(), "liabilities increased") {
		t.Errorf("liability increase not reported: %v", err)
	}
}

func TestValidateRunNegativeHoldingTamper(t *testing.T) {
	s := &finbrick.Scenario{
		Currency: "EUR",
		Bricks: []*finbrick.Brick{
			cashBrick("main", 10000),
			{ID: "invest", Kind: finbrick.KindETF, Params: finbrick.Params{
				"initial_units": 10.0, "price0": 100.0, "drift_pa": 0.0,
			}},
		},
	}
	res := mustRun(t, s, 6, nil)
	res.Outputs["invest"].AssetValue.Set(month.MustParse("2026-04"), -50)
	err := finbrick.ValidateRun(res, s.Bricks, finbrick.ModeRaise, 0)
	if err == nil || !strings.Contains(err.Error(), "negative holding") {
		t.Errorf("negative holding not reported: %v", err)
	}
}

func TestValidateRunBalloonTamper(t *testing.T) {
	s := &finbrick.Scenario{
		Currency: "EUR",
		Bricks: []*finbrick.Brick{
			cashBrick("main", 200000),
			{ID: "loan", Kind: finbrick.KindMortgageAnnuity,
				Window: finbrick.Window{Duration: 12},
				Params: finbrick.Params{
					"principal":   100000.0,
					"rate_pa":     0.03,
					"term_months": 360,
				}},
		},
	}
	res := mustRun(t, s, 24, nil)
	if err := finbrick.ValidateRun(res, s.Bricks, finbrick.ModeRaise, 0); err != nil {
		t.Fatalf("paid-off balloon rejected: %v", err)
	}
	// Pretend the payoff never cleared the debt.
	res.Outputs["loan"].DebtBalance.Set(month.MustParse("2026-12"), 90000)
	err := finbrick.ValidateRun(res, s.Bricks, finbrick.ModeRaise, 0)
	if err == nil || !strings.Contains(err.Error(), "balloon") {
		t.Errorf("incomplete balloon payoff not reported: %v", err)
	}
}

func TestValidateRunEscalatorTamper(t *testing.T) {
	s := &finbrick.Scenario{
		Currency: "EUR",
		Bricks: []*finbrick.Brick{
			cashBrick("main", 1000),
			{ID: "salary", Kind: finbrick.KindIncomeRecurring, Params: finbrick.Params{
				"amount_monthly":  3000.0,
				"annual_step_pct": 0.02,
			}},
		},
	}
	res := mustRun(t, s, 6, nil)
	res.Outputs["salary"].CashIn.Set(month.MustParse("2026-04"), 2000)
	err := finbrick.ValidateRun(res, s.Bricks, finbrick.ModeRaise, 0)
	if err == nil || !strings.Contains(err.Error(), "escalator") {
		t.Errorf("escalator violation not reported: %v", err)
	}
}
