package finbrick

import (
	"bytes"
	"strings"
	"testing"

	"github.com/finbricklab/finbrick/month"
)

func TestEncodeLedger(t *testing.T) {
	j := NewJournal(testAccounts(t))
	if err := j.Post(flow(t, "feb", month.MustParse("2026-02"), 50)); err != nil {
		t.Fatal(err)
	}
	if err := j.Post(flow(t, "jan", month.MustParse("2026-01"), 100)); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := EncodeLedger(&buf, j); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	if !strings.Contains(lines[0], `"id":"jan"`) {
		t.Errorf("first line is not the January entry: %s", lines[0])
	}
	if !strings.Contains(lines[0], `"on":"2026-01"`) {
		t.Errorf("missing month stamp: %s", lines[0])
	}
	if !strings.Contains(lines[0], `"amount":100`) {
		t.Errorf("missing amount: %s", lines[0])
	}
}

func TestEncodeLedgerCSV(t *testing.T) {
	j := NewJournal(testAccounts(t))
	if err := j.Post(flow(t, "jan", month.MustParse("2026-01"), 100)); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := EncodeLedgerCSV(&buf, j); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 { // header plus two postings
		t.Fatalf("csv lines = %d, want 3", len(lines))
	}
	if lines[0] != "month,entry,account,currency,amount" {
		t.Errorf("header = %s", lines[0])
	}
	if !strings.Contains(buf.String(), "2026-01,jan,asset:main,EUR,100") {
		t.Errorf("missing posting row:\n%s", buf.String())
	}
}

func TestDecodeScenario(t *testing.T) {
	doc := `{
		"id": "plan",
		"currency": "EUR",
		"bricks": [
			{"id": "main", "kind": "a.cash", "params": {"initial_balance": 10000}},
			{"id": "salary", "kind": "f.income.recurring", "params": {"amount_monthly": 3000},
			 "window": {"start": "2026-03", "duration_m": 12}}
		],
		"macrobricks": [
			{"id": "all", "members": ["main", "salary"]}
		]
	}`
	s, err := DecodeScenario(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Bricks) != 2 || len(s.Macros) != 1 {
		t.Fatalf("decoded %d bricks, %d macros", len(s.Bricks), len(s.Macros))
	}
	if s.Bricks[0].Family != FamilyAsset || s.Bricks[1].Family != FamilyFlow {
		t.Errorf("families = %s, %s", s.Bricks[0].Family, s.Bricks[1].Family)
	}
	if got := s.Bricks[1].Window.Start; got != month.MustParse("2026-03") {
		t.Errorf("window start = %s", got)
	}
	if got := s.Bricks[1].Params.Float("amount_monthly", 0); got != 3000 {
		t.Errorf("amount_monthly = %v", got)
	}
}

func TestDecodeScenarioRejectsBadInput(t *testing.T) {
	for name, doc := range map[string]string{
		"unknown kind":   `{"bricks":[{"id":"x","kind":"z.weird"}]}`,
		"missing id":     `{"bricks":[{"kind":"a.cash"}]}`,
		"unknown member": `{"bricks":[], "macrobricks":[{"id":"m","members":["ghost"]}]}`,
		"unknown field":  `{"bricks":[], "surprise": 1}`,
	} {
		if _, err := DecodeScenario(strings.NewReader(doc)); err == nil {
			t.Errorf("%s accepted", name)
		}
	}
}

func TestScenarioRoundTrip(t *testing.T) {
	s := &Scenario{
		ID:       "plan",
		Currency: "EUR",
		Bricks: []*Brick{
			{ID: "main", Kind: KindCash, Params: Params{"initial_balance": 10000.0}},
			{ID: "loan", Kind: KindMortgageAnnuity,
				Links:  Links{Principal: &PrincipalLink{FromProperty: "house"}},
				Params: Params{"rate_pa": 0.03, "term_months": 360.0}},
			{ID: "house", Kind: KindProperty,
				Params: Params{"initial_value": 400000.0, "fees_pct": 0.1, "appreciation_pa": 0.02}},
		},
	}
	var buf bytes.Buffer
	if err := EncodeScenario(&buf, s); err != nil {
		t.Fatal(err)
	}
	back, err := DecodeScenario(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(back.Bricks) != 3 {
		t.Fatalf("round trip lost bricks: %d", len(back.Bricks))
	}
	if back.Bricks[1].Links.Principal == nil || back.Bricks[1].Links.Principal.FromProperty != "house" {
		t.Error("round trip lost the principal link")
	}
}
