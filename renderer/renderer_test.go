package renderer

import (
	"strings"
	"testing"

	"github.com/finbricklab/finbrick"
	"github.com/finbricklab/finbrick/month"
	"github.com/finbricklab/finbrick/strategies"
)

func testRun(t *testing.T) *finbrick.RunResult {
	t.Helper()
	s := &finbrick.Scenario{
		Currency: "EUR",
		Bricks: []*finbrick.Brick{
			{ID: "main", Kind: finbrick.KindCash, Params: finbrick.Params{"initial_balance": 10000.0}},
			{ID: "salary", Kind: finbrick.KindIncomeRecurring, Params: finbrick.Params{"amount_monthly": 3000.0}},
		},
		Macros: []*finbrick.MacroBrick{{ID: "income", Members: []string{"salary"}}},
	}
	res, err := s.Run(month.MustParse("2026-01"), 24, nil, strategies.DefaultCatalog())
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func TestRunMarkdown(t *testing.T) {
	out := RunMarkdown(testRun(t))
	for _, want := range []string{
		"# Projection",
		"## Yearly Totals",
		"| 2026 |",
		"| 2027 |",
		"## MacroBricks",
		"| income |",
		"Execution order: salary, main",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestLedgerMarkdown(t *testing.T) {
	res := testRun(t)
	out := LedgerMarkdown(res.Journal)
	if !strings.Contains(out, "asset:main") {
		t.Errorf("missing cash account in:\n%s", out)
	}
	if !strings.Contains(out, "2026-01") {
		t.Errorf("missing first month in:\n%s", out)
	}
}

func TestReportMarkdown(t *testing.T) {
	report := &finbrick.Report{
		Cycles:           [][]string{{"m1", "m2", "m1"}},
		EmptyMacroBricks: []string{"empty"},
	}
	out := ReportMarkdown(report)
	if !strings.Contains(out, "# Validation failed") {
		t.Errorf("missing heading in:\n%s", out)
	}
	if !strings.Contains(out, "m1 -> m2 -> m1") {
		t.Errorf("missing cycle path in:\n%s", out)
	}
}
