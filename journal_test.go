package finbrick

import (
	"strings"
	"testing"

	"github.com/finbricklab/finbrick/month"
)

func testAccounts(t *testing.T) *AccountRegistry {
	t.Helper()
	r := NewAccountRegistry("EUR")
	if _, err := r.RegisterBrickAccount("main", FamilyAsset, "Main Account", "EUR"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.RegisterBrickAccount("loan", FamilyLiability, "Loan", "EUR"); err != nil {
		t.Fatal(err)
	}
	return r
}

func flow(t *testing.T, id string, on month.Period, amount float64) *Entry {
	t.Helper()
	m := M(amount, "EUR")
	e, err := NewEntry(id, on,
		Posting{Account: BoundaryAccountID, Amount: m.Neg()},
		Posting{Account: "asset:main", Amount: m},
	)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestEntryRejectsUnbalancedPostings(t *testing.T) {
	on := month.MustParse("2026-01")
	_, err := NewEntry("e1", on,
		Posting{Account: BoundaryAccountID, Amount: M(-100, "EUR")},
		Posting{Account: "asset:main", Amount: M(99, "EUR")},
	)
	if err == nil {
		t.Fatal("unbalanced entry accepted")
	}
	if !strings.Contains(err.Error(), "sum to") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestEntryRejectsSinglePosting(t *testing.T) {
	on := month.MustParse("2026-01")
	if _, err := NewEntry("e1", on, Posting{Account: "asset:main", Amount: M(0, "EUR")}); err == nil {
		t.Fatal("single-posting entry accepted")
	}
}

func TestEntryRejectsMissingCurrency(t *testing.T) {
	on := month.MustParse("2026-01")
	_, err := NewEntry("e1", on,
		Posting{Account: BoundaryAccountID, Amount: M(-100, "")},
		Posting{Account: "asset:main", Amount: M(100, "")},
	)
	if err == nil {
		t.Fatal("currency-less entry accepted")
	}
}

func TestEntryBalancesPerCurrency(t *testing.T) {
	on := month.MustParse("2026-01")
	_, err := NewEntry("e1", on,
		Posting{Account: BoundaryAccountID, Amount: M(-100, "EUR")},
		Posting{Account: "asset:main", Amount: M(100, "EUR")},
		Posting{Account: BoundaryAccountID, Amount: M(-5, "USD")},
		Posting{Account: "asset:main", Amount: M(5, "USD")},
	)
	if err != nil {
		t.Fatalf("multi-currency entry rejected: %v", err)
	}
	_, err = NewEntry("e2", on,
		Posting{Account: BoundaryAccountID, Amount: M(-100, "EUR")},
		Posting{Account: "asset:main", Amount: M(100, "USD")},
	)
	if err == nil {
		t.Fatal("cross-currency imbalance accepted")
	}
}

func TestJournalRejectsDuplicateID(t *testing.T) {
	j := NewJournal(testAccounts(t))
	on := month.MustParse("2026-01")
	if err := j.Post(flow(t, "e1", on, 100)); err != nil {
		t.Fatal(err)
	}
	if err := j.Post(flow(t, "e1", on, 200)); err == nil {
		t.Fatal("duplicate entry id accepted")
	}
	if j.Len() != 1 {
		t.Errorf("journal length = %d, want 1", j.Len())
	}
}

func TestJournalKeepsMonthOrder(t *testing.T) {
	j := NewJournal(testAccounts(t))
	j.Post(flow(t, "mar", month.MustParse("2026-03"), 1))
	j.Post(flow(t, "jan", month.MustParse("2026-01"), 1))
	j.Post(flow(t, "feb1", month.MustParse("2026-02"), 1))
	j.Post(flow(t, "feb2", month.MustParse("2026-02"), 1))
	var got []string
	for e := range j.Entries() {
		got = append(got, e.ID)
	}
	want := "jan,feb1,feb2,mar"
	if s := strings.Join(got, ","); s != want {
		t.Errorf("entry order = %s, want %s", s, want)
	}
}

func TestBalanceAsOfReplays(t *testing.T) {
	j := NewJournal(testAccounts(t))
	j.Post(flow(t, "jan", month.MustParse("2026-01"), 100))
	j.Post(flow(t, "feb", month.MustParse("2026-02"), 50))
	j.Post(flow(t, "apr", month.MustParse("2026-04"), 25))

	for _, tc := range []struct {
		asOf string
		want float64
	}{
		{"2026-01", 100},
		{"2026-02", 150},
		{"2026-03", 150},
		{"2026-04", 175},
		{"2026-12", 175},
	} {
		got := j.BalanceAsOf("asset:main", "EUR", month.MustParse(tc.asOf))
		if got.AsFloat() != tc.want {
			t.Errorf("balance as of %s = %v, want %v", tc.asOf, got.AsFloat(), tc.want)
		}
	}
	if got := j.Balance("asset:main", "EUR").AsFloat(); got != 175 {
		t.Errorf("cached balance = %v, want 175", got)
	}
}

func TestTrialBalanceSumsToZero(t *testing.T) {
	j := NewJournal(testAccounts(t))
	j.Post(flow(t, "jan", month.MustParse("2026-01"), 100))
	j.Post(flow(t, "feb", month.MustParse("2026-02"), 50))
	sum := M(0, "EUR")
	for _, byCur := range j.TrialBalanceAsOf(month.MustParse("2026-12")) {
		sum = sum.Add(byCur["EUR"])
	}
	if !sum.IsZero() {
		t.Errorf("trial balance sums to %s, want zero", sum)
	}
}

func TestCashflowScope(t *testing.T) {
	j := NewJournal(testAccounts(t))
	j.Post(flow(t, "jan", month.MustParse("2026-01"), 100))
	j.Post(flow(t, "may", month.MustParse("2026-05"), 40))

	window := month.NewRange(month.MustParse("2026-01"), 3)
	internal := j.Cashflow(window, ScopeInternal)
	if got := internal["EUR"].AsFloat(); got != 100 {
		t.Errorf("internal cashflow = %v, want 100", got)
	}
	boundary := j.Cashflow(window, ScopeBoundary)
	if got := boundary["EUR"].AsFloat(); got != -100 {
		t.Errorf("boundary cashflow = %v, want -100", got)
	}
	all := j.Cashflow(window, "")
	if got := all["EUR"].AsFloat(); got != 0 {
		t.Errorf("unscoped cashflow = %v, want 0", got)
	}
}

func TestValidateInvariantsReportsOrphans(t *testing.T) {
	j := NewJournal(testAccounts(t))
	e, err := NewEntry("e1", month.MustParse("2026-01"),
		Posting{Account: "asset:ghost", Amount: M(-10, "EUR")},
		Posting{Account: "asset:main", Amount: M(10, "EUR")},
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := j.Post(e); err != nil {
		t.Fatal(err)
	}
	violations := j.ValidateInvariants()
	if len(violations) != 1 {
		t.Fatalf("violations = %v, want exactly the orphan", violations)
	}
	if !strings.Contains(violations[0].Error(), "ghost") {
		t.Errorf("unexpected violation: %v", violations[0])
	}
}

func TestEntryIDDeterministic(t *testing.T) {
	on := month.MustParse("2026-03")
	params := Params{"amount": 100.0, "rate": 0.02}
	links := Links{From: "a", To: "b"}
	id1 := EntryID("brick", on, params, links, 1)
	id2 := EntryID("brick", on, Params{"rate": 0.02, "amount": 100.0}, links, 1)
	if id1 != id2 {
		t.Error("entry id depends on parameter order")
	}
	if len(id1) != 16 {
		t.Errorf("entry id length = %d, want 16", len(id1))
	}
	if EntryID("brick", on, params, links, 2) == id1 {
		t.Error("entry id ignores the sequence number")
	}
	if EntryID("brick", on.Add(1), params, links, 1) == id1 {
		t.Error("entry id ignores the month")
	}
}
