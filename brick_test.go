package finbrick

import (
	"strings"
	"testing"

	"github.com/finbricklab/finbrick/month"
)

func TestFamilyOfKind(t *testing.T) {
	tests := []struct {
		kind string
		want Family
	}{
		{KindCash, FamilyAsset},
		{KindMortgageAnnuity, FamilyLiability},
		{KindIncomeRecurring, FamilyFlow},
		{KindTransferLumpSum, FamilyTransfer},
	}
	for _, tc := range tests {
		got, err := FamilyOfKind(tc.kind)
		if err != nil {
			t.Fatalf("%s: %v", tc.kind, err)
		}
		if got != tc.want {
			t.Errorf("FamilyOfKind(%s) = %s, want %s", tc.kind, got, tc.want)
		}
	}
	for _, kind := range []string{"cash", "x.custom", ""} {
		if _, err := FamilyOfKind(kind); err == nil {
			t.Errorf("FamilyOfKind(%q) accepted", kind)
		}
	}
}

func TestWindowMask(t *testing.T) {
	timeline := month.NewRange(month.MustParse("2026-01"), 6)
	count := func(mask []bool) int {
		n := 0
		for _, a := range mask {
			if a {
				n++
			}
		}
		return n
	}

	if got := count(Window{}.Mask(timeline, nil)); got != 6 {
		t.Errorf("zero window active months = %d, want 6", got)
	}
	w := Window{Start: month.MustParse("2026-03")}
	if got := count(w.Mask(timeline, nil)); got != 4 {
		t.Errorf("open-ended window active months = %d, want 4", got)
	}
	w = Window{Start: month.MustParse("2026-03"), Duration: 2}
	mask := w.Mask(timeline, nil)
	if count(mask) != 2 || !mask[2] || !mask[3] {
		t.Errorf("duration window mask = %v", mask)
	}
	w = Window{Start: month.MustParse("2027-06")}
	if got := count(w.Mask(timeline, nil)); got != 0 {
		t.Errorf("window after timeline active months = %d, want 0", got)
	}
}

func TestWindowEndOverridesDuration(t *testing.T) {
	timeline := month.NewRange(month.MustParse("2026-01"), 12)
	var warned string
	warn := func(format string, args ...any) { warned = format }
	w := Window{End: month.MustParse("2026-04"), Duration: 10}
	mask := w.Mask(timeline, warn)
	if warned == "" {
		t.Error("end overriding duration not warned about")
	}
	if mask[3] != true || mask[4] != false {
		t.Errorf("mask = %v, want end at 2026-04", mask)
	}
}

func TestParamsAccessors(t *testing.T) {
	p := Params{"f": 1.5, "i": 3, "fi": 4.0, "b": true, "s": "x"}
	if got := p.Float("f", 0); got != 1.5 {
		t.Errorf("Float = %v", got)
	}
	if got := p.Float("i", 0); got != 3 {
		t.Errorf("Float from int = %v", got)
	}
	if got := p.Int("fi", 0); got != 4 {
		t.Errorf("Int from float = %v", got)
	}
	if got := p.Bool("b", false); !got {
		t.Error("Bool = false")
	}
	if got := p.Str("s", ""); got != "x" {
		t.Errorf("Str = %q", got)
	}
	if got := p.Float("missing", 7); got != 7 {
		t.Errorf("default = %v", got)
	}
}

func TestLinksRefsSorted(t *testing.T) {
	l := Links{
		Principal: &PrincipalLink{FromProperty: "house"},
		Start:     &StartLink{OnEndOf: "loan0"},
		From:      "main",
		To:        "reserve",
	}
	if got := strings.Join(l.Refs(), ","); got != "house,loan0,main,reserve" {
		t.Errorf("refs = %s", got)
	}
	if got := (Links{}).Refs(); len(got) != 0 {
		t.Errorf("empty links refs = %v", got)
	}
}

func TestBrickCloneIsDeep(t *testing.T) {
	b := &Brick{
		ID:     "loan",
		Kind:   KindMortgageAnnuity,
		Params: Params{"rate_pa": 0.03},
		Links:  Links{Principal: &PrincipalLink{FromProperty: "house"}},
	}
	c := b.Clone()
	c.Params["rate_pa"] = 0.05
	c.Links.Principal.FromProperty = "other"
	if b.Params.Float("rate_pa", 0) != 0.03 {
		t.Error("clone shares params")
	}
	if b.Links.Principal.FromProperty != "house" {
		t.Error("clone shares links")
	}
}
