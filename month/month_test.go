package month

import "testing"

// TestNormalize asserts that New normalizes out-of-range months into the
// following or preceding year.
func TestNormalize(t *testing.T) {
	if got, want := New(2025, 13), New(2026, 1); got != want {
		t.Errorf("New(2025, 13) = %v want %v", got, want)
	}
	if got, want := New(2025, 0), New(2024, 12); got != want {
		t.Errorf("New(2025, 0) = %v want %v", got, want)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Period
		err  bool
	}{
		{in: "2026-01", want: New(2026, 1)},
		{in: "2026-7", want: New(2026, 7)},
		{in: "2026-13", err: true},
		{in: "2026", err: true},
		{in: "", err: true},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if (err != nil) != tt.err {
			t.Errorf("Parse(%q) error = %v, want error %v", tt.in, err, tt.err)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("Parse(%q) = %v want %v", tt.in, got, tt.want)
		}
	}
}

func TestAddSub(t *testing.T) {
	p := New(2026, 1)
	if got, want := p.Add(14), New(2027, 3); got != want {
		t.Errorf("Add(14) = %v want %v", got, want)
	}
	if got, want := p.Add(-1), New(2025, 12); got != want {
		t.Errorf("Add(-1) = %v want %v", got, want)
	}
	if got, want := New(2027, 3).Sub(p), 14; got != want {
		t.Errorf("Sub = %v want %v", got, want)
	}
}

func TestRangePeriods(t *testing.T) {
	r := NewRange(New(2025, 11), 4)
	if got, want := r.Months(), 4; got != want {
		t.Errorf("Months() = %v want %v", got, want)
	}
	var got []Period
	for p := range r.Periods() {
		got = append(got, p)
	}
	want := []Period{New(2025, 11), New(2025, 12), New(2026, 1), New(2026, 2)}
	if len(got) != len(want) {
		t.Fatalf("Periods() yielded %d periods want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Periods()[%d] = %v want %v", i, got[i], want[i])
		}
	}
	if !r.Contains(New(2026, 2)) {
		t.Errorf("Contains(2026-02) = false want true")
	}
	if r.Contains(New(2026, 3)) {
		t.Errorf("Contains(2026-03) = true want false")
	}
}
