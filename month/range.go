package month

import (
	"fmt"
	"iter"
)

// Range represents a contiguous range of months, boundaries included.
type Range struct{ From, To Period }

// NewRange returns the range starting at from and spanning the given number
// of months. A span lower than one is normalized to one.
func NewRange(from Period, months int) Range {
	if months < 1 {
		months = 1
	}
	return Range{From: from, To: from.Add(months - 1)}
}

// Contains reports whether the period is included in the range (boundaries included).
func (r Range) Contains(p Period) bool { return !p.Before(r.From) && !p.After(r.To) }

// Months returns the number of months in the range.
func (r Range) Months() int { return r.To.Sub(r.From) + 1 }

// Index returns the zero-based position of p within the range. It can be
// negative or beyond Months for periods outside the range.
func (r Range) Index(p Period) int { return p.Sub(r.From) }

// Periods returns an iterator over all periods in the range in chronological order.
func (r Range) Periods() iter.Seq[Period] {
	return func(yield func(Period) bool) {
		for p := r.From; !p.After(r.To); p = p.Add(1) {
			if !yield(p) {
				return
			}
		}
	}
}

// String formats the range as "from..to".
func (r Range) String() string { return fmt.Sprintf("%s..%s", r.From, r.To) }
