package month

import (
	"encoding/json"
	"fmt"
	"iter"
	"slices"
)

// Series stores one value per month over a fixed range. Its timeline is dense:
// every month of the range has a slot, zero-valued until set.
type Series[T float32 | float64] struct {
	r      Range
	values []T
}

// NewSeries returns a zero-valued series covering the given range.
func NewSeries[T float32 | float64](r Range) *Series[T] {
	return &Series[T]{r: r, values: make([]T, r.Months())}
}

// Range returns the range the series covers.
func (s *Series[T]) Range() Range { return s.r }

// Len returns the number of months in the series.
func (s *Series[T]) Len() int { return len(s.values) }

// Get returns the value for the given period, or zero outside the range.
func (s *Series[T]) Get(p Period) T {
	i := s.r.Index(p)
	if i < 0 || i >= len(s.values) {
		return *new(T)
	}
	return s.values[i]
}

// Set stores the value for the given period. Periods outside the range are ignored.
func (s *Series[T]) Set(p Period, v T) {
	if i := s.r.Index(p); i >= 0 && i < len(s.values) {
		s.values[i] = v
	}
}

// AddAt adds the value to the slot for the given period. Periods outside the
// range are ignored.
func (s *Series[T]) AddAt(p Period, v T) {
	if i := s.r.Index(p); i >= 0 && i < len(s.values) {
		s.values[i] += v
	}
}

// Last returns the value of the final month of the range.
func (s *Series[T]) Last() T {
	if len(s.values) == 0 {
		return *new(T)
	}
	return s.values[len(s.values)-1]
}

// Sum returns the sum of all values in the series.
func (s *Series[T]) Sum() T {
	var total T
	for _, v := range s.values {
		total += v
	}
	return total
}

// Values returns a copy of the underlying values in chronological order.
func (s *Series[T]) Values() []T { return slices.Clone(s.values) }

// Add accumulates the other series into s element-wise. Both series must
// cover the same range.
func (s *Series[T]) Add(other *Series[T]) error {
	if other.r != s.r {
		return fmt.Errorf("cannot add series over %s to series over %s", other.r, s.r)
	}
	for i, v := range other.values {
		s.values[i] += v
	}
	return nil
}

// All returns an iterator over the (period, value) pairs in chronological order.
func (s *Series[T]) All() iter.Seq2[Period, T] {
	return func(yield func(Period, T) bool) {
		for i, v := range s.values {
			if !yield(s.r.From.Add(i), v) {
				return
			}
		}
	}
}

// MarshalJSON renders the series as its starting month and the dense value
// slice, one value per month.
func (s *Series[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		From   Period `json:"from"`
		Values []T    `json:"values"`
	}{s.r.From, s.values})
}

// YearlySum aggregates the series by calendar year, summing the values of
// each year. It returns the years and their sums in chronological order.
func (s *Series[T]) YearlySum() (years []int, sums []T) {
	return s.yearly(func(acc, v T) T { return acc + v })
}

// YearlyLast aggregates the series by calendar year, keeping the last value
// of each year. It returns the years and their values in chronological order.
func (s *Series[T]) YearlyLast() (years []int, lasts []T) {
	return s.yearly(func(_, v T) T { return v })
}

func (s *Series[T]) yearly(merge func(acc, v T) T) (years []int, out []T) {
	for p, v := range s.All() {
		if n := len(years); n > 0 && years[n-1] == p.Year() {
			out[n-1] = merge(out[n-1], v)
			continue
		}
		years = append(years, p.Year())
		out = append(out, v)
	}
	return years, out
}
