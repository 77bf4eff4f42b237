package month

import (
	"encoding/json"
	"fmt"
	"time"
)

const readPeriodFormat = "2006-1" // Permissive read format (allows single-digit month).

// PeriodFormat is the format used to represent periods as strings in ISO-8601 format.
const PeriodFormat = "2006-01" // write period format

// Period represents a calendar month, the smallest unit of simulated time.
type Period struct {
	y int
	m time.Month
}

// time returns a time.Time that is a canonical representation of that month
// (first day at midnight UTC).
func (p Period) time() time.Time { return time.Date(p.y, p.m, 1, 0, 0, 0, 0, time.UTC) }

// New returns a normalized Period for the given year and month.
func New(year int, month time.Month) Period {
	p := Period{year, month}
	p.y, p.m, _ = p.time().Date()
	return p
}

// Year returns the year of the period.
func (p Period) Year() int { return p.y }

// Month returns the month of the period.
func (p Period) Month() time.Month { return p.m }

// Before reports whether the period p is strictly before x.
func (p Period) Before(x Period) bool { return p.time().Before(x.time()) }

// After reports whether the period p is strictly after x.
func (p Period) After(x Period) bool { return p.time().After(x.time()) }

// Compare returns -1, 0 or 1 depending on whether p is before, equal to or
// after x.
func (p Period) Compare(x Period) int { return p.time().Compare(x.time()) }

// Add returns a new Period with the given number of months added.
func (p Period) Add(months int) Period { return New(p.y, p.m+time.Month(months)) }

// Sub returns the number of months from x to p.
func (p Period) Sub(x Period) int { return (p.y-x.y)*12 + int(p.m) - int(x.m) }

// Now returns the current month.
func Now() Period {
	y, m, _ := time.Now().Date()
	return New(y, m)
}

// String formats the period in its standard format.
func (p Period) String() string { return p.time().Format(PeriodFormat) }

// Parse parses a Period from a string. It is lenient and accepts formats like "2026-7".
func Parse(str string) (Period, error) {
	on, err := time.Parse(readPeriodFormat, str)
	if err != nil {
		return Period{}, fmt.Errorf("invalid month %q want format %q: %w", str, readPeriodFormat, err)
	}
	y, m, _ := on.Date()
	return New(y, m), nil
}

// MustParse is like Parse but panics on error.
func MustParse(str string) Period {
	p, err := Parse(str)
	if err != nil {
		panic(err.Error())
	}
	return p
}

// UnmarshalJSON implements the json specific way to unmarshal a period from a json string.
func (p *Period) UnmarshalJSON(bytes []byte) error {
	var str string
	if err := json.Unmarshal(bytes, &str); err != nil {
		return err
	}
	v, err := Parse(str)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

func (p Period) MarshalJSON() ([]byte, error) {
	str := p.String()
	return json.Marshal(&str)
}

// check that a Period pointer is a valid json marshall/unmarshaller type.
var _ json.Marshaler = (*Period)(nil)
var _ json.Unmarshaler = (*Period)(nil)
