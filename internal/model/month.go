package model

import (
	"fmt"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

// Month is a calendar year-month. It is carried externally in canonical
// "YYYY-MM" form but compared numerically, so ordering never depends on how
// the string happened to be written.
type Month struct {
	Year  int
	Month time.Month
}

// NewMonth builds a Month from a year and month number.
func NewMonth(year int, month time.Month) Month {
	return Month{Year: year, Month: month}
}

// MonthOf returns the Month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses the canonical "YYYY-MM" form.
func ParseMonth(s string) (Month, error) {
	if len(s) != 7 || s[4] != '-' {
		return Month{}, eris.Errorf("model: invalid month %q (want YYYY-MM)", s)
	}
	year, err := strconv.Atoi(s[:4])
	if err != nil || year < 1 {
		return Month{}, eris.Errorf("model: invalid month year in %q", s)
	}
	mon, err := strconv.Atoi(s[5:])
	if err != nil || mon < 1 || mon > 12 {
		return Month{}, eris.Errorf("model: invalid month number in %q", s)
	}
	return Month{Year: year, Month: time.Month(mon)}, nil
}

// MustParseMonth is ParseMonth for literals known to be valid. It panics otherwise.
func MustParseMonth(s string) Month {
	m, err := ParseMonth(s)
	if err != nil {
		panic(err)
	}
	return m
}

// String returns the canonical "YYYY-MM" form, or "" for the zero Month.
func (m Month) String() string {
	if m.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// IsZero reports whether m is unset.
func (m Month) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// Compare returns -1, 0 or +1 as m is before, equal to, or after o.
func (m Month) Compare(o Month) int {
	switch {
	case m.Year < o.Year:
		return -1
	case m.Year > o.Year:
		return 1
	case m.Month < o.Month:
		return -1
	case m.Month > o.Month:
		return 1
	default:
		return 0
	}
}

// Before reports whether m is strictly earlier than o.
func (m Month) Before(o Month) bool { return m.Compare(o) < 0 }

// After reports whether m is strictly later than o.
func (m Month) After(o Month) bool { return m.Compare(o) > 0 }

// AddMonths returns m shifted by n months (n may be negative).
func (m Month) AddMonths(n int) Month {
	idx := m.Year*12 + int(m.Month) - 1 + n
	return Month{Year: idx / 12, Month: time.Month(idx%12 + 1)}
}

// Time returns the first instant of the month in UTC.
func (m Month) Time() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// MarshalText implements encoding.TextMarshaler.
func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty input leaves the zero Month.
func (m *Month) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*m = Month{}
		return nil
	}
	parsed, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
