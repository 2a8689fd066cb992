// Package interval holds the half-open time interval math shared by the
// audit validator and the compliance engine.
package interval

import (
	"fmt"
	"time"

	"github.com/julianstephens/fieldlog/internal/constants"
)

// Interval is a half-open span [Start, End) of wall-clock time.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// New returns the interval [start, end). It does not check ordering; use Valid.
func New(start, end time.Time) Interval {
	return Interval{Start: start, End: end}
}

// Valid reports whether the interval has positive length.
func (iv Interval) Valid() bool {
	return iv.End.After(iv.Start)
}

// Overlaps reports whether a and b share any instant.
// Touching intervals (a.End == b.Start) do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Duration returns End - Start. Sums of durations are exact, so callers that
// aggregate should add durations and convert to hours once.
func Duration(iv Interval) time.Duration {
	return iv.End.Sub(iv.Start)
}

// DurationHours returns the interval length in hours, computed from its bounds.
func DurationHours(iv Interval) float64 {
	return Duration(iv).Hours()
}

// MonthKey identifies a calendar month aggregation bucket. It marshals as
// "YYYY-MM".
type MonthKey struct {
	Year  int
	Month time.Month
}

// MonthOf returns the bucket containing t. A session spanning a month boundary
// belongs wholly to the month of its start.
func MonthOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses a YYYY-MM month key.
func ParseMonth(s string) (MonthKey, error) {
	t, err := time.Parse(constants.MonthFormat, s)
	if err != nil {
		return MonthKey{}, fmt.Errorf("invalid month %q (expected YYYY-MM): %w", s, err)
	}
	return MonthOf(t), nil
}

// FirstDay returns midnight of the first day of the month in loc (UTC when nil).
func (m MonthKey) FirstDay(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, loc)
}

// Before orders month keys chronologically.
func (m MonthKey) Before(o MonthKey) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

// IsZero reports whether m is the zero key.
func (m MonthKey) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

func (m MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Label formats the month for humans, e.g. "March 2023".
func (m MonthKey) Label() string {
	return m.FirstDay(time.UTC).Format("January 2006")
}

func (m MonthKey) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *MonthKey) UnmarshalText(b []byte) error {
	k, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = k
	return nil
}
