package calendar

import (
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"
)

// DateLayout is the serialised form of a Day.
const DateLayout = time.DateOnly

// ErrInvalidDay is returned when a date string cannot be parsed.
var ErrInvalidDay = errors.New("calendar: invalid date")

// Day is a calendar date without a time component. Two days are the same day
// when their fields are equal, so Day can be used as a map key.
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

var zero Day

// NewDay returns the calendar date of t in its own location.
func NewDay(t time.Time) Day {
	year, month, day := t.Date()
	return Day{Year: year, Month: month, Day: day}
}

// Date builds a Day, normalising out-of-range months and days the same way
// time.Date does.
func Date(year int, month time.Month, day int) Day {
	return NewDay(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// ParseDay parses a yyyy-MM-dd string.
func ParseDay(value string) (Day, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return Day{}, fmt.Errorf("%w: %q", ErrInvalidDay, value)
	}
	return NewDay(t), nil
}

// MustParseDay is like ParseDay but panics on malformed input. Intended for
// tests and constants.
func MustParseDay(value string) Day {
	d, err := ParseDay(value)
	if err != nil {
		panic(err)
	}
	return d
}

// Today resolves the current date in the display location. A nil location
// means UTC.
func Today(now time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.UTC
	}
	return NewDay(now.In(loc))
}

// Time returns midnight of the day in loc (UTC when loc is nil).
func (d Day) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Day) String() string {
	return d.Format(DateLayout)
}

// Format renders the day using a Go reference layout.
func (d Day) Format(layout string) string {
	return d.Time(nil).Format(layout)
}

// IsZero reports whether d is the zero Day.
func (d Day) IsZero() bool {
	return d == zero
}

// AddDays returns the day n days after d. Negative n moves backwards.
func (d Day) AddDays(n int) Day {
	return NewDay(d.Time(nil).AddDate(0, 0, n))
}

// Next returns the following day.
func (d Day) Next() Day {
	return d.AddDays(1)
}

// Prev returns the preceding day.
func (d Day) Prev() Day {
	return d.AddDays(-1)
}

// MonthStart returns the first day of d's month.
func (d Day) MonthStart() Day {
	return Day{Year: d.Year, Month: d.Month, Day: 1}
}

// AddMonths moves to the first day of the month n months away from d.
func (d Day) AddMonths(n int) Day {
	return Date(d.Year, d.Month+time.Month(n), 1)
}

// DaysInMonth returns the number of days in d's month.
func (d Day) DaysInMonth() int {
	return d.MonthStart().AddMonths(1).Prev().Day
}

// Weekday returns the day of the week.
func (d Day) Weekday() time.Weekday {
	return d.Time(nil).Weekday()
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or
// after other.
func (d Day) Compare(other Day) int {
	switch {
	case d.Year != other.Year:
		return cmpInt(d.Year, other.Year)
	case d.Month != other.Month:
		return cmpInt(int(d.Month), int(other.Month))
	default:
		return cmpInt(d.Day, other.Day)
	}
}

// Before reports whether d is strictly earlier than other.
func (d Day) Before(other Day) bool {
	return d.Compare(other) < 0
}

// After reports whether d is strictly later than other.
func (d Day) After(other Day) bool {
	return d.Compare(other) > 0
}

// Until enumerates every day from d through endInclusive. Nothing is yielded
// when endInclusive is before d.
func (d Day) Until(endInclusive Day) iter.Seq[Day] {
	return func(yield func(Day) bool) {
		for cur := d; !cur.After(endInclusive); cur = cur.Next() {
			if !yield(cur) {
				return
			}
		}
	}
}

// DaysBetween returns the signed number of days from a to b.
func DaysBetween(a, b Day) int {
	return int(b.Time(nil).Sub(a.Time(nil)).Hours() / 24)
}

// MinMax orders two days.
func MinMax(a, b Day) (Day, Day) {
	if b.Before(a) {
		return b, a
	}
	return a, b
}

// MarshalJSON encodes the day as "yyyy-MM-dd".
func (d Day) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a "yyyy-MM-dd" string.
func (d *Day) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseDay(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
