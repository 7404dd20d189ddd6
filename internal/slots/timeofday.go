// Package slots generates the bookable time slots offered for each selected
// day.
package slots

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTime is returned for malformed HH:mm values.
var ErrInvalidTime = errors.New("slots: invalid time of day")

// TimeOfDay counts minutes since midnight.
type TimeOfDay int

const (
	minutesPerDay = 24 * 60
	clockLayout   = "15:04"
	labelLayout   = "3:04 PM"
)

// At builds a TimeOfDay from hours and minutes.
func At(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// ParseTimeOfDay parses a 24-hour "HH:mm" value.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	t, err := time.Parse(clockLayout, value)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, value)
	}
	return At(t.Hour(), t.Minute()), nil
}

// MustParseTimeOfDay panics on malformed input.
func MustParseTimeOfDay(value string) TimeOfDay {
	t, err := ParseTimeOfDay(value)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) clock() time.Time {
	return time.Date(2000, time.January, 1, 0, int(t), 0, 0, time.UTC)
}

// String renders the 24-hour form used in saved rules.
func (t TimeOfDay) String() string {
	if t >= minutesPerDay {
		return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
	}
	return t.clock().Format(clockLayout)
}

// Label renders the 12-hour display form, e.g. "9:00 AM".
func (t TimeOfDay) Label() string {
	return t.clock().Format(labelLayout)
}

// Add returns t shifted by d, truncated to whole minutes.
func (t TimeOfDay) Add(d time.Duration) TimeOfDay {
	return t + TimeOfDay(d/time.Minute)
}

// Valid reports whether t lies within a single day.
func (t TimeOfDay) Valid() bool {
	return t >= 0 && t < minutesPerDay
}

// MarshalText encodes the HH:mm form.
func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes the HH:mm form.
func (t *TimeOfDay) UnmarshalText(data []byte) error {
	parsed, err := ParseTimeOfDay(string(data))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
