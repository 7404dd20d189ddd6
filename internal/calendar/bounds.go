package calendar

import (
	"errors"
	"fmt"
	"iter"
)

// ErrInvalidBounds is returned when a bounds start falls after its end.
var ErrInvalidBounds = errors.New("calendar: bounds start must not be after end")

// Bounds is an inclusive date window. The zero value means "no bounds".
type Bounds struct {
	Start Day `json:"start"`
	End   Day `json:"end"`
}

// ParseBounds builds bounds from two ISO date strings.
func ParseBounds(start, end string) (Bounds, error) {
	s, err := ParseDay(start)
	if err != nil {
		return Bounds{}, fmt.Errorf("start: %w", err)
	}
	e, err := ParseDay(end)
	if err != nil {
		return Bounds{}, fmt.Errorf("end: %w", err)
	}
	b := Bounds{Start: s, End: e}
	if err := b.Validate(); err != nil {
		return Bounds{}, err
	}
	return b, nil
}

// IsZero reports whether no bounds were supplied.
func (b Bounds) IsZero() bool {
	return b.Start.IsZero() && b.End.IsZero()
}

// Validate checks that the window is well formed.
func (b Bounds) Validate() error {
	if b.Start.IsZero() || b.End.IsZero() {
		return fmt.Errorf("%w: both ends are required", ErrInvalidBounds)
	}
	if b.Start.After(b.End) {
		return ErrInvalidBounds
	}
	return nil
}

// Contains reports whether day lies inside the inclusive window.
func (b Bounds) Contains(day Day) bool {
	return !day.Before(b.Start) && !day.After(b.End)
}

// Days enumerates every day of the window.
func (b Bounds) Days() iter.Seq[Day] {
	return b.Start.Until(b.End)
}

// Len returns the number of days in the window.
func (b Bounds) Len() int {
	if b.End.Before(b.Start) {
		return 0
	}
	return DaysBetween(b.Start, b.End) + 1
}
