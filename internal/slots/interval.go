package slots

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"
)

// ErrUnsupportedInterval is returned for interval lengths outside the
// offered set.
var ErrUnsupportedInterval = errors.New("slots: unsupported interval")

// Interval is the length of one generated slot.
type Interval time.Duration

const (
	HalfHour      = Interval(30 * time.Minute)
	OneHour       = Interval(time.Hour)
	NinetyMinutes = Interval(90 * time.Minute)
	TwoHours      = Interval(2 * time.Hour)
	ThreeHours    = Interval(3 * time.Hour)
	FourHours     = Interval(4 * time.Hour)
)

// DefaultInterval is offered when nothing else is configured.
const DefaultInterval = OneHour

var supported = []Interval{HalfHour, OneHour, NinetyMinutes, TwoHours, ThreeHours, FourHours}

// Supported lists the offered interval lengths, shortest first.
func Supported() []Interval {
	return slices.Clone(supported)
}

// IntervalFromHours converts an hour count such as 1.5 into an Interval.
func IntervalFromHours(hours float64) (Interval, error) {
	iv := Interval(time.Duration(hours * float64(time.Hour)))
	if !iv.Supported() {
		return 0, fmt.Errorf("%w: %sh", ErrUnsupportedInterval, strconv.FormatFloat(hours, 'f', -1, 64))
	}
	return iv, nil
}

// Supported reports whether iv is one of the offered lengths.
func (iv Interval) Supported() bool {
	return slices.Contains(supported, iv)
}

// Hours returns the length in hours.
func (iv Interval) Hours() float64 {
	return time.Duration(iv).Hours()
}

// Duration converts to time.Duration.
func (iv Interval) Duration() time.Duration {
	return time.Duration(iv)
}

func (iv Interval) String() string {
	return strconv.FormatFloat(iv.Hours(), 'f', -1, 64) + "h"
}
