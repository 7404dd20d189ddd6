package selection

import (
	"errors"
	"fmt"
	"slices"

	"github.com/example/campaign-availability/internal/calendar"
)

// ErrOutOfRange is returned when a clicked day lies outside the campaign
// bounds. The selection is left untouched.
var ErrOutOfRange = errors.New("selection: date is outside campaign active range")

// Outcome names the effect a day click had on the selection.
type Outcome int

const (
	// OutcomeNone means the click was rejected.
	OutcomeNone Outcome = iota
	// OutcomeRangeClosed means a pending anchor was joined to the clicked day.
	OutcomeRangeClosed
	// OutcomeReanchoredAtEnd means a segment start was clicked and the
	// segment collapsed onto its end, which is now the pending anchor.
	OutcomeReanchoredAtEnd
	// OutcomeReanchoredAtStart is the mirror of OutcomeReanchoredAtEnd.
	OutcomeReanchoredAtStart
	// OutcomeDeselected means the clicked day was removed.
	OutcomeDeselected
	// OutcomeBridged means an unselected day next to a segment was added.
	OutcomeBridged
	// OutcomeAnchored means an isolated day was added and opened a range.
	OutcomeAnchored
)

var outcomeNames = map[Outcome]string{
	OutcomeNone:              "none",
	OutcomeRangeClosed:       "range_closed",
	OutcomeReanchoredAtEnd:   "reanchored_at_end",
	OutcomeReanchoredAtStart: "reanchored_at_start",
	OutcomeDeselected:        "deselected",
	OutcomeBridged:           "bridged",
	OutcomeAnchored:          "anchored",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return "unknown"
}

// Model holds the set of selected days and the pending range anchor.
//
// The model is not safe for concurrent use; callers serialise access.
type Model struct {
	selected  map[calendar.Day]struct{}
	anchor    calendar.Day
	hasAnchor bool
	bounds    calendar.Bounds
}

// NewModel returns an empty selection restricted to bounds. Zero bounds
// disable the range check.
func NewModel(bounds calendar.Bounds) *Model {
	return &Model{selected: make(map[calendar.Day]struct{}), bounds: bounds}
}

// Bounds returns the campaign window used for click checks.
func (m *Model) Bounds() calendar.Bounds {
	return m.bounds
}

// SetBounds replaces the campaign window. Existing selections are kept.
func (m *Model) SetBounds(bounds calendar.Bounds) {
	m.bounds = bounds
}

// InBounds reports whether day may be clicked.
func (m *Model) InBounds(day calendar.Day) bool {
	return m.bounds.IsZero() || m.bounds.Contains(day)
}

// HandleDayClick applies one calendar click.
func (m *Model) HandleDayClick(day calendar.Day) (Outcome, error) {
	if !m.InBounds(day) {
		return OutcomeNone, fmt.Errorf("%w: %s", ErrOutOfRange, day)
	}

	if m.hasAnchor {
		lo, hi := calendar.MinMax(day, m.anchor)
		for d := range lo.Until(hi) {
			m.selected[d] = struct{}{}
		}
		m.clearAnchor()
		return OutcomeRangeClosed, nil
	}

	rel := m.Relate(day)
	switch rel.Kind {
	case KindSegmentStart:
		end := m.segmentEnd(day)
		for d := range day.Until(end.Prev()) {
			delete(m.selected, d)
		}
		m.setAnchor(end)
		return OutcomeReanchoredAtEnd, nil
	case KindSegmentEnd:
		start := m.segmentStart(day)
		for d := range start.Next().Until(day) {
			delete(m.selected, d)
		}
		m.setAnchor(start)
		return OutcomeReanchoredAtStart, nil
	case KindIsolated, KindMiddle, KindPendingAnchor:
		delete(m.selected, day)
		m.clearAnchor()
		return OutcomeDeselected, nil
	case KindBridging:
		m.selected[day] = struct{}{}
		m.clearAnchor()
		return OutcomeBridged, nil
	default:
		m.selected[day] = struct{}{}
		m.setAnchor(day)
		return OutcomeAnchored, nil
	}
}

// SelectAll replaces the selection with every day of bounds.
func (m *Model) SelectAll(bounds calendar.Bounds) {
	m.selected = make(map[calendar.Day]struct{}, bounds.Len())
	for d := range bounds.Days() {
		m.selected[d] = struct{}{}
	}
	m.clearAnchor()
}

// Clear empties the selection and drops the pending anchor.
func (m *Model) Clear() {
	m.selected = make(map[calendar.Day]struct{})
	m.clearAnchor()
}

// IsSelected reports whether day is part of the selection.
func (m *Model) IsSelected(day calendar.Day) bool {
	_, ok := m.selected[day]
	return ok
}

// IsPendingAnchor reports whether day is the open end of a range.
func (m *Model) IsPendingAnchor(day calendar.Day) bool {
	return m.hasAnchor && m.anchor == day
}

// Anchor returns the pending anchor if one is set.
func (m *Model) Anchor() (calendar.Day, bool) {
	return m.anchor, m.hasAnchor
}

// Len returns the number of selected days.
func (m *Model) Len() int {
	return len(m.selected)
}

// Days returns the selected days in chronological order.
func (m *Model) Days() []calendar.Day {
	days := make([]calendar.Day, 0, len(m.selected))
	for d := range m.selected {
		days = append(days, d)
	}
	slices.SortFunc(days, calendar.Day.Compare)
	return days
}

// Segments returns the maximal runs of consecutive selected days in
// chronological order.
func (m *Model) Segments() []calendar.Bounds {
	var segments []calendar.Bounds
	for _, d := range m.Days() {
		if n := len(segments); n > 0 && segments[n-1].End.Next() == d {
			segments[n-1].End = d
			continue
		}
		segments = append(segments, calendar.Bounds{Start: d, End: d})
	}
	return segments
}

func (m *Model) segmentEnd(day calendar.Day) calendar.Day {
	end := day
	for m.IsSelected(end.Next()) {
		end = end.Next()
	}
	return end
}

func (m *Model) segmentStart(day calendar.Day) calendar.Day {
	start := day
	for m.IsSelected(start.Prev()) {
		start = start.Prev()
	}
	return start
}

func (m *Model) setAnchor(day calendar.Day) {
	m.anchor = day
	m.hasAnchor = true
}

func (m *Model) clearAnchor() {
	m.anchor = calendar.Day{}
	m.hasAnchor = false
}
