// Package grid turns the selection model into the per-day visual states a
// calendar renderer needs.
package grid

import (
	"github.com/example/campaign-availability/internal/calendar"
	"github.com/example/campaign-availability/internal/selection"
)

// VisualState is the rendering class of a single calendar cell.
type VisualState int

const (
	Today VisualState = iota
	OutOfBounds
	PendingAnchorIsolated
	UnselectedHoverable
	SelectedSingle
	SelectedSegmentStart
	SelectedSegmentEnd
	SelectedMiddle
)

var stateNames = [...]string{
	Today:                 "today",
	OutOfBounds:           "out_of_bounds",
	PendingAnchorIsolated: "pending_anchor",
	UnselectedHoverable:   "unselected",
	SelectedSingle:        "selected_single",
	SelectedSegmentStart:  "selected_start",
	SelectedSegmentEnd:    "selected_end",
	SelectedMiddle:        "selected_middle",
}

func (s VisualState) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Selected reports whether the state belongs to a selected day.
func (s VisualState) Selected() bool {
	switch s {
	case SelectedSingle, SelectedSegmentStart, SelectedSegmentEnd, SelectedMiddle, PendingAnchorIsolated:
		return true
	default:
		return false
	}
}

// Classify maps one day's relation to the selection onto its visual state.
// The first matching rule wins:
//
//  1. unselected, not the anchor, and today
//  2. outside non-zero bounds
//  3. pending anchor with no selected neighbour
//  4. unselected
//  5. selected with no selected neighbour
//  6. first day of a segment
//  7. last day of a segment
//  8. anything else
func Classify(rel selection.Relation, bounds calendar.Bounds, today calendar.Day) VisualState {
	switch {
	case !rel.Selected && !rel.Anchor && rel.Day == today:
		return Today
	case !bounds.IsZero() && !bounds.Contains(rel.Day):
		return OutOfBounds
	case rel.Anchor && !rel.HasSelectedNeighbour():
		return PendingAnchorIsolated
	case !rel.Selected:
		return UnselectedHoverable
	case !rel.PrevSelected && !rel.NextSelected:
		return SelectedSingle
	case !rel.PrevSelected:
		return SelectedSegmentStart
	case !rel.NextSelected:
		return SelectedSegmentEnd
	default:
		return SelectedMiddle
	}
}
