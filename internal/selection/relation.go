package selection

import "github.com/example/campaign-availability/internal/calendar"

// Kind classifies a day against the current selection. It is computed once
// per day and shared by the click handler and the grid presenter.
type Kind int

const (
	// KindUnselected is an unselected day with no selected neighbour.
	KindUnselected Kind = iota
	// KindBridging is an unselected day next to a selected one.
	KindBridging
	// KindPendingAnchor is the open end of an in-progress range with no
	// selected neighbour.
	KindPendingAnchor
	// KindIsolated is a selected single-day segment.
	KindIsolated
	// KindSegmentStart is the first day of a multi-day segment.
	KindSegmentStart
	// KindSegmentEnd is the last day of a multi-day segment.
	KindSegmentEnd
	// KindMiddle is a selected day with selected days on both sides.
	KindMiddle
)

var kindNames = map[Kind]string{
	KindUnselected:    "unselected",
	KindBridging:      "bridging",
	KindPendingAnchor: "pending_anchor",
	KindIsolated:      "isolated",
	KindSegmentStart:  "segment_start",
	KindSegmentEnd:    "segment_end",
	KindMiddle:        "middle",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Relation describes one day's position relative to the selection.
type Relation struct {
	Day          calendar.Day
	Kind         Kind
	Selected     bool
	Anchor       bool
	PrevSelected bool
	NextSelected bool
}

// HasSelectedNeighbour reports whether either adjacent day is selected.
func (r Relation) HasSelectedNeighbour() bool {
	return r.PrevSelected || r.NextSelected
}

// Relate classifies day against the model's current state.
func (m *Model) Relate(day calendar.Day) Relation {
	rel := Relation{
		Day:          day,
		Selected:     m.IsSelected(day),
		Anchor:       m.IsPendingAnchor(day),
		PrevSelected: m.IsSelected(day.Prev()),
		NextSelected: m.IsSelected(day.Next()),
	}
	rel.Kind = classify(rel)
	return rel
}

func classify(rel Relation) Kind {
	if rel.Anchor && !rel.HasSelectedNeighbour() {
		return KindPendingAnchor
	}
	if !rel.Selected {
		if rel.HasSelectedNeighbour() {
			return KindBridging
		}
		return KindUnselected
	}
	switch {
	case !rel.PrevSelected && rel.NextSelected:
		return KindSegmentStart
	case rel.PrevSelected && !rel.NextSelected:
		return KindSegmentEnd
	case !rel.PrevSelected && !rel.NextSelected:
		return KindIsolated
	default:
		return KindMiddle
	}
}
