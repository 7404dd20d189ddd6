package builder

import (
	"github.com/example/campaign-availability/internal/availability"
	"github.com/example/campaign-availability/internal/calendar"
	"github.com/example/campaign-availability/internal/grid"
	"github.com/example/campaign-availability/internal/slots"
)

// SavedRule pairs a rule with its list position and display line.
type SavedRule struct {
	Index   int               `json:"index"`
	Summary string            `json:"summary"`
	Rule    availability.Rule `json:"rule"`
}

// Snapshot is a read model of the whole builder.
type Snapshot struct {
	Month            string            `json:"month"`
	Calendar         grid.MonthView    `json:"calendar"`
	Bounds           *calendar.Bounds  `json:"bounds,omitempty"`
	SelectedDates    []string          `json:"selectedDates"`
	PendingAnchor    string            `json:"pendingAnchor,omitempty"`
	Segments         []calendar.Bounds `json:"segments"`
	AllDay           bool              `json:"allDay"`
	IntervalsEnabled bool              `json:"intervalsEnabled"`
	IntervalHours    float64           `json:"intervalHours"`
	StartTime        string            `json:"startTime"`
	EndTime          string            `json:"endTime"`
	Slots            []slots.Slot      `json:"slots"`
	CanSelectAll     bool              `json:"canSelectAll"`
	Rules            []SavedRule       `json:"rules"`
}

// State captures the controller for rendering.
func (c *Controller) State() Snapshot {
	snap := Snapshot{
		Month:            c.month.Format("2006-01"),
		Calendar:         c.View(),
		SelectedDates:    []string{},
		Segments:         c.selection.Segments(),
		AllDay:           c.options.AllDay,
		IntervalsEnabled: c.options.IntervalsEnabled,
		IntervalHours:    c.options.Interval.Hours(),
		StartTime:        c.options.Start.String(),
		EndTime:          c.options.End.String(),
		Slots:            c.board.Slots(),
		CanSelectAll:     c.CanSelectAll(),
		Rules:            []SavedRule{},
	}
	if b := c.selection.Bounds(); !b.IsZero() {
		snap.Bounds = &b
	}
	for _, d := range c.selection.Days() {
		snap.SelectedDates = append(snap.SelectedDates, d.String())
	}
	if anchor, ok := c.selection.Anchor(); ok {
		snap.PendingAnchor = anchor.String()
	}
	if snap.Segments == nil {
		snap.Segments = []calendar.Bounds{}
	}
	for i, r := range c.store.Rules() {
		snap.Rules = append(snap.Rules, SavedRule{Index: i, Summary: r.Describe(), Rule: r})
	}
	return snap
}
