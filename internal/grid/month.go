package grid

import (
	"fmt"
	"strings"
	"time"

	"github.com/example/campaign-availability/internal/calendar"
	"github.com/example/campaign-availability/internal/selection"
)

// Request describes the month to lay out.
type Request struct {
	Month     calendar.Day
	Selection *selection.Model
	Bounds    calendar.Bounds
	Today     calendar.Day
	WeekStart time.Weekday
}

// Cell is one rendered day.
type Cell struct {
	Day     calendar.Day `json:"date"`
	InMonth bool         `json:"inMonth"`
	State   VisualState  `json:"-"`
	Label   string       `json:"state"`
}

// MonthView is a month laid out in whole weeks.
type MonthView struct {
	Month calendar.Day `json:"month"`
	Title string       `json:"title"`
	Weeks [][]Cell     `json:"weeks"`
}

// Month lays out the month containing req.Month. Leading and trailing days
// from the neighbouring months fill the first and last weeks.
func Month(req Request) MonthView {
	first := req.Month.MonthStart()
	last := first.AddMonths(1).Prev()

	lead := (int(first.Weekday()) - int(req.WeekStart) + 7) % 7
	start := first.AddDays(-lead)
	trail := (int(req.WeekStart) + 6 - int(last.Weekday()) + 7) % 7
	end := last.AddDays(trail)

	view := MonthView{Month: first, Title: first.Format("January 2006")}
	var week []Cell
	for d := range start.Until(end) {
		rel := relate(req.Selection, d)
		state := Classify(rel, req.Bounds, req.Today)
		week = append(week, Cell{
			Day:     d,
			InMonth: d.Month == first.Month && d.Year == first.Year,
			State:   state,
			Label:   state.String(),
		})
		if len(week) == 7 {
			view.Weeks = append(view.Weeks, week)
			week = nil
		}
	}
	return view
}

func relate(model *selection.Model, day calendar.Day) selection.Relation {
	if model == nil {
		return selection.Relation{Day: day}
	}
	return model.Relate(day)
}

// ParseWeekStart accepts "monday" or "sunday".
func ParseWeekStart(value string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "monday", "mon":
		return time.Monday, nil
	case "sunday", "sun":
		return time.Sunday, nil
	default:
		return time.Monday, fmt.Errorf("grid: unsupported week start %q", value)
	}
}
