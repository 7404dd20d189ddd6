package availability

import (
	"slices"
	"strings"

	"github.com/example/campaign-availability/internal/calendar"
)

const shortLayout = "2 Jan"

// FormatDates renders dates as grouped runs, e.g.
// "1 Mar - 3 Mar, 10 Mar 2024". Entries that do not parse are skipped. The
// year of the latest date is appended once.
func FormatDates(dates []string) string {
	days := make([]calendar.Day, 0, len(dates))
	for _, raw := range dates {
		if d, err := calendar.ParseDay(raw); err == nil {
			days = append(days, d)
		}
	}
	if len(days) == 0 {
		return ""
	}
	slices.SortFunc(days, calendar.Day.Compare)
	days = slices.Compact(days)

	var parts []string
	start, prev := days[0], days[0]
	flush := func() {
		if start == prev {
			parts = append(parts, start.Format(shortLayout))
			return
		}
		parts = append(parts, start.Format(shortLayout)+" - "+prev.Format(shortLayout))
	}
	for _, d := range days[1:] {
		if calendar.DaysBetween(prev, d) == 1 {
			prev = d
			continue
		}
		flush()
		start, prev = d, d
	}
	flush()

	return strings.Join(parts, ", ") + " " + days[len(days)-1].Format("2006")
}

// Describe is the display line for a rule: its dates followed by its slots.
func (r Rule) Describe() string {
	dates := FormatDates(r.Dates)
	if r.AllDay {
		return dates + " (" + AllDaySlot.Label + ")"
	}
	labels := make([]string, len(r.Slots))
	for i, s := range r.Slots {
		labels[i] = s.Label
	}
	return dates + " (" + strings.Join(labels, ", ") + ")"
}
