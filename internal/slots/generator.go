package slots

import (
	"iter"
	"slices"
)

// FullSlotID identifies the single slot produced when intervals are off.
const FullSlotID = "full"

// Slot is one generated time window.
type Slot struct {
	ID       string    `json:"id"`
	Start    TimeOfDay `json:"startTime"`
	End      TimeOfDay `json:"endTime"`
	Label    string    `json:"label"`
	Selected bool      `json:"selected"`
}

// Params are the four inputs of slot generation.
type Params struct {
	Start            TimeOfDay `json:"startTime"`
	End              TimeOfDay `json:"endTime"`
	Interval         Interval  `json:"-"`
	IntervalsEnabled bool      `json:"intervalsEnabled"`
}

// Generate yields the slots for p. The sequence is empty when End is not
// after Start. With intervals disabled a single pre-selected slot spans the
// whole window; otherwise back-to-back slots are produced and a trailing
// partial interval is dropped.
func Generate(p Params) iter.Seq[Slot] {
	return func(yield func(Slot) bool) {
		if p.End <= p.Start {
			return
		}
		if !p.IntervalsEnabled {
			yield(newSlot(FullSlotID, p.Start, p.End, true))
			return
		}
		step := p.Interval.Duration()
		if step <= 0 {
			return
		}
		for cursor := p.Start; ; {
			next := cursor.Add(step)
			if next > p.End || next <= cursor {
				return
			}
			if !yield(newSlot(cursor.String(), cursor, next, false)) {
				return
			}
			cursor = next
		}
	}
}

// GenerateAll collects Generate into a slice.
func GenerateAll(p Params) []Slot {
	return slices.Collect(Generate(p))
}

func newSlot(id string, start, end TimeOfDay, selected bool) Slot {
	return Slot{
		ID:       id,
		Start:    start,
		End:      end,
		Label:    start.Label() + " - " + end.Label(),
		Selected: selected,
	}
}
