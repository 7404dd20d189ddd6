// Package availability builds, deduplicates and removes availability rules
// held in a list owned by the surrounding form.
package availability

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"golang.org/x/crypto/blake2b"

	"github.com/example/campaign-availability/internal/calendar"
	"github.com/example/campaign-availability/internal/slots"
)

var (
	ErrNoDatesSelected = errors.New("availability: no dates selected")
	ErrNoSlotsSelected = errors.New("availability: no time slots selected")
	ErrDuplicateRule   = errors.New("availability: rule already saved")
	ErrInvalidRule     = errors.New("availability: invalid rule")
)

// SlotSpec is a saved time window.
type SlotSpec struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Label     string `json:"label"`
}

// AllDaySlot is the single slot stored on all-day rules.
var AllDaySlot = SlotSpec{StartTime: "00:00", EndTime: "23:59", Label: "All Day"}

// Rule is one saved availability entry. Dates are yyyy-MM-dd strings in
// chronological order.
type Rule struct {
	Dates  []string   `json:"dates"`
	Slots  []SlotSpec `json:"slots"`
	AllDay bool       `json:"allDay"`
}

// SpecFromSlot converts a generated slot into its saved form.
func SpecFromSlot(s slots.Slot) SlotSpec {
	return SlotSpec{StartTime: s.Start.String(), EndTime: s.End.String(), Label: s.Label}
}

// Equal reports whether two rules are duplicates: the all-day flag matches
// and the serialised date and slot lists are identical, in order.
func (r Rule) Equal(other Rule) bool {
	return r.AllDay == other.AllDay &&
		slices.Equal(r.Dates, other.Dates) &&
		slices.Equal(r.Slots, other.Slots)
}

// Fingerprint returns a BLAKE2b-256 digest of the rule's canonical JSON.
// Rules that are Equal share a fingerprint.
func (r Rule) Fingerprint() string {
	payload, err := json.Marshal(r.canonical())
	if err != nil {
		// Only strings and bools are encoded.
		panic(err)
	}
	sum := blake2b.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func (r Rule) canonical() Rule {
	out := Rule{AllDay: r.AllDay, Dates: r.Dates, Slots: r.Slots}
	if out.Dates == nil {
		out.Dates = []string{}
	}
	if out.Slots == nil {
		out.Slots = []SlotSpec{}
	}
	return out
}

// Days parses the rule's dates.
func (r Rule) Days() ([]calendar.Day, error) {
	days := make([]calendar.Day, 0, len(r.Dates))
	for _, raw := range r.Dates {
		d, err := calendar.ParseDay(raw)
		if err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, nil
}

// Clone returns a deep copy.
func (r Rule) Clone() Rule {
	return Rule{Dates: slices.Clone(r.Dates), Slots: slices.Clone(r.Slots), AllDay: r.AllDay}
}

// Validate checks the shape of a rule that did not come from Build, such as
// one decoded from storage.
func (r Rule) Validate() error {
	if len(r.Dates) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRule, ErrNoDatesSelected)
	}
	days, err := r.Days()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRule, err)
	}
	for i := 1; i < len(days); i++ {
		if !days[i-1].Before(days[i]) {
			return fmt.Errorf("%w: dates must be strictly ascending", ErrInvalidRule)
		}
	}
	if r.AllDay {
		if len(r.Slots) != 1 || r.Slots[0] != AllDaySlot {
			return fmt.Errorf("%w: all-day rules carry exactly the all-day slot", ErrInvalidRule)
		}
		return nil
	}
	if len(r.Slots) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRule, ErrNoSlotsSelected)
	}
	for _, s := range r.Slots {
		start, err := slots.ParseTimeOfDay(s.StartTime)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRule, err)
		}
		end, err := slots.ParseTimeOfDay(s.EndTime)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRule, err)
		}
		if end <= start {
			return fmt.Errorf("%w: slot %s-%s ends before it starts", ErrInvalidRule, s.StartTime, s.EndTime)
		}
	}
	return nil
}
