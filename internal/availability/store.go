package availability

import (
	"slices"

	"github.com/example/campaign-availability/internal/calendar"
	"github.com/example/campaign-availability/internal/slots"
)

// SetOptions tags a write to the form's rule list.
type SetOptions struct {
	ShouldDirty    bool
	ShouldValidate bool
}

// Form is the externally owned rule list.
type Form interface {
	Rules() []Rule
	SetRules(rules []Rule, opts SetOptions)
}

// Store builds rules and writes them back to a Form.
type Store struct {
	form Form
}

// NewStore binds a store to form.
func NewStore(form Form) *Store {
	return &Store{form: form}
}

// Rules returns the form's current rules.
func (s *Store) Rules() []Rule {
	return s.form.Rules()
}

// Build validates the inputs and assembles a rule without saving it. Days
// are sorted chronologically; selected slots keep their generation order.
func Build(days []calendar.Day, generated []slots.Slot, allDay bool) (Rule, error) {
	if len(days) == 0 {
		return Rule{}, ErrNoDatesSelected
	}

	rule := Rule{AllDay: allDay}
	if allDay {
		rule.Slots = []SlotSpec{AllDaySlot}
	} else {
		for _, s := range generated {
			if s.Selected {
				rule.Slots = append(rule.Slots, SpecFromSlot(s))
			}
		}
		if len(rule.Slots) == 0 {
			return Rule{}, ErrNoSlotsSelected
		}
	}

	sorted := slices.Clone(days)
	slices.SortFunc(sorted, calendar.Day.Compare)
	sorted = slices.Compact(sorted)
	rule.Dates = make([]string, len(sorted))
	for i, d := range sorted {
		rule.Dates[i] = d.String()
	}
	return rule, nil
}

// Save builds a rule and appends it to the form unless an equal rule is
// already present. The form is untouched on failure.
func (s *Store) Save(days []calendar.Day, generated []slots.Slot, allDay bool) (Rule, error) {
	rule, err := Build(days, generated, allDay)
	if err != nil {
		return Rule{}, err
	}
	existing := s.form.Rules()
	if slices.ContainsFunc(existing, rule.Equal) {
		return Rule{}, ErrDuplicateRule
	}
	next := make([]Rule, 0, len(existing)+1)
	next = append(next, existing...)
	next = append(next, rule)
	s.form.SetRules(next, SetOptions{ShouldDirty: true, ShouldValidate: true})
	return rule, nil
}

// Remove deletes the rule at index. Out-of-range indexes are ignored and
// reported as false.
func (s *Store) Remove(index int) bool {
	existing := s.form.Rules()
	if index < 0 || index >= len(existing) {
		return false
	}
	next := slices.Delete(slices.Clone(existing), index, index+1)
	s.form.SetRules(next, SetOptions{ShouldDirty: true, ShouldValidate: true})
	return true
}

// MemoryForm is a Form backed by a slice. It records the options of the
// last write.
type MemoryForm struct {
	rules []Rule
	dirty bool
	last  SetOptions
}

// NewMemoryForm seeds a form with rules.
func NewMemoryForm(rules []Rule) *MemoryForm {
	return &MemoryForm{rules: cloneRules(rules)}
}

func (f *MemoryForm) Rules() []Rule {
	return cloneRules(f.rules)
}

func (f *MemoryForm) SetRules(rules []Rule, opts SetOptions) {
	f.rules = cloneRules(rules)
	f.last = opts
	if opts.ShouldDirty {
		f.dirty = true
	}
}

// Dirty reports whether a write marked the form dirty since the last
// MarkClean.
func (f *MemoryForm) Dirty() bool {
	return f.dirty
}

// MarkClean resets the dirty flag after a successful submission.
func (f *MemoryForm) MarkClean() {
	f.dirty = false
}

// LastOptions returns the options passed to the most recent SetRules.
func (f *MemoryForm) LastOptions() SetOptions {
	return f.last
}

func cloneRules(rules []Rule) []Rule {
	out := make([]Rule, len(rules))
	for i, r := range rules {
		out[i] = r.Clone()
	}
	return out
}
