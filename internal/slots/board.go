package slots

// Board holds the current generated slots and their selection flags.
type Board struct {
	params Params
	slots  []Slot
}

// NewBoard generates an initial board for p.
func NewBoard(p Params) *Board {
	b := &Board{}
	b.Regenerate(p)
	return b
}

// Regenerate replaces every slot. Earlier toggles are discarded.
func (b *Board) Regenerate(p Params) {
	b.params = p
	b.slots = GenerateAll(p)
}

// Params returns the inputs of the last generation.
func (b *Board) Params() Params {
	return b.params
}

// Toggle flips the selection of the slot with id. It reports false when no
// such slot exists.
func (b *Board) Toggle(id string) (Slot, bool) {
	for i := range b.slots {
		if b.slots[i].ID == id {
			b.slots[i].Selected = !b.slots[i].Selected
			return b.slots[i], true
		}
	}
	return Slot{}, false
}

// Slots returns a copy of every slot in generation order.
func (b *Board) Slots() []Slot {
	out := make([]Slot, len(b.slots))
	copy(out, b.slots)
	return out
}

// Selected returns the selected slots in generation order.
func (b *Board) Selected() []Slot {
	var out []Slot
	for _, s := range b.slots {
		if s.Selected {
			out = append(out, s)
		}
	}
	return out
}
