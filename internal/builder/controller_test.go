package builder

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/example/campaign-availability/internal/availability"
	"github.com/example/campaign-availability/internal/calendar"
	"github.com/example/campaign-availability/internal/selection"
	"github.com/example/campaign-availability/internal/slots"
)

var march = calendar.Bounds{
	Start: calendar.MustParseDay("2024-03-01"),
	End:   calendar.MustParseDay("2024-03-31"),
}

type harness struct {
	ctrl     *Controller
	form     *availability.MemoryForm
	recorder *Recorder
}

func newHarness(t *testing.T, bounds calendar.Bounds) harness {
	t.Helper()
	form := availability.NewMemoryForm(nil)
	recorder := &Recorder{}
	ctrl := NewController(form, Config{
		Bounds:    bounds,
		WeekStart: time.Monday,
		Today:     func() calendar.Day { return calendar.MustParseDay("2024-02-20") },
		Notifier:  recorder,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return harness{ctrl: ctrl, form: form, recorder: recorder}
}

func (h harness) click(t *testing.T, values ...string) {
	t.Helper()
	for _, v := range values {
		if err := h.ctrl.ClickDay(calendar.MustParseDay(v)); err != nil {
			t.Fatalf("click %s: %v", v, err)
		}
	}
}

func expectNotification(t *testing.T, r *Recorder, kind Kind, message string) {
	t.Helper()
	got := r.Drain()
	if len(got) != 1 {
		t.Fatalf("expected one notification, got %+v", got)
	}
	if got[0].Kind != kind || got[0].Message != message {
		t.Fatalf("expected %s %q, got %+v", kind, message, got[0])
	}
}

func TestControllerSaveFlow(t *testing.T) {
	h := newHarness(t, march)

	if _, err := h.ctrl.Save(); !errors.Is(err, availability.ErrNoDatesSelected) {
		t.Fatalf("expected ErrNoDatesSelected, got %v", err)
	}
	expectNotification(t, h.recorder, KindValidation, MessageNoDates)

	h.click(t, "2024-03-05", "2024-03-07")
	if _, err := h.ctrl.Save(); !errors.Is(err, availability.ErrNoSlotsSelected) {
		t.Fatalf("expected ErrNoSlotsSelected, got %v", err)
	}
	expectNotification(t, h.recorder, KindValidation, MessageNoSlots)
	if got := len(h.ctrl.State().SelectedDates); got != 3 {
		t.Fatalf("failed save must keep the selection, got %d days", got)
	}

	if err := h.ctrl.ToggleSlot("09:00"); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	rule, err := h.ctrl.Save()
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	expectNotification(t, h.recorder, KindSuccess, MessageAdded)
	if len(rule.Dates) != 3 || rule.Slots[0].Label != "9:00 AM - 10:00 AM" {
		t.Fatalf("unexpected rule %+v", rule)
	}

	state := h.ctrl.State()
	if len(state.SelectedDates) != 0 || state.PendingAnchor != "" {
		t.Fatalf("expected selection cleared after save, got %+v", state.SelectedDates)
	}
	for _, s := range state.Slots {
		if s.Selected {
			t.Fatalf("expected a fresh board after save")
		}
	}
	if len(state.Rules) != 1 || state.Rules[0].Summary != "5 Mar - 7 Mar 2024 (9:00 AM - 10:00 AM)" {
		t.Fatalf("unexpected saved rules %+v", state.Rules)
	}
	if !h.form.Dirty() {
		t.Fatalf("expected form to be dirty")
	}

	h.click(t, "2024-03-05", "2024-03-07")
	if err := h.ctrl.ToggleSlot("09:00"); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if _, err := h.ctrl.Save(); !errors.Is(err, availability.ErrDuplicateRule) {
		t.Fatalf("expected ErrDuplicateRule, got %v", err)
	}
	expectNotification(t, h.recorder, KindDuplicate, MessageDuplicate)
	if len(h.ctrl.Rules()) != 1 {
		t.Fatalf("duplicate must not be appended")
	}
}

func TestControllerFullSlotRule(t *testing.T) {
	h := newHarness(t, march)
	h.ctrl.SetIntervalsEnabled(false)

	state := h.ctrl.State()
	if len(state.Slots) != 1 || !state.Slots[0].Selected || state.Slots[0].ID != slots.FullSlotID {
		t.Fatalf("expected a single preselected slot, got %+v", state.Slots)
	}

	h.click(t, "2024-03-11", "2024-03-11")
	rule, err := h.ctrl.Save()
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if rule.AllDay || len(rule.Slots) != 1 || rule.Slots[0].StartTime != "09:00" || rule.Slots[0].EndTime != "17:00" {
		t.Fatalf("unexpected rule %+v", rule)
	}
}

func TestControllerAllDay(t *testing.T) {
	h := newHarness(t, march)
	h.ctrl.SetAllDay(true)
	h.click(t, "2024-03-01")

	rule, err := h.ctrl.Save()
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !rule.AllDay || rule.Slots[0] != availability.AllDaySlot {
		t.Fatalf("unexpected rule %+v", rule)
	}
}

func TestControllerOutOfRangeClick(t *testing.T) {
	h := newHarness(t, march)
	h.click(t, "2024-03-10")

	err := h.ctrl.ClickDay(calendar.MustParseDay("2024-04-01"))
	if !errors.Is(err, selection.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	expectNotification(t, h.recorder, KindOutOfRange, MessageOutOfRange)
	if state := h.ctrl.State(); state.PendingAnchor != "2024-03-10" {
		t.Fatalf("expected anchor untouched, got %q", state.PendingAnchor)
	}
}

func TestControllerSelectAll(t *testing.T) {
	t.Run("with bounds", func(t *testing.T) {
		h := newHarness(t, march)
		if !h.ctrl.CanSelectAll() {
			t.Fatalf("expected select all to be available")
		}
		if err := h.ctrl.SelectAll(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := len(h.ctrl.State().SelectedDates); got != 31 {
			t.Fatalf("expected 31 days, got %d", got)
		}
		h.ctrl.Clear()
		if got := len(h.ctrl.State().SelectedDates); got != 0 {
			t.Fatalf("expected empty selection, got %d", got)
		}
	})

	t.Run("without bounds", func(t *testing.T) {
		h := newHarness(t, calendar.Bounds{})
		if h.ctrl.CanSelectAll() {
			t.Fatalf("expected select all to be disabled")
		}
		if err := h.ctrl.SelectAll(); !errors.Is(err, ErrNoBounds) {
			t.Fatalf("expected ErrNoBounds, got %v", err)
		}
		if got := h.recorder.Drain(); len(got) != 1 {
			t.Fatalf("expected a notification, got %+v", got)
		}
	})
}

func TestControllerMonthNavigation(t *testing.T) {
	h := newHarness(t, march)
	// Today (20 Feb) is outside the campaign, so the calendar opens on March.
	if got := h.ctrl.Month().String(); got != "2024-03-01" {
		t.Fatalf("expected campaign start month, got %s", got)
	}
	h.click(t, "2024-03-05")

	h.ctrl.NextMonth()
	h.ctrl.NextMonth()
	h.ctrl.PrevMonth()
	state := h.ctrl.State()
	if state.Month != "2024-04" || state.Calendar.Title != "April 2024" {
		t.Fatalf("unexpected month %s (%s)", state.Month, state.Calendar.Title)
	}
	if state.PendingAnchor != "2024-03-05" {
		t.Fatalf("navigation must not touch the selection")
	}

	unbounded := newHarness(t, calendar.Bounds{})
	if got := unbounded.ctrl.Month().String(); got != "2024-02-01" {
		t.Fatalf("expected today's month, got %s", got)
	}
}

func TestControllerOptions(t *testing.T) {
	h := newHarness(t, march)
	if err := h.ctrl.ToggleSlot("10:00"); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}

	if err := h.ctrl.SetInterval(slots.TwoHours); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	state := h.ctrl.State()
	if len(state.Slots) != 4 || state.IntervalHours != 2 {
		t.Fatalf("unexpected board %+v", state.Slots)
	}
	for _, s := range state.Slots {
		if s.Selected {
			t.Fatalf("regeneration must discard toggles")
		}
	}

	if err := h.ctrl.SetInterval(slots.Interval(5 * time.Hour)); !errors.Is(err, slots.ErrUnsupportedInterval) {
		t.Fatalf("expected ErrUnsupportedInterval, got %v", err)
	}

	h.ctrl.SetStartTime(slots.At(18, 0))
	if got := len(h.ctrl.State().Slots); got != 0 {
		t.Fatalf("expected no slots when end precedes start, got %d", got)
	}

	err := h.ctrl.SetOptions(Options{IntervalsEnabled: true, Start: slots.At(8, 0), End: slots.At(10, 0)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := h.ctrl.Options().Interval; got != slots.TwoHours {
		t.Fatalf("expected zero interval to keep current length, got %s", got)
	}
	if got := len(h.ctrl.State().Slots); got != 1 {
		t.Fatalf("expected one two-hour slot, got %d", got)
	}

	if err := h.ctrl.ToggleSlot("nope"); !errors.Is(err, ErrUnknownSlot) {
		t.Fatalf("expected ErrUnknownSlot, got %v", err)
	}
}

func TestControllerRemoveRule(t *testing.T) {
	h := newHarness(t, march)
	h.ctrl.SetAllDay(true)
	h.click(t, "2024-03-01")
	if _, err := h.ctrl.Save(); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if h.ctrl.RemoveRule(3) {
		t.Fatalf("expected out-of-range removal to be ignored")
	}
	if !h.ctrl.RemoveRule(0) {
		t.Fatalf("expected removal to succeed")
	}
	if len(h.ctrl.Rules()) != 0 {
		t.Fatalf("expected no rules left")
	}
}
