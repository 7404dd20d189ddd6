// Package builder wires the selection model, slot board and rule store into
// the single controller a transport drives.
package builder

import (
	"errors"
	"log/slog"
	"time"

	"github.com/example/campaign-availability/internal/availability"
	"github.com/example/campaign-availability/internal/calendar"
	"github.com/example/campaign-availability/internal/grid"
	"github.com/example/campaign-availability/internal/selection"
	"github.com/example/campaign-availability/internal/slots"
)

// ErrNoBounds is returned by SelectAll when the campaign has no date window.
var ErrNoBounds = errors.New("builder: campaign bounds are not set")

// Options are the slot generation toggles shown next to the calendar.
type Options struct {
	AllDay           bool
	IntervalsEnabled bool
	Interval         slots.Interval
	Start            slots.TimeOfDay
	End              slots.TimeOfDay
}

// DefaultOptions are used when Config.Defaults is left zero.
var DefaultOptions = Options{
	IntervalsEnabled: true,
	Interval:         slots.DefaultInterval,
	Start:            slots.At(9, 0),
	End:              slots.At(17, 0),
}

func (o Options) params() slots.Params {
	return slots.Params{Start: o.Start, End: o.End, Interval: o.Interval, IntervalsEnabled: o.IntervalsEnabled}
}

// Config carries the controller's collaborators.
type Config struct {
	Bounds    calendar.Bounds
	Defaults  Options
	WeekStart time.Weekday
	Today     func() calendar.Day
	Notifier  Notifier
	Logger    *slog.Logger
}

// Controller owns the builder UI state. It is not safe for concurrent use.
type Controller struct {
	selection *selection.Model
	board     *slots.Board
	store     *availability.Store
	options   Options
	month     calendar.Day
	weekStart time.Weekday
	today     func() calendar.Day
	notifier  Notifier
	logger    *slog.Logger
}

// NewController builds a controller over form.
func NewController(form availability.Form, cfg Config) *Controller {
	if cfg.Today == nil {
		cfg.Today = func() calendar.Day { return calendar.Today(time.Now(), nil) }
	}
	if cfg.Defaults == (Options{}) {
		cfg.Defaults = DefaultOptions
	}
	if cfg.Notifier == nil {
		cfg.Notifier = NotifierFunc(func(Notification) {})
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	c := &Controller{
		selection: selection.NewModel(cfg.Bounds),
		store:     availability.NewStore(form),
		options:   cfg.Defaults,
		weekStart: cfg.WeekStart,
		today:     cfg.Today,
		notifier:  cfg.Notifier,
		logger:    cfg.Logger,
	}
	c.board = slots.NewBoard(c.options.params())
	c.month = initialMonth(cfg.Bounds, cfg.Today())
	return c
}

func initialMonth(bounds calendar.Bounds, today calendar.Day) calendar.Day {
	if !bounds.IsZero() && !bounds.Contains(today) {
		return bounds.Start.MonthStart()
	}
	return today.MonthStart()
}

// Month returns the first day of the displayed month.
func (c *Controller) Month() calendar.Day {
	return c.month
}

// NextMonth moves the calendar forward one month.
func (c *Controller) NextMonth() {
	c.ShiftMonth(1)
}

// PrevMonth moves the calendar back one month.
func (c *Controller) PrevMonth() {
	c.ShiftMonth(-1)
}

// ShiftMonth moves the calendar by delta months. The selection is untouched.
func (c *Controller) ShiftMonth(delta int) {
	c.month = c.month.AddMonths(delta)
	c.logger.Debug("month changed", "month", c.month.Format("2006-01"))
}

// Options returns the current toggles.
func (c *Controller) Options() Options {
	return c.options
}

// SetOptions replaces every toggle and regenerates the slot board.
func (c *Controller) SetOptions(opts Options) error {
	if opts.Interval == 0 {
		opts.Interval = c.options.Interval
	}
	if !opts.Interval.Supported() {
		return slots.ErrUnsupportedInterval
	}
	c.options = opts
	c.regenerate()
	return nil
}

// SetAllDay toggles all-day mode.
func (c *Controller) SetAllDay(on bool) {
	c.options.AllDay = on
	c.regenerate()
}

// SetIntervalsEnabled toggles splitting the window into intervals.
func (c *Controller) SetIntervalsEnabled(on bool) {
	c.options.IntervalsEnabled = on
	c.regenerate()
}

// SetInterval changes the slot length.
func (c *Controller) SetInterval(iv slots.Interval) error {
	if !iv.Supported() {
		return slots.ErrUnsupportedInterval
	}
	c.options.Interval = iv
	c.regenerate()
	return nil
}

// SetStartTime changes the window start.
func (c *Controller) SetStartTime(t slots.TimeOfDay) {
	c.options.Start = t
	c.regenerate()
}

// SetEndTime changes the window end.
func (c *Controller) SetEndTime(t slots.TimeOfDay) {
	c.options.End = t
	c.regenerate()
}

func (c *Controller) regenerate() {
	c.board.Regenerate(c.options.params())
	c.logger.Debug("slots regenerated",
		"start", c.options.Start.String(),
		"end", c.options.End.String(),
		"interval", c.options.Interval.String(),
		"intervals_enabled", c.options.IntervalsEnabled,
		"slot_count", len(c.board.Slots()),
	)
}

// ClickDay forwards a calendar click to the selection model. Out-of-range
// clicks raise a warning and return the error.
func (c *Controller) ClickDay(day calendar.Day) error {
	outcome, err := c.selection.HandleDayClick(day)
	if err != nil {
		c.reject("day click rejected", err, "date", day.String())
		return err
	}
	c.logger.Debug("day clicked", "date", day.String(), "outcome", outcome.String())
	return nil
}

// ToggleSlot flips one slot.
func (c *Controller) ToggleSlot(id string) error {
	slot, ok := c.board.Toggle(id)
	if !ok {
		return ErrUnknownSlot
	}
	c.logger.Debug("slot toggled", "slot_id", id, "selected", slot.Selected)
	return nil
}

// ErrUnknownSlot is returned when a toggled slot id is not on the board.
var ErrUnknownSlot = errors.New("builder: unknown slot")

// Save turns the current selection into a rule. On success the selection is
// cleared and a fresh board is generated; on failure nothing changes.
func (c *Controller) Save() (availability.Rule, error) {
	rule, err := c.store.Save(c.selection.Days(), c.board.Slots(), c.options.AllDay)
	if err != nil {
		c.reject("save rejected", err)
		return availability.Rule{}, err
	}
	c.selection.Clear()
	c.board.Regenerate(c.options.params())
	c.notifier.Notify(Notification{Kind: KindSuccess, Level: LevelInfo, Message: MessageAdded})
	c.logger.Info("rule saved", "dates", len(rule.Dates), "slots", len(rule.Slots), "all_day", rule.AllDay)
	return rule, nil
}

// Clear empties the selection.
func (c *Controller) Clear() {
	c.selection.Clear()
	c.logger.Debug("selection cleared")
}

// CanSelectAll reports whether select-all is available.
func (c *Controller) CanSelectAll() bool {
	return !c.selection.Bounds().IsZero()
}

// SelectAll selects every day of the campaign window.
func (c *Controller) SelectAll() error {
	if !c.CanSelectAll() {
		c.reject("select all rejected", ErrNoBounds)
		return ErrNoBounds
	}
	c.selection.SelectAll(c.selection.Bounds())
	c.logger.Debug("all days selected", "days", c.selection.Len())
	return nil
}

// RemoveRule deletes the saved rule at index. Unknown indexes are ignored.
func (c *Controller) RemoveRule(index int) bool {
	removed := c.store.Remove(index)
	c.logger.Debug("rule removal", "index", index, "removed", removed)
	return removed
}

// Rules returns the saved rules.
func (c *Controller) Rules() []availability.Rule {
	return c.store.Rules()
}

// View lays out the displayed month.
func (c *Controller) View() grid.MonthView {
	return grid.Month(grid.Request{
		Month:     c.month,
		Selection: c.selection,
		Bounds:    c.selection.Bounds(),
		Today:     c.today(),
		WeekStart: c.weekStart,
	})
}

func (c *Controller) reject(msg string, err error, attrs ...any) {
	if n, ok := notificationFor(err); ok {
		c.notifier.Notify(n)
	}
	c.logger.Info(msg, append(attrs, "error", err)...)
}
