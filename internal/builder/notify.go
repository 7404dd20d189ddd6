package builder

import (
	"errors"

	"github.com/example/campaign-availability/internal/availability"
	"github.com/example/campaign-availability/internal/selection"
)

// Kind distinguishes the user-facing feedback classes.
type Kind string

const (
	KindSuccess    Kind = "success"
	KindValidation Kind = "validation"
	KindDuplicate  Kind = "duplicate"
	KindOutOfRange Kind = "out_of_range"
)

// Level is the severity a renderer should use.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

const (
	MessageAdded        = "Added successfully"
	MessageNoDates      = "Please select dates first"
	MessageNoSlots      = "Please select at least one time slot"
	MessageDuplicate    = "This timeslot has already been saved"
	MessageOutOfRange   = "Date is outside campaign active range"
	MessageSelectAllOff = "Campaign dates are required to select all"
)

// Notification is one message for the user.
type Notification struct {
	Kind    Kind   `json:"kind"`
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Notifier receives notifications as they are raised.
type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// Recorder buffers notifications until drained.
type Recorder struct {
	pending []Notification
}

func (r *Recorder) Notify(n Notification) {
	r.pending = append(r.pending, n)
}

// Drain returns the buffered notifications and empties the buffer.
func (r *Recorder) Drain() []Notification {
	out := r.pending
	r.pending = nil
	return out
}

// notificationFor maps a core error onto its feedback message.
func notificationFor(err error) (Notification, bool) {
	switch {
	case errors.Is(err, availability.ErrNoDatesSelected):
		return Notification{Kind: KindValidation, Level: LevelError, Message: MessageNoDates}, true
	case errors.Is(err, availability.ErrNoSlotsSelected):
		return Notification{Kind: KindValidation, Level: LevelError, Message: MessageNoSlots}, true
	case errors.Is(err, availability.ErrDuplicateRule):
		return Notification{Kind: KindDuplicate, Level: LevelError, Message: MessageDuplicate}, true
	case errors.Is(err, selection.ErrOutOfRange):
		return Notification{Kind: KindOutOfRange, Level: LevelWarning, Message: MessageOutOfRange}, true
	case errors.Is(err, ErrNoBounds):
		return Notification{Kind: KindValidation, Level: LevelWarning, Message: MessageSelectAllOff}, true
	}
	return Notification{}, false
}
