package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/campaign-availability/internal/availability"
	"github.com/example/campaign-availability/internal/builder"
	"github.com/example/campaign-availability/internal/logging"
	"github.com/example/campaign-availability/internal/selection"
	"github.com/example/campaign-availability/internal/slots"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = base
	}
	if logger == nil {
		logger = slog.Default()
	}

	pairs := []any{"service", serviceName}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if len(attrs) > 0 {
		pairs = append(pairs, attrs...)
	}
	return logger.With(pairs...)
}

// ErrorKind maps sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, selection.ErrOutOfRange):
		return "out_of_range"
	case errors.Is(err, availability.ErrNoDatesSelected), errors.Is(err, availability.ErrNoSlotsSelected):
		return "incomplete_selection"
	case errors.Is(err, availability.ErrDuplicateRule):
		return "duplicate_rule"
	case errors.Is(err, availability.ErrInvalidRule):
		return "invalid_rule"
	case errors.Is(err, builder.ErrNoBounds):
		return "no_bounds"
	case errors.Is(err, builder.ErrUnknownSlot):
		return "unknown_slot"
	case errors.Is(err, slots.ErrUnsupportedInterval), errors.Is(err, slots.ErrInvalidTime):
		return "invalid_option"
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}

	return "unexpected"
}
