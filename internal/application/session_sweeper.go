package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// SessionSweeper periodically drops idle builder sessions.
type SessionSweeper struct {
	cron     *cron.Cron
	sessions *BuilderService
	now      func() time.Time
	logger   *slog.Logger
}

// NewSessionSweeper schedules BuilderService.SweepIdle on a standard
// five-field cron spec or a descriptor such as "@every 5m".
func NewSessionSweeper(sessions *BuilderService, schedule string, now func() time.Time, logger *slog.Logger) (*SessionSweeper, error) {
	if sessions == nil {
		return nil, fmt.Errorf("builder service is required")
	}
	if now == nil {
		now = time.Now
	}
	sw := &SessionSweeper{
		cron:     cron.New(),
		sessions: sessions,
		now:      now,
		logger:   defaultLogger(logger).With("component", "session_sweeper"),
	}
	if _, err := sw.cron.AddFunc(schedule, sw.Sweep); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return sw, nil
}

// Sweep runs one sweep immediately.
func (sw *SessionSweeper) Sweep() {
	swept := sw.sessions.SweepIdle(sw.now())
	if swept > 0 {
		sw.logger.Info("idle builder sessions swept", "swept", swept, "remaining", sw.sessions.SessionCount())
	}
}

// Start runs the schedule in the background.
func (sw *SessionSweeper) Start() {
	sw.cron.Start()
}

// Stop halts the schedule and waits for a running sweep, or for ctx.
func (sw *SessionSweeper) Stop(ctx context.Context) error {
	done := sw.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
