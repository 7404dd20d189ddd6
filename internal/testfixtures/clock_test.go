package testfixtures

import (
	"testing"
	"time"
)

func TestClockDefaultsToReferenceTime(t *testing.T) {
	clock := NewClock(time.Time{})
	if !clock.Now().Equal(ReferenceTime()) {
		t.Fatalf("expected ReferenceTime, got %v", clock.Now())
	}
}

func TestClockAdvanceAndSet(t *testing.T) {
	start := time.Date(2024, time.March, 14, 9, 26, 0, 0, time.UTC)
	clock := NewClock(start)

	updated := clock.Advance(90 * time.Minute)
	if !updated.Equal(start.Add(90 * time.Minute)) {
		t.Fatalf("advance returned %v", updated)
	}

	clock.Set(start.Add(2 * time.Hour))
	if got := clock.Now(); !got.Equal(start.Add(2 * time.Hour)) {
		t.Fatalf("expected %v, got %v", start.Add(2*time.Hour), got)
	}
}

func TestClockToday(t *testing.T) {
	clock := NewClock(time.Date(2024, time.March, 31, 20, 0, 0, 0, time.UTC))
	tokyo := time.FixedZone("+09:00", 9*60*60)

	if got := clock.Today(nil).String(); got != "2024-03-31" {
		t.Fatalf("expected UTC date 2024-03-31, got %s", got)
	}
	if got := clock.Today(tokyo).String(); got != "2024-04-01" {
		t.Fatalf("expected +09:00 date 2024-04-01, got %s", got)
	}

	clock.AdvanceDays(2)
	if got := clock.Today(nil).String(); got != "2024-04-02" {
		t.Fatalf("expected 2024-04-02 after advancing, got %s", got)
	}
}

func TestClockNowFunc(t *testing.T) {
	clock := NewClock(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))
	nowFn := clock.NowFunc()

	clock.Advance(time.Minute)
	if got := nowFn(); !got.Equal(clock.Now()) {
		t.Fatalf("expected updated time %v, got %v", clock.Now(), got)
	}
}
