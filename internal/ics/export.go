// Package ics renders submitted availability rules as an iCalendar feed.
package ics

import (
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/example/campaign-availability/internal/availability"
	"github.com/example/campaign-availability/internal/calendar"
	"github.com/example/campaign-availability/internal/slots"
)

// ProductID identifies the generator in exported feeds.
const ProductID = "-//campaign-availability//availability export//EN"

// Feed describes one export.
type Feed struct {
	CampaignID   string
	CampaignName string
	Rules        []availability.Rule
	// Location places timed slots on the clock. Nil means UTC.
	Location *time.Location
	// Stamp becomes DTSTAMP on every event.
	Stamp time.Time
}

// Build converts the feed into a calendar. All-day rules become one all-day
// event per date; other rules become one timed event per date and slot.
func Build(feed Feed) (*ical.Calendar, error) {
	loc := feed.Location
	if loc == nil {
		loc = time.UTC
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)
	if feed.CampaignName != "" {
		cal.SetXWRCalName(feed.CampaignName)
	}

	for ruleIndex, rule := range feed.Rules {
		days, err := rule.Days()
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", ruleIndex, err)
		}
		prefix := rule.Fingerprint()[:16]

		for _, day := range days {
			if rule.AllDay {
				event := cal.AddEvent(fmt.Sprintf("%s-%s@%s", prefix, day.Format("20060102"), feed.CampaignID))
				event.SetDtStampTime(feed.Stamp)
				event.SetAllDayStartAt(day.Time(loc))
				event.SetAllDayEndAt(day.Next().Time(loc))
				event.SetSummary(summary(feed.CampaignName, availability.AllDaySlot.Label))
				continue
			}

			for _, slot := range rule.Slots {
				start, end, err := slotWindow(day, slot, loc)
				if err != nil {
					return nil, fmt.Errorf("rule %d: %w", ruleIndex, err)
				}
				uid := fmt.Sprintf("%s-%s-%s@%s", prefix, day.Format("20060102"), start.Format("1504"), feed.CampaignID)
				event := cal.AddEvent(uid)
				event.SetDtStampTime(feed.Stamp)
				event.SetStartAt(start)
				event.SetEndAt(end)
				event.SetSummary(summary(feed.CampaignName, slot.Label))
			}
		}
	}
	return cal, nil
}

// Write builds the feed and serialises it to w.
func Write(w io.Writer, feed Feed) error {
	cal, err := Build(feed)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, cal.Serialize())
	return err
}

func slotWindow(day calendar.Day, slot availability.SlotSpec, loc *time.Location) (time.Time, time.Time, error) {
	start, err := slots.ParseTimeOfDay(slot.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := slots.ParseTimeOfDay(slot.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end <= start {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: slot %s-%s ends before it starts", availability.ErrInvalidRule, slot.StartTime, slot.EndTime)
	}
	midnight := day.Time(loc)
	return midnight.Add(time.Duration(start) * time.Minute), midnight.Add(time.Duration(end) * time.Minute), nil
}

func summary(campaign, label string) string {
	if campaign == "" {
		return label
	}
	return campaign + ": " + label
}
