package testfixtures

import (
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/example/campaign-availability/internal/application"
	"github.com/example/campaign-availability/internal/availability"
	"github.com/example/campaign-availability/internal/calendar"
	"github.com/example/campaign-availability/internal/persistence"
)

var (
	campaignCounter uint64
	ruleCounter     uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// --------------------------- Campaign fixtures ---------------------------

// CampaignFixture represents a deterministic campaign that can be
// materialised for application or persistence tests.
type CampaignFixture struct {
	ID        string
	Name      string
	StartDate string
	EndDate   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CampaignOption configures the generated campaign fixture.
type CampaignOption func(*CampaignFixture)

// NewCampaignFixture returns a March 2024 campaign with optional overrides.
func NewCampaignFixture(opts ...CampaignOption) CampaignFixture {
	idx := atomic.AddUint64(&campaignCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := CampaignFixture{
		ID:        fmt.Sprintf("campaign-%03d", idx),
		Name:      fmt.Sprintf("Campaign %03d", idx),
		StartDate: "2024-03-01",
		EndDate:   "2024-03-31",
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithCampaignID overrides the generated campaign ID.
func WithCampaignID(id string) CampaignOption {
	return func(f *CampaignFixture) {
		f.ID = id
	}
}

// WithCampaignName overrides the generated name.
func WithCampaignName(name string) CampaignOption {
	return func(f *CampaignFixture) {
		f.Name = name
	}
}

// WithCampaignWindow sets the active window. Empty strings clear it.
func WithCampaignWindow(start, end string) CampaignOption {
	return func(f *CampaignFixture) {
		f.StartDate = start
		f.EndDate = end
	}
}

// WithoutCampaignWindow removes the active window.
func WithoutCampaignWindow() CampaignOption {
	return WithCampaignWindow("", "")
}

// WithCampaignCreatedAt sets both timestamps on the fixture.
func WithCampaignCreatedAt(t time.Time) CampaignOption {
	return func(f *CampaignFixture) {
		f.CreatedAt = t
		f.UpdatedAt = t
	}
}

// Bounds returns the window as calendar bounds; zero when unset.
func (f CampaignFixture) Bounds() calendar.Bounds {
	if f.StartDate == "" && f.EndDate == "" {
		return calendar.Bounds{}
	}
	return calendar.Bounds{Start: calendar.MustParseDay(f.StartDate), End: calendar.MustParseDay(f.EndDate)}
}

// Application returns the fixture as an application.Campaign value.
func (f CampaignFixture) Application() application.Campaign {
	return application.Campaign{
		ID:        f.ID,
		Name:      f.Name,
		Bounds:    f.Bounds(),
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Input returns the fixture as create input.
func (f CampaignFixture) Input() application.CampaignInput {
	return application.CampaignInput{Name: f.Name, StartDate: f.StartDate, EndDate: f.EndDate}
}

// Persistence returns the fixture as a persistence.Campaign value.
func (f CampaignFixture) Persistence() persistence.Campaign {
	return persistence.Campaign{
		ID:        f.ID,
		Name:      f.Name,
		StartDate: f.StartDate,
		EndDate:   f.EndDate,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// ----------------------------- Rule fixtures -----------------------------

// RuleFixture represents a deterministic availability rule.
type RuleFixture struct {
	ID     string
	Dates  []string
	Slots  []availability.SlotSpec
	AllDay bool
}

// RuleOption configures the generated rule fixture.
type RuleOption func(*RuleFixture)

// NewRuleFixture returns a one-day, one-slot rule with optional overrides.
// Successive fixtures fall on successive March days so that they never
// collide.
func NewRuleFixture(opts ...RuleOption) RuleFixture {
	idx := atomic.AddUint64(&ruleCounter, 1)
	day := calendar.Date(2024, time.March, 1).AddDays(int(idx % 31))
	fixture := RuleFixture{
		ID:    fmt.Sprintf("rule-%03d", idx),
		Dates: []string{day.String()},
		Slots: []availability.SlotSpec{{StartTime: "09:00", EndTime: "10:00", Label: "9:00 AM - 10:00 AM"}},
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithRuleID overrides the generated rule ID.
func WithRuleID(id string) RuleOption {
	return func(f *RuleFixture) {
		f.ID = id
	}
}

// WithRuleDates overrides the rule dates.
func WithRuleDates(dates ...string) RuleOption {
	return func(f *RuleFixture) {
		f.Dates = slices.Clone(dates)
	}
}

// WithRuleSlots overrides the rule slots.
func WithRuleSlots(specs ...availability.SlotSpec) RuleOption {
	return func(f *RuleFixture) {
		f.Slots = slices.Clone(specs)
		f.AllDay = false
	}
}

// WithRuleAllDay turns the fixture into an all-day rule.
func WithRuleAllDay() RuleOption {
	return func(f *RuleFixture) {
		f.Slots = []availability.SlotSpec{availability.AllDaySlot}
		f.AllDay = true
	}
}

// Application returns the fixture as an availability.Rule value.
func (f RuleFixture) Application() availability.Rule {
	return availability.Rule{
		Dates:  slices.Clone(f.Dates),
		Slots:  slices.Clone(f.Slots),
		AllDay: f.AllDay,
	}
}

// Persistence returns the fixture as a stored rule of campaignID.
func (f RuleFixture) Persistence(campaignID string, position int) persistence.AvailabilityRule {
	rule := f.Application()
	stored := persistence.AvailabilityRule{
		ID:          f.ID,
		CampaignID:  campaignID,
		Position:    position,
		Dates:       rule.Dates,
		AllDay:      rule.AllDay,
		Fingerprint: rule.Fingerprint(),
		CreatedAt:   referenceTime,
	}
	for _, s := range rule.Slots {
		stored.Slots = append(stored.Slots, persistence.RuleSlot{StartTime: s.StartTime, EndTime: s.EndTime, Label: s.Label})
	}
	return stored
}
