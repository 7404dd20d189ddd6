package persistence

import "time"

// Campaign is a reservation campaign and its optional active date window.
// StartDate and EndDate are yyyy-MM-dd strings; both are empty when the
// campaign has no window.
type Campaign struct {
	ID        string
	Name      string
	StartDate string
	EndDate   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RuleSlot is a saved time window of an availability rule.
type RuleSlot struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Label     string `json:"label"`
}

// AvailabilityRule is one saved rule of a campaign. Position keeps the order
// the rules were added in.
type AvailabilityRule struct {
	ID          string
	CampaignID  string
	Position    int
	Dates       []string
	Slots       []RuleSlot
	AllDay      bool
	Fingerprint string
	CreatedAt   time.Time
}
