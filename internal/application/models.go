package application

import (
	"time"

	"github.com/example/campaign-availability/internal/builder"
	"github.com/example/campaign-availability/internal/calendar"
)

// CampaignInput captures caller provided campaign fields. Dates are
// yyyy-MM-dd and must be given together or not at all.
type CampaignInput struct {
	Name      string
	StartDate string
	EndDate   string
}

// Campaign is a reservation campaign. Bounds is zero when the campaign has
// no active window.
type Campaign struct {
	ID        string
	Name      string
	Bounds    calendar.Bounds
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SessionView is what a transport renders after every builder action.
type SessionView struct {
	ID            string                 `json:"id"`
	CampaignID    string                 `json:"campaignId"`
	Dirty         bool                   `json:"dirty"`
	State         builder.Snapshot       `json:"state"`
	Notifications []builder.Notification `json:"notifications"`
}
