package persistence

import "context"

// CampaignRepository exposes CRUD operations for campaigns.
type CampaignRepository interface {
	CreateCampaign(ctx context.Context, campaign Campaign) error
	GetCampaign(ctx context.Context, id string) (Campaign, error)
	ListCampaigns(ctx context.Context) ([]Campaign, error)
	DeleteCampaign(ctx context.Context, id string) error
}

// RuleRepository stores the ordered availability rules of a campaign.
type RuleRepository interface {
	// ReplaceRules swaps the full rule list of a campaign atomically.
	ReplaceRules(ctx context.Context, campaignID string, rules []AvailabilityRule) error
	ListRules(ctx context.Context, campaignID string) ([]AvailabilityRule, error)
}
