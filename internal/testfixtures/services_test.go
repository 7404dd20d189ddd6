package testfixtures

import (
	"context"
	"testing"

	"github.com/example/campaign-availability/internal/application"
	"github.com/example/campaign-availability/internal/availability"
)

type capturingCampaignRepo struct {
	created application.Campaign
}

func (c *capturingCampaignRepo) CreateCampaign(ctx context.Context, campaign application.Campaign) (application.Campaign, error) {
	c.created = campaign
	return campaign, nil
}

func (c *capturingCampaignRepo) GetCampaign(ctx context.Context, id string) (application.Campaign, error) {
	if c.created.ID != id {
		return application.Campaign{}, application.ErrNotFound
	}
	return c.created, nil
}

func (c *capturingCampaignRepo) ListCampaigns(ctx context.Context) ([]application.Campaign, error) {
	return nil, nil
}

func (c *capturingCampaignRepo) DeleteCampaign(ctx context.Context, id string) error {
	return nil
}

type emptyRules struct{}

func (emptyRules) ReplaceRules(ctx context.Context, campaignID string, rules []availability.Rule) error {
	return nil
}

func (emptyRules) ListRules(ctx context.Context, campaignID string) ([]availability.Rule, error) {
	return nil, nil
}

func TestServiceFactoryNewCampaignService(t *testing.T) {
	factory := NewServiceFactory()
	repo := &capturingCampaignRepo{}

	svc := factory.NewCampaignService(CampaignServiceDeps{Campaigns: repo})
	campaign, err := svc.CreateCampaign(context.Background(), NewCampaignFixture().Input())
	if err != nil {
		t.Fatalf("CreateCampaign returned error: %v", err)
	}

	if campaign.ID != "id-1" {
		t.Fatalf("expected generated ID id-1, got %q", campaign.ID)
	}
	if repo.created.ID != campaign.ID {
		t.Fatalf("repository received unexpected ID: %q", repo.created.ID)
	}
	if !campaign.CreatedAt.Equal(factory.Clock.Now()) {
		t.Fatalf("expected timestamp %v, got %v", factory.Clock.Now(), campaign.CreatedAt)
	}
}

func TestServiceFactoryNewBuilderService(t *testing.T) {
	factory := NewServiceFactory(WithIDGenerator(NewIDGenerator("session")))
	repo := &capturingCampaignRepo{created: NewCampaignFixture(WithCampaignID("camp")).Application()}
	svc := factory.NewBuilderService(BuilderServiceDeps{Campaigns: repo, Rules: emptyRules{}})

	view, err := svc.OpenSession(context.Background(), "camp")
	if err != nil {
		t.Fatalf("OpenSession returned error: %v", err)
	}
	if view.ID != "session-1" {
		t.Fatalf("expected deterministic session id, got %q", view.ID)
	}
}
