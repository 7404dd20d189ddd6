package testfixtures

import (
	"context"
	"testing"
)

func TestSQLiteHarnessSeedsCampaigns(t *testing.T) {
	harness := NewSQLiteHarness(t)
	seeded := harness.SeedCampaign(t, WithCampaignName("Harness"), WithoutCampaignWindow())

	stored, err := harness.Campaigns.GetCampaign(context.Background(), seeded.ID)
	if err != nil {
		t.Fatalf("GetCampaign failed: %v", err)
	}
	if stored.Name != "Harness" || stored.StartDate != "" || stored.EndDate != "" {
		t.Fatalf("unexpected stored campaign %+v", stored)
	}
	if err := harness.Storage.Ping(context.Background()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
}
