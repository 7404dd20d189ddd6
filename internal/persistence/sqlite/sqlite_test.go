package sqlite

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/campaign-availability/internal/persistence"
	"github.com/example/campaign-availability/internal/persistence/sqlite/migration"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	path := filepath.Join(t.TempDir(), "availability.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	storage, err := Open(context.Background(), migration.TempFileTestSQLiteConfig(path), logger)
	if err != nil {
		t.Fatalf("failed to open storage: %v", err)
	}
	t.Cleanup(func() {
		_ = storage.Close()
	})

	if err := storage.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return storage
}

func testCampaign(id string) persistence.Campaign {
	created := time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)
	return persistence.Campaign{
		ID:        id,
		Name:      "Campaign " + id,
		StartDate: "2024-03-01",
		EndDate:   "2024-03-31",
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func testRule(day string, label string) persistence.AvailabilityRule {
	return persistence.AvailabilityRule{
		Dates:       []string{day},
		Slots:       []persistence.RuleSlot{{StartTime: "09:00", EndTime: "10:00", Label: label}},
		Fingerprint: "fp-" + day + "-" + label,
	}
}

func TestStorageMigrateIsIdempotent(t *testing.T) {
	storage := newTestStorage(t)
	if err := storage.Migrate(context.Background()); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}
	if err := storage.Ping(context.Background()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
}

func TestCampaignRepository(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)
	repo := storage.Campaigns()

	campaign := testCampaign("c1")
	if err := repo.CreateCampaign(ctx, campaign); err != nil {
		t.Fatalf("CreateCampaign failed: %v", err)
	}

	fetched, err := repo.GetCampaign(ctx, "c1")
	if err != nil {
		t.Fatalf("GetCampaign failed: %v", err)
	}
	if fetched.Name != campaign.Name || fetched.StartDate != "2024-03-01" || fetched.EndDate != "2024-03-31" {
		t.Fatalf("unexpected campaign %#v", fetched)
	}
	if !fetched.CreatedAt.Equal(campaign.CreatedAt) {
		t.Fatalf("expected created_at %v, got %v", campaign.CreatedAt, fetched.CreatedAt)
	}

	open := testCampaign("c2")
	open.StartDate, open.EndDate = "", ""
	open.CreatedAt = open.CreatedAt.Add(time.Hour)
	open.UpdatedAt = open.CreatedAt
	if err := repo.CreateCampaign(ctx, open); err != nil {
		t.Fatalf("CreateCampaign without window failed: %v", err)
	}

	list, err := repo.ListCampaigns(ctx)
	if err != nil {
		t.Fatalf("ListCampaigns failed: %v", err)
	}
	if len(list) != 2 || list[0].ID != "c1" || list[1].ID != "c2" || list[1].StartDate != "" {
		t.Fatalf("unexpected list %#v", list)
	}

	if err := repo.CreateCampaign(ctx, campaign); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	if err := repo.DeleteCampaign(ctx, "c1"); err != nil {
		t.Fatalf("DeleteCampaign failed: %v", err)
	}
	if _, err := repo.GetCampaign(ctx, "c1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.DeleteCampaign(ctx, "c1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for second delete, got %v", err)
	}
}

func TestCampaignRepositoryConstraints(t *testing.T) {
	ctx := context.Background()
	repo := newTestStorage(t).Campaigns()

	cases := []struct {
		name   string
		mutate func(*persistence.Campaign)
	}{
		{name: "missing id", mutate: func(c *persistence.Campaign) { c.ID = "" }},
		{name: "blank name", mutate: func(c *persistence.Campaign) { c.Name = "  " }},
		{name: "half window", mutate: func(c *persistence.Campaign) { c.EndDate = "" }},
		{name: "reversed window", mutate: func(c *persistence.Campaign) { c.StartDate, c.EndDate = "2024-04-01", "2024-03-01" }},
	}
	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			campaign := testCampaign(fmt.Sprintf("bad-%d", i))
			tc.mutate(&campaign)
			if err := repo.CreateCampaign(ctx, campaign); !errors.Is(err, persistence.ErrConstraintViolation) {
				t.Fatalf("expected ErrConstraintViolation, got %v", err)
			}
		})
	}
}

func TestRuleRepository(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)
	if err := storage.Campaigns().CreateCampaign(ctx, testCampaign("c1")); err != nil {
		t.Fatalf("seed campaign: %v", err)
	}
	repo := storage.Rules()
	var counter int
	repo.newID = func() string {
		counter++
		return fmt.Sprintf("rule-%d", counter)
	}

	allDay := persistence.AvailabilityRule{
		Dates:       []string{"2024-03-01", "2024-03-02"},
		Slots:       []persistence.RuleSlot{{StartTime: "00:00", EndTime: "23:59", Label: "All Day"}},
		AllDay:      true,
		Fingerprint: "fp-all-day",
	}
	first := []persistence.AvailabilityRule{testRule("2024-03-05", "9:00 AM - 10:00 AM"), allDay}
	if err := repo.ReplaceRules(ctx, "c1", first); err != nil {
		t.Fatalf("ReplaceRules failed: %v", err)
	}

	stored, err := repo.ListRules(ctx, "c1")
	if err != nil {
		t.Fatalf("ListRules failed: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(stored))
	}
	if stored[0].ID != "rule-1" || stored[0].Position != 0 || stored[1].Position != 1 {
		t.Fatalf("expected generated ids in order, got %#v", stored)
	}
	if !stored[1].AllDay || len(stored[1].Dates) != 2 || stored[1].Slots[0].Label != "All Day" {
		t.Fatalf("unexpected all-day rule %#v", stored[1])
	}

	second := []persistence.AvailabilityRule{allDay}
	if err := repo.ReplaceRules(ctx, "c1", second); err != nil {
		t.Fatalf("second ReplaceRules failed: %v", err)
	}
	stored, _ = repo.ListRules(ctx, "c1")
	if len(stored) != 1 || stored[0].Fingerprint != "fp-all-day" || stored[0].Position != 0 {
		t.Fatalf("expected replacement to drop the first rule, got %#v", stored)
	}

	if err := repo.ReplaceRules(ctx, "c1", nil); err != nil {
		t.Fatalf("clearing rules failed: %v", err)
	}
	stored, _ = repo.ListRules(ctx, "c1")
	if len(stored) != 0 {
		t.Fatalf("expected no rules, got %d", len(stored))
	}
}

func TestRuleRepositoryFailures(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)
	if err := storage.Campaigns().CreateCampaign(ctx, testCampaign("c1")); err != nil {
		t.Fatalf("seed campaign: %v", err)
	}
	repo := storage.Rules()

	if err := repo.ReplaceRules(ctx, "missing", []persistence.AvailabilityRule{testRule("2024-03-05", "a")}); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown campaign, got %v", err)
	}

	if err := repo.ReplaceRules(ctx, "c1", []persistence.AvailabilityRule{{Dates: []string{"2024-03-05"}}}); !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation for incomplete rule, got %v", err)
	}

	if err := repo.ReplaceRules(ctx, "c1", []persistence.AvailabilityRule{testRule("2024-03-05", "a")}); err != nil {
		t.Fatalf("seed rules: %v", err)
	}
	dup := []persistence.AvailabilityRule{testRule("2024-03-06", "b"), testRule("2024-03-06", "b")}
	if err := repo.ReplaceRules(ctx, "c1", dup); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	stored, err := repo.ListRules(ctx, "c1")
	if err != nil {
		t.Fatalf("ListRules failed: %v", err)
	}
	if len(stored) != 1 || stored[0].Fingerprint != "fp-2024-03-05-a" {
		t.Fatalf("failed replace must roll back, got %#v", stored)
	}

	if err := storage.Campaigns().DeleteCampaign(ctx, "c1"); err != nil {
		t.Fatalf("DeleteCampaign failed: %v", err)
	}
	stored, _ = repo.ListRules(ctx, "c1")
	if len(stored) != 0 {
		t.Fatalf("expected rules to cascade with their campaign, got %d", len(stored))
	}
}

func TestErrorMapper(t *testing.T) {
	mapper := NewErrorMapper()
	cases := []struct {
		name string
		err  error
		want error
	}{
		{name: "nil", err: nil, want: nil},
		{name: "unique", err: errors.New("constraint failed: UNIQUE constraint failed: campaigns.id"), want: persistence.ErrDuplicate},
		{name: "check", err: errors.New("constraint failed: CHECK constraint failed"), want: persistence.ErrConstraintViolation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := mapper.MapError(tc.err)
			if tc.want == nil {
				if got != nil {
					t.Fatalf("expected nil, got %v", got)
				}
				return
			}
			if !errors.Is(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}

	other := errors.New("disk on fire")
	if got := mapper.MapError(other); got != other {
		t.Fatalf("unknown errors must pass through, got %v", got)
	}
}

func TestWithRetry(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 2}

	calls := 0
	err := WithRetry(context.Background(), cfg, func() error {
		calls++
		if calls < 2 {
			return errors.New("database is locked")
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Fatalf("expected success on second attempt, got %v after %d calls", err, calls)
	}

	calls = 0
	permanent := errors.New("no such table")
	if err := WithRetry(context.Background(), cfg, func() error { calls++; return permanent }); !errors.Is(err, permanent) || calls != 1 {
		t.Fatalf("expected permanent error without retry, got %v after %d calls", err, calls)
	}

	calls = 0
	err = WithRetry(context.Background(), cfg, func() error { calls++; return errors.New("database is locked") })
	if err == nil || calls != 3 {
		t.Fatalf("expected exhaustion after 3 calls, got %v after %d calls", err, calls)
	}
}
