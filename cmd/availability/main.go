package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/campaign-availability/internal/application"
	"github.com/example/campaign-availability/internal/availability"
	"github.com/example/campaign-availability/internal/calendar"
	"github.com/example/campaign-availability/internal/config"
	httptransport "github.com/example/campaign-availability/internal/http"
	"github.com/example/campaign-availability/internal/persistence"
	"github.com/example/campaign-availability/internal/persistence/sqlite"
)

func main() {
	bootstrap := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		bootstrap.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// run serves the API until ctx is cancelled.
func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	storage, err := sqlite.Open(ctx, cfg.SQLiteConfig(), logger)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	app, err := newApp(cfg, storage, time.Now, logger)
	if err != nil {
		return err
	}

	app.sweeper.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.sweeper.Stop(stopCtx); err != nil {
			logger.Error("failed to stop session sweeper", "error", err)
		}
	}()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("availability API listening", "addr", server.Addr, "week_start", cfg.WeekStart.String(), "display_offset", cfg.DisplayOffset)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type app struct {
	handler http.Handler
	builder *application.BuilderService
	sweeper *application.SessionSweeper
}

// newApp wires services and transport over an opened, migrated storage.
func newApp(cfg config.Config, storage *sqlite.Storage, now func() time.Time, logger *slog.Logger) (*app, error) {
	campaignRepo := newCampaignRepositoryAdapter(storage.Campaigns())
	ruleRepo := newRuleRepositoryAdapter(storage.Rules())

	campaignService := application.NewCampaignServiceWithLogger(campaignRepo, ruleRepo, uuid.NewString, now, logger)
	builderService, err := application.NewBuilderServiceWithLogger(campaignRepo, ruleRepo, cfg.BuilderConfig(), uuid.NewString, now, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create builder service: %w", err)
	}
	sweeper, err := application.NewSessionSweeper(builderService, cfg.SweepSchedule, now, logger)
	if err != nil {
		return nil, err
	}

	handler := httptransport.NewRouter(httptransport.RouterConfig{
		Campaigns: httptransport.NewCampaignHandler(campaignService, cfg.Location, now, logger),
		Sessions:  httptransport.NewSessionHandler(builderService, logger),
		Health:    storage.Ping,
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.Recoverer(logger),
		},
	})
	return &app{handler: handler, builder: builderService, sweeper: sweeper}, nil
}

type campaignRepositoryAdapter struct {
	repo persistence.CampaignRepository
}

func newCampaignRepositoryAdapter(repo persistence.CampaignRepository) *campaignRepositoryAdapter {
	return &campaignRepositoryAdapter{repo: repo}
}

func (a *campaignRepositoryAdapter) CreateCampaign(ctx context.Context, campaign application.Campaign) (application.Campaign, error) {
	if err := a.repo.CreateCampaign(ctx, toPersistenceCampaign(campaign)); err != nil {
		return application.Campaign{}, err
	}
	stored, err := a.repo.GetCampaign(ctx, campaign.ID)
	if err != nil {
		return application.Campaign{}, err
	}
	return toApplicationCampaign(stored)
}

func (a *campaignRepositoryAdapter) GetCampaign(ctx context.Context, id string) (application.Campaign, error) {
	stored, err := a.repo.GetCampaign(ctx, id)
	if err != nil {
		return application.Campaign{}, err
	}
	return toApplicationCampaign(stored)
}

func (a *campaignRepositoryAdapter) ListCampaigns(ctx context.Context) ([]application.Campaign, error) {
	models, err := a.repo.ListCampaigns(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	campaigns := make([]application.Campaign, 0, len(models))
	for _, model := range models {
		campaign, err := toApplicationCampaign(model)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, campaign)
	}
	return campaigns, nil
}

func (a *campaignRepositoryAdapter) DeleteCampaign(ctx context.Context, id string) error {
	return a.repo.DeleteCampaign(ctx, id)
}

type ruleRepositoryAdapter struct {
	repo persistence.RuleRepository
}

func newRuleRepositoryAdapter(repo persistence.RuleRepository) *ruleRepositoryAdapter {
	return &ruleRepositoryAdapter{repo: repo}
}

func (a *ruleRepositoryAdapter) ReplaceRules(ctx context.Context, campaignID string, rules []availability.Rule) error {
	models := make([]persistence.AvailabilityRule, 0, len(rules))
	for i, rule := range rules {
		models = append(models, toPersistenceRule(campaignID, i, rule))
	}
	return a.repo.ReplaceRules(ctx, campaignID, models)
}

func (a *ruleRepositoryAdapter) ListRules(ctx context.Context, campaignID string) ([]availability.Rule, error) {
	models, err := a.repo.ListRules(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	rules := make([]availability.Rule, 0, len(models))
	for _, model := range models {
		rules = append(rules, toApplicationRule(model))
	}
	return rules, nil
}

func toApplicationCampaign(model persistence.Campaign) (application.Campaign, error) {
	campaign := application.Campaign{
		ID:        model.ID,
		Name:      model.Name,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
	if model.StartDate != "" || model.EndDate != "" {
		bounds, err := calendar.ParseBounds(model.StartDate, model.EndDate)
		if err != nil {
			return application.Campaign{}, fmt.Errorf("campaign %s has an invalid window: %w", model.ID, err)
		}
		campaign.Bounds = bounds
	}
	return campaign, nil
}

func toPersistenceCampaign(campaign application.Campaign) persistence.Campaign {
	model := persistence.Campaign{
		ID:        campaign.ID,
		Name:      campaign.Name,
		CreatedAt: campaign.CreatedAt,
		UpdatedAt: campaign.UpdatedAt,
	}
	if !campaign.Bounds.IsZero() {
		model.StartDate = campaign.Bounds.Start.String()
		model.EndDate = campaign.Bounds.End.String()
	}
	return model
}

func toApplicationRule(model persistence.AvailabilityRule) availability.Rule {
	rule := availability.Rule{
		Dates:  append([]string(nil), model.Dates...),
		Slots:  make([]availability.SlotSpec, 0, len(model.Slots)),
		AllDay: model.AllDay,
	}
	for _, slot := range model.Slots {
		rule.Slots = append(rule.Slots, availability.SlotSpec{StartTime: slot.StartTime, EndTime: slot.EndTime, Label: slot.Label})
	}
	return rule
}

func toPersistenceRule(campaignID string, position int, rule availability.Rule) persistence.AvailabilityRule {
	model := persistence.AvailabilityRule{
		CampaignID:  campaignID,
		Position:    position,
		Dates:       append([]string(nil), rule.Dates...),
		Slots:       make([]persistence.RuleSlot, 0, len(rule.Slots)),
		AllDay:      rule.AllDay,
		Fingerprint: rule.Fingerprint(),
	}
	for _, slot := range rule.Slots {
		model.Slots = append(model.Slots, persistence.RuleSlot{StartTime: slot.StartTime, EndTime: slot.EndTime, Label: slot.Label})
	}
	return model
}
