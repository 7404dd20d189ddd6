package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/example/campaign-availability/internal/availability"
	"github.com/example/campaign-availability/internal/calendar"
	"github.com/example/campaign-availability/internal/persistence"
)

// CampaignRepository captures the persistence operations needed by the services.
type CampaignRepository interface {
	CreateCampaign(ctx context.Context, campaign Campaign) (Campaign, error)
	GetCampaign(ctx context.Context, id string) (Campaign, error)
	ListCampaigns(ctx context.Context) ([]Campaign, error)
	DeleteCampaign(ctx context.Context, id string) error
}

// RuleRepository stores the submitted rule list of a campaign.
type RuleRepository interface {
	ReplaceRules(ctx context.Context, campaignID string, rules []availability.Rule) error
	ListRules(ctx context.Context, campaignID string) ([]availability.Rule, error)
}

// CampaignService orchestrates validation and persistence for campaigns.
type CampaignService struct {
	campaigns   CampaignRepository
	rules       RuleRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewCampaignService constructs a campaign service with the provided dependencies.
func NewCampaignService(campaigns CampaignRepository, rules RuleRepository, idGenerator func() string, now func() time.Time) *CampaignService {
	return NewCampaignServiceWithLogger(campaigns, rules, idGenerator, now, nil)
}

// NewCampaignServiceWithLogger constructs a campaign service with a specified logger.
func NewCampaignServiceWithLogger(campaigns CampaignRepository, rules RuleRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *CampaignService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &CampaignService{campaigns: campaigns, rules: rules, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *CampaignService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "CampaignService", operation, attrs...)
}

// CreateCampaign validates input and persists a new campaign.
func (s *CampaignService) CreateCampaign(ctx context.Context, input CampaignInput) (campaign Campaign, err error) {
	if s == nil {
		err = fmt.Errorf("CampaignService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateCampaign")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create campaign", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("campaign_id", campaign.ID).InfoContext(ctx, "campaign created")
	}()

	bounds, vErr := validateCampaignInput(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	campaign = Campaign{
		ID:        s.idGenerator(),
		Name:      strings.TrimSpace(input.Name),
		Bounds:    bounds,
		CreatedAt: s.now(),
	}
	campaign.UpdatedAt = campaign.CreatedAt

	if s.campaigns == nil {
		return
	}

	var persisted Campaign
	persisted, err = s.campaigns.CreateCampaign(ctx, campaign)
	if err != nil {
		err = mapCampaignRepoError(err)
		return
	}
	campaign = persisted
	return
}

// GetCampaign returns one campaign.
func (s *CampaignService) GetCampaign(ctx context.Context, id string) (Campaign, error) {
	if s == nil {
		return Campaign{}, fmt.Errorf("CampaignService is nil")
	}
	if s.campaigns == nil {
		return Campaign{}, fmt.Errorf("campaign repository not configured")
	}
	campaign, err := s.campaigns.GetCampaign(ctx, strings.TrimSpace(id))
	if err != nil {
		err = mapCampaignRepoError(err)
		if !errors.Is(err, ErrNotFound) {
			s.loggerWith(ctx, "GetCampaign", "campaign_id", id).
				ErrorContext(ctx, "failed to get campaign", "error", err, "error_kind", ErrorKind(err))
		}
		return Campaign{}, err
	}
	return campaign, nil
}

// ListCampaigns returns every campaign, newest first.
func (s *CampaignService) ListCampaigns(ctx context.Context) (campaigns []Campaign, err error) {
	if s == nil {
		err = fmt.Errorf("CampaignService is nil")
		return
	}
	if s.campaigns == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListCampaigns")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list campaigns", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(campaigns)).DebugContext(ctx, "campaigns listed")
	}()

	var raw []Campaign
	raw, err = s.campaigns.ListCampaigns(ctx)
	if err != nil {
		err = mapCampaignRepoError(err)
		return
	}

	campaigns = slices.Clone(raw)
	slices.SortStableFunc(campaigns, func(a, b Campaign) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return
}

// DeleteCampaign removes a campaign together with its saved rules.
func (s *CampaignService) DeleteCampaign(ctx context.Context, id string) error {
	if s == nil {
		return fmt.Errorf("CampaignService is nil")
	}
	if s.campaigns == nil {
		return fmt.Errorf("campaign repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteCampaign", "campaign_id", id)
	if err := s.campaigns.DeleteCampaign(ctx, id); err != nil {
		err = mapCampaignRepoError(err)
		logger.ErrorContext(ctx, "failed to delete campaign", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "campaign deleted")
	return nil
}

// SavedRules returns the submitted rules of a campaign.
func (s *CampaignService) SavedRules(ctx context.Context, id string) (Campaign, []availability.Rule, error) {
	campaign, err := s.GetCampaign(ctx, id)
	if err != nil {
		return Campaign{}, nil, err
	}
	if s.rules == nil {
		return campaign, nil, nil
	}
	rules, err := s.rules.ListRules(ctx, campaign.ID)
	if err != nil {
		return Campaign{}, nil, mapCampaignRepoError(err)
	}
	return campaign, rules, nil
}

func validateCampaignInput(input CampaignInput) (calendar.Bounds, *ValidationError) {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}

	start := strings.TrimSpace(input.StartDate)
	end := strings.TrimSpace(input.EndDate)
	var bounds calendar.Bounds
	switch {
	case start == "" && end == "":
	case start == "":
		vErr.add("startDate", "startDate is required when endDate is set")
	case end == "":
		vErr.add("endDate", "endDate is required when startDate is set")
	default:
		startDay, startErr := calendar.ParseDay(start)
		if startErr != nil {
			vErr.add("startDate", "startDate must be yyyy-MM-dd")
		}
		endDay, endErr := calendar.ParseDay(end)
		if endErr != nil {
			vErr.add("endDate", "endDate must be yyyy-MM-dd")
		}
		if startErr == nil && endErr == nil {
			bounds = calendar.Bounds{Start: startDay, End: endDay}
			if bounds.Validate() != nil {
				vErr.add("endDate", "endDate must not be before startDate")
				bounds = calendar.Bounds{}
			}
		}
	}
	return bounds, vErr
}

func mapCampaignRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("campaign", "campaign violates a storage constraint")
		return vErr
	}
	return err
}
