package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/campaign-availability/internal/application"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// CampaignServiceDeps captures dependencies for constructing a campaign service.
type CampaignServiceDeps struct {
	Campaigns   application.CampaignRepository
	Rules       application.RuleRepository
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewCampaignService builds a campaign service using the supplied
// dependencies combined with the factory defaults.
func (f *ServiceFactory) NewCampaignService(deps CampaignServiceDeps) *application.CampaignService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewCampaignServiceWithLogger(deps.Campaigns, deps.Rules, idGen, now, deps.Logger)
}

// BuilderServiceDeps captures dependencies for constructing a builder service.
type BuilderServiceDeps struct {
	Campaigns   application.CampaignRepository
	Rules       application.RuleRepository
	Config      application.BuilderConfig
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewBuilderService builds a builder service whose session ids come from the
// factory generator. It panics on construction errors, which only occur for
// invalid registry sizes.
func (f *ServiceFactory) NewBuilderService(deps BuilderServiceDeps) *application.BuilderService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	svc, err := application.NewBuilderServiceWithLogger(deps.Campaigns, deps.Rules, deps.Config, idGen, now, deps.Logger)
	if err != nil {
		panic(err)
	}
	return svc
}
