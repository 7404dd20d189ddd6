package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/example/campaign-availability/internal/availability"
	"github.com/example/campaign-availability/internal/builder"
	"github.com/example/campaign-availability/internal/calendar"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// DefaultSessionTTL is how long an untouched builder session survives.
	DefaultSessionTTL = 30 * time.Minute
	// DefaultMaxSessions bounds the session registry; the least recently
	// used session is evicted beyond it.
	DefaultMaxSessions = 256
)

// BuilderConfig tunes builder sessions.
type BuilderConfig struct {
	Defaults    builder.Options
	WeekStart   time.Weekday
	Location    *time.Location
	SessionTTL  time.Duration
	MaxSessions int
}

// Session is one open availability builder. It acts as the host form for
// the campaign's rule list until it is submitted.
type Session struct {
	id         string
	campaignID string

	mu         sync.Mutex
	form       *availability.MemoryForm
	controller *builder.Controller
	recorder   *builder.Recorder

	lastUsed atomic.Int64
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// CampaignID returns the campaign the session edits.
func (s *Session) CampaignID() string { return s.campaignID }

// Controller returns the builder driven by this session. Only use it inside
// BuilderService.WithSession.
func (s *Session) Controller() *builder.Controller { return s.controller }

// Dirty reports whether the rule list changed since it was loaded or submitted.
func (s *Session) Dirty() bool { return s.form.Dirty() }

func (s *Session) touch(now time.Time) {
	s.lastUsed.Store(now.UnixNano())
}

func (s *Session) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastUsed.Load()))
}

func (s *Session) view() SessionView {
	notifications := s.recorder.Drain()
	if notifications == nil {
		notifications = []builder.Notification{}
	}
	return SessionView{
		ID:            s.id,
		CampaignID:    s.campaignID,
		Dirty:         s.form.Dirty(),
		State:         s.controller.State(),
		Notifications: notifications,
	}
}

// BuilderService keeps the open builder sessions and submits their rules.
type BuilderService struct {
	campaigns   CampaignRepository
	rules       RuleRepository
	config      BuilderConfig
	sessions    *lru.Cache[string, *Session]
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewBuilderService constructs a builder service with the provided dependencies.
func NewBuilderService(campaigns CampaignRepository, rules RuleRepository, config BuilderConfig, now func() time.Time) (*BuilderService, error) {
	return NewBuilderServiceWithLogger(campaigns, rules, config, nil, now, nil)
}

// NewBuilderServiceWithLogger constructs a builder service with a specified
// logger. A nil idGenerator yields random UUIDs.
func NewBuilderServiceWithLogger(campaigns CampaignRepository, rules RuleRepository, config BuilderConfig, idGenerator func() string, now func() time.Time, logger *slog.Logger) (*BuilderService, error) {
	if config.SessionTTL <= 0 {
		config.SessionTTL = DefaultSessionTTL
	}
	if config.MaxSessions <= 0 {
		config.MaxSessions = DefaultMaxSessions
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}

	s := &BuilderService{
		campaigns:   campaigns,
		rules:       rules,
		config:      config,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
	cache, err := lru.NewWithEvict[string, *Session](config.MaxSessions, func(id string, session *Session) {
		s.logger.Debug("builder session released", "service", "BuilderService", "session_id", id, "campaign_id", session.campaignID)
	})
	if err != nil {
		return nil, fmt.Errorf("create session registry: %w", err)
	}
	s.sessions = cache
	return s, nil
}

func (s *BuilderService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BuilderService", operation, attrs...)
}

// OpenSession starts a builder over the campaign's saved rules.
func (s *BuilderService) OpenSession(ctx context.Context, campaignID string) (view SessionView, err error) {
	if s == nil {
		err = fmt.Errorf("BuilderService is nil")
		return
	}

	logger := s.loggerWith(ctx, "OpenSession", "campaign_id", campaignID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to open builder session", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("session_id", view.ID, "rule_count", len(view.State.Rules)).InfoContext(ctx, "builder session opened")
	}()

	var campaign Campaign
	campaign, err = s.campaigns.GetCampaign(ctx, campaignID)
	if err != nil {
		err = mapCampaignRepoError(err)
		return
	}
	var saved []availability.Rule
	saved, err = s.rules.ListRules(ctx, campaign.ID)
	if err != nil {
		err = mapCampaignRepoError(err)
		return
	}

	now := s.now()
	session := &Session{
		id:         s.idGenerator(),
		campaignID: campaign.ID,
		form:       availability.NewMemoryForm(saved),
		recorder:   &builder.Recorder{},
	}
	session.controller = builder.NewController(session.form, builder.Config{
		Bounds:    campaign.Bounds,
		Defaults:  s.config.Defaults,
		WeekStart: s.config.WeekStart,
		Today:     func() calendar.Day { return calendar.Today(s.now(), s.config.Location) },
		Notifier:  session.recorder,
		Logger:    s.logger.With("session_id", session.id, "campaign_id", campaign.ID),
	})
	session.touch(now)

	if evicted := s.sessions.Add(session.id, session); evicted {
		logger.WarnContext(ctx, "session registry full, evicted least recently used session")
	}

	session.mu.Lock()
	view = session.view()
	session.mu.Unlock()
	return
}

// WithSession runs fn with exclusive access to one session and returns the
// resulting view. The view is returned even when fn fails so that callers
// can render the notifications the failure raised. A nil fn only renders.
func (s *BuilderService) WithSession(ctx context.Context, id string, fn func(*Session) error) (SessionView, error) {
	if s == nil {
		return SessionView{}, fmt.Errorf("BuilderService is nil")
	}
	session, err := s.lookup(id)
	if err != nil {
		return SessionView{}, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	session.touch(s.now())

	if fn != nil {
		err = fn(session)
		if err != nil {
			s.loggerWith(ctx, "WithSession", "session_id", id).
				DebugContext(ctx, "builder action rejected", "error", err, "error_kind", ErrorKind(err))
		}
	}
	return session.view(), err
}

// Submit writes the session's rule list to storage as one batch.
func (s *BuilderService) Submit(ctx context.Context, id string) (view SessionView, err error) {
	if s == nil {
		err = fmt.Errorf("BuilderService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Submit", "session_id", id)
	var submitted int
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to submit rules", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("campaign_id", view.CampaignID, "rule_count", submitted).InfoContext(ctx, "rules submitted")
	}()

	return s.WithSession(ctx, id, func(session *Session) error {
		rules := session.form.Rules()
		vErr := &ValidationError{}
		for i, rule := range rules {
			if err := rule.Validate(); err != nil {
				vErr.add(fmt.Sprintf("rules[%d]", i), err.Error())
			}
		}
		if vErr.HasErrors() {
			return vErr
		}
		if err := s.rules.ReplaceRules(ctx, session.campaignID, rules); err != nil {
			return mapCampaignRepoError(err)
		}
		session.form.MarkClean()
		submitted = len(rules)
		return nil
	})
}

// CloseSession discards a session without submitting it.
func (s *BuilderService) CloseSession(ctx context.Context, id string) error {
	if s == nil {
		return fmt.Errorf("BuilderService is nil")
	}
	if !s.sessions.Remove(id) {
		return ErrSessionNotFound
	}
	s.loggerWith(ctx, "CloseSession", "session_id", id).InfoContext(ctx, "builder session closed")
	return nil
}

// SweepIdle drops every session idle for longer than the configured TTL and
// returns how many were dropped.
func (s *BuilderService) SweepIdle(now time.Time) int {
	if s == nil {
		return 0
	}
	swept := 0
	for _, id := range s.sessions.Keys() {
		session, ok := s.sessions.Peek(id)
		if !ok || session.idleSince(now) <= s.config.SessionTTL {
			continue
		}
		if s.sessions.Remove(id) {
			swept++
		}
	}
	return swept
}

// SessionCount returns the number of open sessions.
func (s *BuilderService) SessionCount() int {
	return s.sessions.Len()
}

func (s *BuilderService) lookup(id string) (*Session, error) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	if session.idleSince(s.now()) > s.config.SessionTTL {
		s.sessions.Remove(id)
		return nil, ErrSessionNotFound
	}
	return session, nil
}
