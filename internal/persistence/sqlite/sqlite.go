package sqlite

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/campaign-availability/internal/persistence"
	"github.com/example/campaign-availability/internal/persistence/sqlite/migration"
)

// Storage bundles the SQLite-backed repositories over one connection pool.
type Storage struct {
	pool      *ConnectionPool
	logger    *slog.Logger
	campaigns *CampaignRepository
	rules     *RuleRepository
}

var (
	_ persistence.CampaignRepository = (*CampaignRepository)(nil)
	_ persistence.RuleRepository     = (*RuleRepository)(nil)
)

// Open connects to the database described by config. Call Migrate before
// using the repositories on a fresh database.
func Open(ctx context.Context, config migration.SQLiteConfig, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pool, err := NewConnectionPool(ctx, config, logger)
	if err != nil {
		return nil, err
	}
	return &Storage{
		pool:      pool,
		logger:    logger,
		campaigns: NewCampaignRepository(pool),
		rules:     NewRuleRepository(pool),
	}, nil
}

// Migrate applies the embedded schema migrations.
func (s *Storage) Migrate(ctx context.Context) error {
	applied, err := migration.NewManager(s.pool.DB(), migration.Embedded(), s.logger).Run(ctx)
	if err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	if applied > 0 {
		s.logger.InfoContext(ctx, "database schema updated", "applied", applied)
	}
	return nil
}

// Ping checks that the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Storage) Close() error {
	return s.pool.Close()
}

// Campaigns returns the campaign repository.
func (s *Storage) Campaigns() *CampaignRepository {
	return s.campaigns
}

// Rules returns the availability rule repository.
func (s *Storage) Rules() *RuleRepository {
	return s.rules
}
