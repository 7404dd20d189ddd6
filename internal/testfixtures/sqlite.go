package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/example/campaign-availability/internal/persistence"
	"github.com/example/campaign-availability/internal/persistence/sqlite"
	"github.com/example/campaign-availability/internal/persistence/sqlite/migration"
)

// SQLiteHarness provides repository access backed by a temporary, migrated
// SQLite database for integration-style persistence tests.
type SQLiteHarness struct {
	Campaigns persistence.CampaignRepository
	Rules     persistence.RuleRepository
	Storage   *sqlite.Storage

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness using a temporary file that is
// migrated automatically. Callers may optionally invoke Close, but the helper
// will also register a cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "availability.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	storage, err := sqlite.Open(ctx, migration.TempFileTestSQLiteConfig(path), logger)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	if err := storage.Migrate(ctx); err != nil {
		_ = storage.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Campaigns: storage.Campaigns(),
		Rules:     storage.Rules(),
		Storage:   storage,
		cleanup: func() {
			_ = storage.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}

// SeedCampaign stores a campaign fixture and fails the test on error.
func (h *SQLiteHarness) SeedCampaign(tb testing.TB, opts ...CampaignOption) CampaignFixture {
	tb.Helper()
	fixture := NewCampaignFixture(opts...)
	if err := h.Campaigns.CreateCampaign(context.Background(), fixture.Persistence()); err != nil {
		tb.Fatalf("failed to seed campaign: %v", err)
	}
	return fixture
}
