package migration

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScan(t *testing.T) {
	t.Run("orders by version and ignores other files", func(t *testing.T) {
		fsys := fstest.MapFS{
			"010_add_index.sql":   {Data: []byte("CREATE INDEX idx ON t (a);")},
			"002_create_t.sql":    {Data: []byte("-- table\nCREATE TABLE t (a TEXT);")},
			"README.md":           {Data: []byte("notes")},
			"003_second_step.sql": {Data: []byte("ALTER TABLE t ADD COLUMN b TEXT;")},
		}
		migrations, err := Scan(fsys)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(migrations) != 3 {
			t.Fatalf("expected 3 migrations, got %d", len(migrations))
		}
		versions := []int{migrations[0].Version, migrations[1].Version, migrations[2].Version}
		if versions[0] != 2 || versions[1] != 3 || versions[2] != 10 {
			t.Fatalf("unexpected order %v", versions)
		}
		if migrations[1].Description != "second step" || migrations[0].Checksum == "" {
			t.Fatalf("unexpected metadata %+v", migrations[1])
		}
	})

	t.Run("rejects bad names", func(t *testing.T) {
		_, err := Scan(fstest.MapFS{"create.sql": {Data: []byte("SELECT 1;")}})
		if !errors.Is(err, ErrInvalidMigrationFile) {
			t.Fatalf("expected ErrInvalidMigrationFile, got %v", err)
		}
	})

	t.Run("rejects duplicate versions", func(t *testing.T) {
		_, err := Scan(fstest.MapFS{
			"001_a.sql": {Data: []byte("SELECT 1;")},
			"01_b.sql":  {Data: []byte("SELECT 2;")},
		})
		if !errors.Is(err, ErrDuplicateVersion) {
			t.Fatalf("expected ErrDuplicateVersion, got %v", err)
		}
	})

	t.Run("rejects comment-only files", func(t *testing.T) {
		_, err := Scan(fstest.MapFS{"001_empty.sql": {Data: []byte("-- nothing here\n")}})
		if !errors.Is(err, ErrInvalidMigrationFile) {
			t.Fatalf("expected ErrInvalidMigrationFile, got %v", err)
		}
	})
}

func TestManagerRun(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "migrate.db")
	db, err := NewConnectionManager(TempFileTestSQLiteConfig(path)).Open(ctx)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	manager := NewManager(db, Embedded(), discardLogger())
	applied, err := manager.Run(ctx)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if applied != 2 {
		t.Fatalf("expected 2 migrations applied, got %d", applied)
	}

	again, err := manager.Run(ctx)
	if err != nil || again != 0 {
		t.Fatalf("expected second run to be a no-op, got %d %v", again, err)
	}

	status, err := manager.Status(ctx)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if status.CurrentVersion != 2 || len(status.Pending) != 0 || len(status.Applied) != 2 {
		t.Fatalf("unexpected status %+v", status)
	}

	var tables int
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('campaigns', 'availability_rules')`,
	).Scan(&tables); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if tables != 2 {
		t.Fatalf("expected both tables to exist, got %d", tables)
	}
}

func TestManagerRollsBackFailedMigration(t *testing.T) {
	ctx := context.Background()
	db, err := NewConnectionManager(TempFileTestSQLiteConfig(filepath.Join(t.TempDir(), "broken.db"))).Open(ctx)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	source := fstest.MapFS{
		"001_ok.sql":     {Data: []byte("CREATE TABLE ok (id TEXT);")},
		"002_broken.sql": {Data: []byte("CREATE TABLE half (id TEXT); INSERT INTO missing VALUES (1);")},
	}
	_, err = NewManager(db, source, discardLogger()).Run(ctx)
	if !errors.Is(err, ErrMigrationFailed) {
		t.Fatalf("expected ErrMigrationFailed, got %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE name = 'half'`).Scan(&count); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected failed migration to be rolled back")
	}

	status, err := NewManager(db, source, discardLogger()).Status(ctx)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if status.CurrentVersion != 1 || len(status.Pending) != 1 {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestManagerDetectsEditedMigration(t *testing.T) {
	ctx := context.Background()
	db, err := NewConnectionManager(TempFileTestSQLiteConfig(filepath.Join(t.TempDir(), "edited.db"))).Open(ctx)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := NewManager(db, fstest.MapFS{"001_t.sql": {Data: []byte("CREATE TABLE t (id TEXT);")}}, discardLogger()).Run(ctx); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	_, err = NewManager(db, fstest.MapFS{"001_t.sql": {Data: []byte("CREATE TABLE t (id INTEGER);")}}, discardLogger()).Run(ctx)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("expected ErrChecksumMismatch, got %v", err)
	}
}

func TestSQLiteConfig(t *testing.T) {
	cfg := DefaultSQLiteConfig("/tmp/app.db")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected default config to validate, got %v", err)
	}
	dsn := cfg.DSN()
	for _, want := range []string{"/tmp/app.db?", "foreign_keys%281%29", "journal_mode%28WAL%29"} {
		if !strings.Contains(dsn, want) {
			t.Fatalf("expected %q in dsn %q", want, dsn)
		}
	}

	cfg.JournalMode = "sideways"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected invalid journal mode to be rejected")
	}
	if err := (SQLiteConfig{}).Validate(); err == nil {
		t.Fatalf("expected empty path to be rejected")
	}
}
