// Package migration applies the versioned SQLite schema and tracks it in a
// schema_migrations table.
//
// Migration files are named {version}_{description}.sql and embedded into
// the binary. Each file runs in its own transaction together with the row
// that records it.
package migration

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"strconv"
)

//go:embed sql/*.sql
var embedded embed.FS

// Embedded returns the migrations shipped with the binary.
func Embedded() fs.FS {
	sub, err := fs.Sub(embedded, "sql")
	if err != nil {
		panic(err)
	}
	return sub
}

// Status summarises the schema state.
type Status struct {
	CurrentVersion int
	Applied        []AppliedMigration
	Pending        []Migration
}

// Manager orchestrates scanning and applying migrations.
type Manager struct {
	source   fs.FS
	executor *Executor
	logger   *slog.Logger
}

// NewManager builds a manager that applies the migrations in source to db.
func NewManager(db *sql.DB, source fs.FS, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{source: source, executor: NewExecutor(db), logger: logger.With("component", "migration")}
}

// Run applies every pending migration in version order and returns how many
// were applied.
func (m *Manager) Run(ctx context.Context) (int, error) {
	status, err := m.Status(ctx)
	if err != nil {
		return 0, err
	}
	m.logger.InfoContext(ctx, "schema status", "current_version", status.CurrentVersion, "pending", len(status.Pending))

	for _, migration := range status.Pending {
		if err := m.executor.Execute(ctx, migration); err != nil {
			m.logger.ErrorContext(ctx, "migration failed", "version", migration.Version, "file", migration.File, "error", err)
			return 0, err
		}
		m.logger.InfoContext(ctx, "migration applied", "version", migration.Version, "description", migration.Description)
	}
	return len(status.Pending), nil
}

// Status compares the available migrations with the applied ones. An
// applied migration whose file changed is reported as an error.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return Status{}, err
	}
	available, err := Scan(m.source)
	if err != nil {
		return Status{}, err
	}
	applied, err := m.executor.Applied(ctx)
	if err != nil {
		return Status{}, err
	}

	checksums := make(map[int]string, len(applied))
	status := Status{Applied: applied}
	for _, a := range applied {
		checksums[a.Version] = a.Checksum
		status.CurrentVersion = max(status.CurrentVersion, a.Version)
	}
	for _, migration := range available {
		sum, ok := checksums[migration.Version]
		if !ok {
			status.Pending = append(status.Pending, migration)
			continue
		}
		if sum != migration.Checksum {
			return Status{}, NewMigrationError(strconv.Itoa(migration.Version), migration.File, "verify checksum",
				fmt.Errorf("%w: recorded %s", ErrChecksumMismatch, sum))
		}
	}
	return status, nil
}
