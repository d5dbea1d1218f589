package schema

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tsucess/paeshift-backend-sub001/internal/database"
)

type Migration struct {
	Version     int
	Description string
	// Per-backend DDL. The migrator picks the statement matching the
	// active backend.
	UpPostgres   string
	UpSQLite     string
	DownPostgres string
	DownSQLite   string
}

func (m Migration) up(backend database.Backend) string {
	if backend == database.BackendPostgres {
		return m.UpPostgres
	}
	return m.UpSQLite
}

func (m Migration) down(backend database.Backend) string {
	if backend == database.BackendPostgres {
		return m.DownPostgres
	}
	return m.DownSQLite
}

type Migrator struct {
	db      *sql.DB
	backend database.Backend
	logger  *zap.Logger
}

func NewMigrator(db *database.Database, logger *zap.Logger) *Migrator {
	return &Migrator{
		db:      db.DB(),
		backend: db.Backend(),
		logger:  logger,
	}
}

func (m *Migrator) CreateMigrationsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS migrations (
			version INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL
		)
	`

	if _, err := m.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	return nil
}

func (m *Migrator) GetAppliedMigrations(ctx context.Context) (map[int]time.Time, error) {
	query := "SELECT version, applied_at FROM migrations ORDER BY version"

	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]time.Time)
	for rows.Next() {
		var version int
		var appliedAt time.Time
		if err := rows.Scan(&version, &appliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[version] = appliedAt
	}

	return applied, rows.Err()
}

func (m *Migrator) ApplyMigration(ctx context.Context, migration Migration) error {
	if _, err := m.db.ExecContext(ctx, migration.up(m.backend)); err != nil {
		return fmt.Errorf("failed to apply migration %d: %w", migration.Version, err)
	}

	record := "INSERT INTO migrations (version, description, applied_at) VALUES (?, ?, ?)"
	if m.backend == database.BackendPostgres {
		record = "INSERT INTO migrations (version, description, applied_at) VALUES ($1, $2, $3)"
	}
	if _, err := m.db.ExecContext(ctx, record, migration.Version, migration.Description, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
	}

	return nil
}

func (m *Migrator) RollbackMigration(ctx context.Context, migration Migration) error {
	if _, err := m.db.ExecContext(ctx, migration.down(m.backend)); err != nil {
		return fmt.Errorf("failed to rollback migration %d: %w", migration.Version, err)
	}

	remove := "DELETE FROM migrations WHERE version = ?"
	if m.backend == database.BackendPostgres {
		remove = "DELETE FROM migrations WHERE version = $1"
	}
	if _, err := m.db.ExecContext(ctx, remove, migration.Version); err != nil {
		return fmt.Errorf("failed to remove migration record %d: %w", migration.Version, err)
	}

	return nil
}

// ApplyAll brings the schema up to date, skipping already-applied versions.
func (m *Migrator) ApplyAll(ctx context.Context, migrations []Migration) error {
	if err := m.CreateMigrationsTable(ctx); err != nil {
		return err
	}

	applied, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if _, ok := applied[migration.Version]; ok {
			m.logger.Info("migration already applied",
				zap.Int("version", migration.Version),
				zap.String("description", migration.Description))
			continue
		}

		m.logger.Info("applying migration",
			zap.Int("version", migration.Version),
			zap.String("description", migration.Description))

		if err := m.ApplyMigration(ctx, migration); err != nil {
			return err
		}
	}

	return nil
}
