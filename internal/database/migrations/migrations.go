// Package migrations holds the schema history, applied with bun/migrate.
package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

// Migrations is the registry every migration file adds itself to
var Migrations = migrate.NewMigrations()

// NewMigrator returns a migrator bound to db with the bun_migrations tables initialised
func NewMigrator(ctx context.Context, db *bun.DB) (*migrate.Migrator, error) {
	m := migrate.NewMigrator(db, Migrations)
	if err := m.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to init migrations: %w", err)
	}
	return m, nil
}

// Up applies all pending migrations under the migration lock
func Up(ctx context.Context, db *bun.DB) (*migrate.MigrationGroup, error) {
	m, err := NewMigrator(ctx, db)
	if err != nil {
		return nil, err
	}

	if err := m.Lock(ctx); err != nil {
		return nil, fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	defer m.Unlock(ctx) //nolint:errcheck

	group, err := m.Migrate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	return group, nil
}

// Down rolls back the most recent migration group
func Down(ctx context.Context, db *bun.DB) (*migrate.MigrationGroup, error) {
	m, err := NewMigrator(ctx, db)
	if err != nil {
		return nil, err
	}

	if err := m.Lock(ctx); err != nil {
		return nil, fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	defer m.Unlock(ctx) //nolint:errcheck

	group, err := m.Rollback(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to roll back migrations: %w", err)
	}
	return group, nil
}

// Status lists every known migration with its applied state
func Status(ctx context.Context, db *bun.DB) (migrate.MigrationSlice, error) {
	m, err := NewMigrator(ctx, db)
	if err != nil {
		return nil, err
	}

	ms, err := m.MigrationsWithStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration status: %w", err)
	}
	return ms, nil
}
