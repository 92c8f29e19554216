package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// Migrator wraps goose over the shared pgx pool.
type Migrator struct {
	db            *sql.DB
	migrationsDir string
	log           *zap.Logger
}

func NewMigrator(pool *pgxpool.Pool, migrationsDir string, log *zap.Logger) (*Migrator, error) {
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}

	// goose wants a *sql.DB, pgx exposes one over the pool
	db := stdlib.OpenDBFromPool(pool)

	return &Migrator{
		db:            db,
		migrationsDir: migrationsDir,
		log:           log,
	}, nil
}

// Run applies all pending migrations.
func (m *Migrator) Run(ctx context.Context) error {
	m.log.Info("applying database migrations", zap.String("dir", m.migrationsDir))

	if err := goose.UpContext(ctx, m.db, m.migrationsDir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, m.db)
	if err != nil {
		return fmt.Errorf("get migration version: %w", err)
	}

	m.log.Info("migrations applied", zap.Int64("version", version))
	return nil
}

// Close releases the migrator's sql.DB, not the underlying pool.
func (m *Migrator) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
