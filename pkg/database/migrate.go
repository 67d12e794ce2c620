package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

// seams for testing the goose calls without a live database
var (
	gooseUp     = goose.UpContext
	gooseDown   = goose.DownContext
	gooseStatus = goose.StatusContext
)

// gooseLogger adapts a sugared zap logger to goose.Logger.
type gooseLogger struct{ l *zap.SugaredLogger }

func (g gooseLogger) Fatalf(format string, v ...any) { g.l.Fatalf(format, v...) }
func (g gooseLogger) Printf(format string, v ...any) { g.l.Infof(format, v...) }

func setupGoose(logger *zap.SugaredLogger) error {
	if logger != nil {
		goose.SetLogger(gooseLogger{l: logger})
	}
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	return nil
}

// Migrate applies every pending embedded migration.
func Migrate(ctx context.Context, db *sql.DB, logger *zap.SugaredLogger) error {
	if err := setupGoose(logger); err != nil {
		return err
	}
	if err := gooseUp(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// MigrateDown rolls back the most recent migration.
func MigrateDown(ctx context.Context, db *sql.DB, logger *zap.SugaredLogger) error {
	if err := setupGoose(logger); err != nil {
		return err
	}
	if err := gooseDown(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

// MigrationStatus logs the applied state of every migration.
func MigrationStatus(ctx context.Context, db *sql.DB, logger *zap.SugaredLogger) error {
	if err := setupGoose(logger); err != nil {
		return err
	}
	return gooseStatus(ctx, db, migrationsDir)
}
