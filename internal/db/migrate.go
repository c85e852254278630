package db

import (
	"context"
	"embed"
	"fmt"

	_ "github.com/lib/pq" // database/sql driver used by goose
	"github.com/pressly/goose/v3"
	log "github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate brings the schema up to the latest embedded migration.
func Migrate(ctx context.Context, connString string) error {
	sqlDB, err := goose.OpenDBWithDriver("postgres", connString)
	if err != nil {
		return fmt.Errorf("open migrations db: %w", err)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			log.Warnf("close migrations db: %s", err)
		}
	}()

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(log.StandardLogger())
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, sqlDB, "migrations"); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}
	log.Debugf("db schema at version %d", version)

	return nil
}
