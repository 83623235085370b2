package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/udj/udjserver/migrations"
)

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

// Migrate applies all pending migrations embedded in the migrations package.
func Migrate(ctx context.Context, databaseURL string) error {
	return withGoose(ctx, databaseURL, func(db *sql.DB) error {
		if err := goose.UpContext(ctx, db, "."); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		return nil
	})
}

// MigrateDownTo rolls the schema back to version. Version 0 drops every table.
func MigrateDownTo(ctx context.Context, databaseURL string, version int64) error {
	return withGoose(ctx, databaseURL, func(db *sql.DB) error {
		if err := goose.DownToContext(ctx, db, ".", version); err != nil {
			return fmt.Errorf("migrate down to %d: %w", version, err)
		}
		return nil
	})
}

// SchemaVersion returns the currently applied migration version.
func SchemaVersion(ctx context.Context, databaseURL string) (int64, error) {
	var version int64
	err := withGoose(ctx, databaseURL, func(db *sql.DB) error {
		v, err := goose.GetDBVersionContext(ctx, db)
		if err != nil {
			return fmt.Errorf("migrate version: %w", err)
		}
		version = v
		return nil
	})
	return version, err
}

func withGoose(ctx context.Context, databaseURL string, fn func(db *sql.DB) error) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("open sql: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sql: %w", err)
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	goose.SetLogger(goose.NopLogger())

	return fn(db)
}
