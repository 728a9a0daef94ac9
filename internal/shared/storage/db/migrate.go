package db

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// goose keeps its filesystem and dialect in package globals.
var gooseMu sync.Mutex

// RunMigrations applies the embedded postgres schema via goose. If database is nil, it's a no-op.
func RunMigrations(ctx context.Context, database *sql.DB) error {
	return Migrate(ctx, database, "postgres", migrationFiles, "migrations")
}

// Migrate applies the migrations under dir of fsys using the given goose dialect.
func Migrate(ctx context.Context, database *sql.DB, dialect string, fsys fs.FS, dir string) error {
	if database == nil {
		return nil
	}
	gooseMu.Lock()
	defer gooseMu.Unlock()
	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	return goose.UpContext(ctx, database, dir)
}

// Status reports applied and pending migrations to the goose logger.
func Status(ctx context.Context, database *sql.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()
	goose.SetBaseFS(migrationFiles)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.StatusContext(ctx, database, "migrations")
}
