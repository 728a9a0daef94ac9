package drafts

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"innovation-backend/internal/shared/storage/db"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// SQLiteStore keeps drafts in a local sqlite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the drafts database at path and migrates it.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve drafts db path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure drafts db dir: %w", err)
	}
	dsn := "file:" + absPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open drafts db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.Migrate(ctx, sqlDB, "sqlite3", migrationFiles, "migrations"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate drafts db: %w", err)
	}
	return &SQLiteStore{db: sqlDB}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) Put(ctx context.Context, d Draft) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO drafts (owner_id, draft_key, payload, saved_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (owner_id, draft_key) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at`,
		d.OwnerID, d.Key, string(d.Payload), d.SavedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("put draft: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, ownerID, key string) (Draft, error) {
	var (
		payload string
		savedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, saved_at FROM drafts WHERE owner_id = ? AND draft_key = ?`, ownerID, key,
	).Scan(&payload, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Draft{}, ErrNotFound
	}
	if err != nil {
		return Draft{}, fmt.Errorf("get draft: %w", err)
	}
	at, err := time.Parse(time.RFC3339Nano, savedAt)
	if err != nil {
		return Draft{}, fmt.Errorf("get draft: bad saved_at %q: %w", savedAt, err)
	}
	return Draft{OwnerID: ownerID, Key: key, Payload: []byte(payload), SavedAt: at}, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, ownerID, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE owner_id = ? AND draft_key = ?`, ownerID, key); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}
