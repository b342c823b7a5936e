package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Journal records provider failures in sqlite so operators can see why the
// display went stale. It stores error events only, not sensor readings.
type Journal struct {
	log *slog.Logger
	db  *sql.DB
}

func Open(log *slog.Logger, dbPath string) (*Journal, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	j := &Journal{
		log: log,
		db:  db,
	}

	if err := j.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return j, nil
}

func (j *Journal) migrate() error {
	query := `
		CREATE TABLE IF NOT EXISTS failures (
			id TEXT PRIMARY KEY,
			provider TEXT NOT NULL,
			message TEXT NOT NULL,
			occurred_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_failures_occurred_at ON failures(occurred_at);
	`
	_, err := j.db.Exec(query)
	return err
}

// Record stores one provider failure.
func (j *Journal) Record(ctx context.Context, provider, message string) error {
	_, err := j.db.ExecContext(ctx,
		"INSERT INTO failures (id, provider, message, occurred_at) VALUES (?, ?, ?, ?)",
		uuid.New().String(),
		provider,
		message,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record failure: %w", err)
	}
	return nil
}

// CountSince reports how many failures occurred at or after the given time.
func (j *Journal) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := j.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM failures WHERE occurred_at >= ?",
		since.UTC().Format(time.RFC3339),
	).Scan(&count)
	return count, err
}

// Cleanup removes failure records older than maxAge.
func (j *Journal) Cleanup(ctx context.Context, maxAge time.Duration) error {
	cutoff := time.Now().UTC().Add(-maxAge).Format(time.RFC3339)

	result, err := j.db.ExecContext(ctx, "DELETE FROM failures WHERE occurred_at < ?", cutoff)
	if err != nil {
		return fmt.Errorf("failed to cleanup old failures: %w", err)
	}

	deleted, _ := result.RowsAffected()
	if deleted > 0 {
		j.log.Info("cleaned up old journal entries", slog.Int64("deleted", deleted))
	}

	return nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}
