package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite is a TrialStore persisted in a single sqlite file.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(dbPath string) (*SQLite, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection serializes writers without SQLITE_BUSY retries.
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db}
	if err := s.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS trials (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  n REAL NOT NULL,
  t REAL NOT NULL,
  period REAL NOT NULL,
  created_at TEXT NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create trials table: %w", err)
	}
	return nil
}

func (s *SQLite) Add(ctx context.Context, r Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	const stmt = `INSERT INTO trials (n, t, period, created_at) VALUES (?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, stmt, r.N, r.T, r.Period, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert trial: %w", err)
	}
	return nil
}

func (s *SQLite) Stats(ctx context.Context) (Stats, error) {
	var (
		avg   sql.NullFloat64
		count int
	)
	row := s.db.QueryRowContext(ctx, `SELECT AVG(period), COUNT(*) FROM trials`)
	if err := row.Scan(&avg, &count); err != nil {
		return Stats{}, fmt.Errorf("trial stats: %w", err)
	}
	return Stats{Average: avg.Float64, Count: count}, nil
}

func (s *SQLite) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM trials`); err != nil {
		return fmt.Errorf("clear trials: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

var (
	_ TrialStore = (*Memory)(nil)
	_ TrialStore = (*SQLite)(nil)
)
