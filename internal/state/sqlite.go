package state

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sweeney/alarmguard/internal/logic"
)

// Store loads and saves the durable record.
type Store interface {
	// Load never fails; unreadable fields fall back to their defaults.
	Load(ctx context.Context) logic.State
	// Save overwrites the whole record atomically.
	Save(ctx context.Context, st logic.State) error
	Close() error
}

// SQLiteStore keeps the record in a single key/value table.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// OpenSQLite opens (or creates) the database at path. A database that cannot
// be opened or migrated is moved aside and recreated empty, which reads as a
// first boot.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s, err := openSQLite(ctx, path, logger)
	if err == nil {
		return s, nil
	}
	logger.Warn("state database unusable, recreating", "path", path, "error", err)
	if rerr := os.Rename(path, path+".corrupt"); rerr != nil && !os.IsNotExist(rerr) {
		return nil, fmt.Errorf("move corrupt state aside: %w", rerr)
	}
	_ = os.Remove(path + "-wal")
	_ = os.Remove(path + "-shm")
	return openSQLite(ctx, path, logger)
}

func openSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	s := &SQLiteStore{db: db, logger: logger, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	statements := []string{
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA synchronous = FULL;`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate failed: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load reads every stored row. A query failure yields the default record.
func (s *SQLiteStore) Load(ctx context.Context) logic.State {
	rows, err := s.readRows(ctx)
	if err != nil {
		s.logger.Warn("state read failed, using defaults", "error", err)
		return logic.DefaultState()
	}
	st, skipped := FromRows(rows)
	if len(skipped) > 0 {
		s.logger.Warn("state fields unreadable, using defaults", "keys", skipped)
	}
	return st
}

func (s *SQLiteStore) readRows(ctx context.Context) (map[string]Row, error) {
	rs, err := s.db.QueryContext(ctx, `SELECT key, kind, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}
	defer rs.Close()

	out := make(map[string]Row)
	for rs.Next() {
		var key, kind, value string
		if err := rs.Scan(&key, &kind, &value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		out[key] = Row{Kind: Kind(kind), Text: value}
	}
	return out, rs.Err()
}

// Save writes all fields in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, st logic.State) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stamp := s.now().UTC().Format(time.RFC3339Nano)
	for key, row := range ToRows(st) {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO settings (key, kind, value, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				kind = excluded.kind,
				value = excluded.value,
				updated_at = excluded.updated_at
		`, key, string(row.Kind), row.Text, stamp); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// writeRow stores a raw row; tests use it to plant corrupt values.
func (s *SQLiteStore) writeRow(ctx context.Context, key string, kind Kind, text string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, kind, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET kind = excluded.kind, value = excluded.value
	`, key, string(kind), text, s.now().UTC().Format(time.RFC3339Nano))
	return err
}
