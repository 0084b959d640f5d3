package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-pkgz/repeater/v2"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/pashkov/biliwatch/pkg/domain"
)

//go:embed schema.sql
var schemaFS embed.FS

// Store persists the per-author dedup marker and live status. Writes happen
// synchronously after each state-affecting decision, favoring
// crash-consistency over write efficiency.
type Store struct {
	db *sqlx.DB
}

// Config represents database configuration.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// New opens the database and initializes the schema.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		cfg.DSN = "file:biliwatch.db?cache=shared&mode=rwc&_txlock=immediate"
	}

	db, err := sqlx.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000", // 5 second timeout for locks
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return nil, fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, string(schema)); err != nil {
		return nil, fmt.Errorf("execute schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetMarker returns the stored last-seen id for uid, "" when the author has
// never been observed.
func (s *Store) GetMarker(ctx context.Context, uid string) (string, error) {
	var id string
	err := s.db.GetContext(ctx, &id, "SELECT last_seen_id FROM markers WHERE uid = ?", uid)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get marker for %s: %w", uid, err)
	}
	return id, nil
}

// SetMarker stores the last-seen id for uid. The marker is monotonically
// non-decreasing: an id numerically below the stored one is refused without
// error, so a stale fetch can never roll the state back.
func (s *Store) SetMarker(ctx context.Context, uid, id string) error {
	current, err := s.GetMarker(ctx, uid)
	if err != nil {
		return err
	}
	if current != "" && domain.CompareIDs(id, current) < 0 {
		return nil
	}

	return s.withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO markers (uid, last_seen_id, updated_at) VALUES (?, ?, datetime('now'))
			ON CONFLICT(uid) DO UPDATE SET last_seen_id = excluded.last_seen_id, updated_at = excluded.updated_at`,
			uid, id)
		return err
	})
}

// Markers returns the full uid -> last-seen-id mapping.
func (s *Store) Markers(ctx context.Context) (map[string]string, error) {
	rows := []struct {
		UID        string `db:"uid"`
		LastSeenID string `db:"last_seen_id"`
	}{}
	if err := s.db.SelectContext(ctx, &rows, "SELECT uid, last_seen_id FROM markers"); err != nil {
		return nil, fmt.Errorf("list markers: %w", err)
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.UID] = r.LastSeenID
	}
	return out, nil
}

// GetLive returns the stored live state for uid. The second return value is
// false when the author was never observed, which seeds without notifying.
func (s *Store) GetLive(ctx context.Context, uid string) (domain.LiveState, bool, error) {
	var row struct {
		Status  int   `db:"status"`
		StartTS int64 `db:"start_ts"`
	}
	err := s.db.GetContext(ctx, &row, "SELECT status, start_ts FROM live_status WHERE uid = ?", uid)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.LiveState{}, false, nil
	}
	if err != nil {
		return domain.LiveState{}, false, fmt.Errorf("get live state for %s: %w", uid, err)
	}
	return domain.LiveState{Status: row.Status, StartTS: row.StartTS}, true, nil
}

// SetLive stores the live state for uid.
func (s *Store) SetLive(ctx context.Context, uid string, state domain.LiveState) error {
	return s.withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO live_status (uid, status, start_ts, updated_at) VALUES (?, ?, ?, datetime('now'))
			ON CONFLICT(uid) DO UPDATE SET status = excluded.status, start_ts = excluded.start_ts, updated_at = excluded.updated_at`,
			uid, state.Status, state.StartTS)
		return err
	})
}

// errCritical is the terminal sentinel handed to repeater; Do stops retrying
// on any error matching it.
var errCritical = errors.New("critical error")

// criticalError wraps an error so repeater recognizes it as terminal.
type criticalError struct {
	err error
}

func (e *criticalError) Error() string { return e.err.Error() }

func (e *criticalError) Unwrap() error { return e.err }

// Is matches the terminal sentinel, which is how repeater's Do decides to
// stop.
func (e *criticalError) Is(target error) bool { return target == errCritical }

// withRetry retries lock/busy errors with backoff; anything else stops the
// retry loop immediately.
func (s *Store) withRetry(ctx context.Context, fn func() error) error {
	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))
	return retrier.Do(ctx, func() error {
		err := fn()
		if err != nil {
			if isLockError(err) {
				return err // repeater will retry this
			}
			return &criticalError{err: fmt.Errorf("state write: %w", err)}
		}
		return nil
	}, errCritical)
}

// isLockError checks if an error is a SQLite lock/busy error
func isLockError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "SQLITE_BUSY") ||
		strings.Contains(errStr, "database is locked") ||
		strings.Contains(errStr, "database table is locked")
}
