// Package sqlitestore keeps objects in a single SQLite database. Writes are
// compare-and-swap updates keyed on the stored version, and every applied
// write is appended to object_history with its message.
package sqlitestore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"narrate/internal/store"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Store is a SQLite-backed store.Store.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open initializes or connects to the database at dbPath.
func Open(dbPath string) (*Store, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure database directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	s := &Store{db: db, path: dbPath, now: time.Now}
	if err := s.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to recreate it)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

func (s *Store) Read(ctx context.Context, p string) (store.Object, error) {
	cleaned, err := store.CleanPath(p)
	if err != nil {
		return store.Object{}, err
	}
	var obj store.Object
	err = retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx,
			"SELECT path, content, version FROM objects WHERE path = ?", cleaned,
		).Scan(&obj.Path, &obj.Content, &obj.Version)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return store.Object{}, store.ErrNotFound
	}
	if err != nil {
		return store.Object{}, fmt.Errorf("read %s: %w", cleaned, err)
	}
	return obj, nil
}

func (s *Store) Stat(ctx context.Context, p string) (store.ObjectInfo, error) {
	cleaned, err := store.CleanPath(p)
	if err != nil {
		return store.ObjectInfo{}, err
	}
	var info store.ObjectInfo
	err = retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx,
			"SELECT path, version, size FROM objects WHERE path = ?", cleaned,
		).Scan(&info.Path, &info.Version, &info.Size)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return store.ObjectInfo{}, store.ErrNotFound
	}
	if err != nil {
		return store.ObjectInfo{}, fmt.Errorf("stat %s: %w", cleaned, err)
	}
	return info, nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]store.ObjectInfo, error) {
	dir, err := store.CleanPath(prefix)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT path, version, size FROM objects WHERE dir = ? ORDER BY path", dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	defer rows.Close()

	var out []store.ObjectInfo
	for rows.Next() {
		var info store.ObjectInfo
		if err := rows.Scan(&info.Path, &info.Version, &info.Size); err != nil {
			return nil, fmt.Errorf("scan object: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

func (s *Store) Write(ctx context.Context, req store.WriteRequest) (store.ObjectInfo, error) {
	cleaned, err := store.CleanPath(req.Path)
	if err != nil {
		return store.ObjectInfo{}, err
	}
	ifMatch := strings.TrimSpace(req.IfMatch)
	content := req.Content
	if content == nil {
		content = []byte{}
	}
	version := store.BlobVersion(content)
	info := store.ObjectInfo{Path: cleaned, Version: version, Size: int64(len(content))}
	timestamp := s.now().UTC().Format(time.RFC3339Nano)

	err = retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if ifMatch == "" {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO objects (path, dir, content, version, size, updated_at)
                 VALUES (?, ?, ?, ?, ?, ?)
                 ON CONFLICT(path) DO UPDATE SET
                    content = excluded.content,
                    version = excluded.version,
                    size = excluded.size,
                    updated_at = excluded.updated_at`,
				cleaned, path.Dir(cleaned), content, version, len(content), timestamp)
			if err != nil {
				return err
			}
		} else {
			res, err := tx.ExecContext(ctx,
				`UPDATE objects SET content = ?, version = ?, size = ?, updated_at = ?
                 WHERE path = ? AND version = ?`,
				content, version, len(content), timestamp, cleaned, ifMatch)
			if err != nil {
				return err
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if affected == 0 {
				return s.conflict(ctx, tx, cleaned, ifMatch)
			}
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO object_history (path, version, message, written_at) VALUES (?, ?, ?, ?)",
			cleaned, version, nullableString(req.Message), timestamp); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			return store.ObjectInfo{}, err
		}
		return store.ObjectInfo{}, fmt.Errorf("write %s: %w", cleaned, err)
	}
	return info, nil
}

func (s *Store) conflict(ctx context.Context, tx *sql.Tx, objectPath, expected string) error {
	var current string
	err := tx.QueryRowContext(ctx, "SELECT version FROM objects WHERE path = ?", objectPath).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	return &store.ConflictError{Path: objectPath, Expected: expected, Current: current}
}

// History returns the recorded write messages for a path, oldest first.
func (s *Store) History(ctx context.Context, p string) ([]string, error) {
	cleaned, err := store.CleanPath(p)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT COALESCE(message, '') FROM object_history WHERE path = ? ORDER BY id", cleaned)
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", cleaned, err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var msg string
		if err := rows.Scan(&msg); err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
