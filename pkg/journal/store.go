package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const defaultQueryLimit = 100

// StoreConfig contains configuration for the SQLite store.
type StoreConfig struct {
	// Path is the database file path. Parent directories are created.
	Path string

	// BusyTimeout is how long a writer waits for a locked database.
	BusyTimeout time.Duration

	// MaxOpenConns is the maximum number of open connections.
	// Default: 4
	MaxOpenConns int
}

// Store persists journal entries in SQLite using the pure-Go
// modernc.org/sqlite driver in WAL mode.
type Store struct {
	db     *sql.DB
	config StoreConfig
	logger *slog.Logger
	closed atomic.Bool
}

// Open opens or creates the journal database and applies the schema.
func Open(cfg StoreConfig, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = 4
	}
	logger = logger.With("component", "journal.store")

	if dir := filepath.Dir(cfg.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, storageError("open", err)
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)",
		cfg.Path, cfg.BusyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, storageError("open", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)

	s := &Store{db: db, config: cfg, logger: logger}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("journal opened", "path", cfg.Path)
	return s, nil
}

func (s *Store) initialize() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return storageError("create_schema", err)
	}
	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return storageError("insert_schema_version", err)
	}

	var version int
	if err := s.db.QueryRow(GetSchemaVersion).Scan(&version); err != nil {
		return storageError("get_schema_version", err)
	}
	if version != SchemaVersion {
		return storageError("schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}
	return nil
}

// Record inserts a single entry. A zero ID or Time is filled in.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	var errVal any
	if e.Error != "" {
		errVal = e.Error
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO requests (
			id, time, request_id, method, path, route, status, duration_ms, bytes_out, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.Time.UnixMilli(), e.RequestID, e.Method, e.Path, e.Route,
		e.Status, e.DurationMs, e.BytesOut, errVal,
	)
	if err != nil {
		return storageError("record", err)
	}
	return nil
}

// Query returns entries matching f, newest first.
func (s *Store) Query(ctx context.Context, f Filter) ([]Entry, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	where, args := buildWhereClause(f)
	query := "SELECT id, time, request_id, method, path, route, status, duration_ms, bytes_out, error FROM requests"
	if where != "" {
		query += " WHERE " + where
	}

	limit := defaultQueryLimit
	if f.Limit > 0 {
		limit = f.Limit
	}
	query += fmt.Sprintf(" ORDER BY time DESC, id LIMIT %d", limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageError("query", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e       Entry
			id      string
			millis  int64
			errText sql.NullString
		)
		if err := rows.Scan(&id, &millis, &e.RequestID, &e.Method, &e.Path, &e.Route,
			&e.Status, &e.DurationMs, &e.BytesOut, &errText); err != nil {
			return nil, storageError("scan", err)
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, storageError("scan", err)
		}
		e.Time = time.UnixMilli(millis)
		e.Error = errText.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("query", err)
	}

	return entries, nil
}

// Count returns the number of entries matching f. Limit is ignored.
func (s *Store) Count(ctx context.Context, f Filter) (int64, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}

	where, args := buildWhereClause(f)
	query := "SELECT COUNT(*) FROM requests"
	if where != "" {
		query += " WHERE " + where
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, storageError("count", err)
	}
	return count, nil
}

// Prune deletes entries recorded before cutoff and returns how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM requests WHERE time < ?", cutoff.UnixMilli())
	if err != nil {
		return 0, storageError("prune", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, storageError("prune", err)
	}
	return n, nil
}

// Ping verifies the database is reachable. It backs the readiness check.
func (s *Store) Ping(ctx context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := s.db.PingContext(ctx); err != nil {
		return storageError("ping", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return storageError("close", err)
	}
	s.logger.Info("journal closed")
	return nil
}

func buildWhereClause(f Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if !f.Since.IsZero() {
		conds = append(conds, "time >= ?")
		args = append(args, f.Since.UnixMilli())
	}
	if !f.Until.IsZero() {
		conds = append(conds, "time < ?")
		args = append(args, f.Until.UnixMilli())
	}
	if f.Route != "" {
		conds = append(conds, "route = ?")
		args = append(args, f.Route)
	}
	if f.MinStatus > 0 {
		conds = append(conds, "status >= ?")
		args = append(args, f.MinStatus)
	}

	return strings.Join(conds, " AND "), args
}
