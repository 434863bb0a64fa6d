package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// timeLayout is used for every timestamp column.
const timeLayout = time.RFC3339Nano

// Store wraps the SQLite database holding the practice record, the check-in
// log and session events.
type Store struct {
	db     *sql.DB
	seq    *sequenceCounter
	logger *slog.Logger
	now    func() time.Time

	defaults Record
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for recoverable data problems.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithDefaultTempo sets the tempo used when no valid tempo is stored.
// Non-positive values are ignored.
func WithDefaultTempo(bpm int) Option {
	return func(s *Store) {
		if bpm > 0 {
			s.defaults.TempoBPM = bpm
		}
	}
}

// WithNow overrides the timestamp source.
func WithNow(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open creates a new Store connected to the SQLite database at dsn.
// It applies recommended pragmas and runs the embedded migrations.
func Open(dsn string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One writer at a time; the HTTP adapter and the TUI may share a store.
	db.SetMaxOpenConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if err := migrate(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	seq, err := newSequenceCounter(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{
		db:       db,
		seq:      seq,
		logger:   slog.Default(),
		now:      time.Now,
		defaults: DefaultRecord(),
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Reset clears the practice record. With all set, the check-in log and
// session events are removed too.
func (s *Store) Reset(ctx context.Context, all bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", recordKey); err != nil {
		return fmt.Errorf("reset record: %w", err)
	}
	if !all {
		return tx.Commit()
	}
	for _, q := range []string{"DELETE FROM checkins", "DELETE FROM session_events"} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
	}
	return tx.Commit()
}

// applyPragmas configures SQLite for single-user use.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// migrate applies embedded migration files in name order, once each.
func migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()

		var count int
		err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		_, err = db.ExecContext(ctx, "INSERT INTO schema_migrations (filename, applied_at) VALUES (?, ?)",
			name, time.Now().UTC().Format(timeLayout))
		if err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}
	return nil
}

// DefaultDBPath resolves the database file path in priority order:
// 1. ETUDE_DB environment variable
// 2. $XDG_DATA_HOME/etude/etude.db
// 3. ~/.local/share/etude/etude.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("ETUDE_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	p := filepath.Join(dir, "etude.db")
	return p, EnsureDir(p)
}

// DataDir returns the etude data directory without creating it.
func DataDir() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "etude"), nil
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
