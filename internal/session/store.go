package session

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store archives terminated sessions to SQLite so non-convergence can be
// diagnosed after the fact (`assetgate history`).
type Store struct {
	conn *sql.DB
	path string
	mu   sync.RWMutex
}

// DefaultStorePath returns the per-user history database path.
func DefaultStorePath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "assetgate", "history.db")
}

// OpenStore opens (creating if needed) the history database at path and
// applies pending migrations. WAL mode is enabled for concurrent reads.
func OpenStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	s := &Store{conn: conn, path: path}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate applies pending schema migrations.
func (s *Store) migrate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var currentVersion int
	row := s.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationV1Sessions},
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := s.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration v%d: %w", m.version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration v%d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration v%d: %w", m.version, err)
		}
	}
	return nil
}

const migrationV1Sessions = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	scene TEXT NOT NULL,
	outcome TEXT NOT NULL,
	iterations INTEGER NOT NULL DEFAULT 0,
	errors_remaining INTEGER NOT NULL DEFAULT 0,
	started_at DATETIME NOT NULL,
	finished_at DATETIME NOT NULL,
	report_json TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_scene ON sessions(scene);
CREATE INDEX IF NOT EXISTS idx_sessions_outcome ON sessions(outcome);
`

// ArchivedSession is one stored session row.
type ArchivedSession struct {
	// ID is the session identifier.
	ID string
	// Scene is the scene file the session ran against.
	Scene string
	// Outcome is the terminal session state.
	Outcome string
	// Iterations is the number of validation passes performed.
	Iterations int
	// ErrorsRemaining counts unresolved error violations at termination.
	ErrorsRemaining int
	// StartedAt and FinishedAt bound the session.
	StartedAt  time.Time
	FinishedAt time.Time
	// ReportJSON is the serialized final report.
	ReportJSON string
}

// Save archives a terminated session with its serialized final report.
func (s *Store) Save(scenePath string, sess *Session, reportJSON []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.conn.Exec(`
		INSERT INTO sessions (id, scene, outcome, iterations, errors_remaining, started_at, finished_at, report_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		sess.ID,
		scenePath,
		string(sess.Outcome),
		sess.Iterations,
		len(sess.Unresolved()),
		formatTime(sess.StartedAt),
		formatTime(sess.FinishedAt),
		string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("archive session %s: %w", sess.ID, err)
	}
	return nil
}

// Recent returns the most recently finished sessions, newest first.
func (s *Store) Recent(limit int) ([]ArchivedSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.conn.Query(`
		SELECT id, scene, outcome, iterations, errors_remaining, started_at, finished_at, report_json
		FROM sessions
		ORDER BY finished_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []ArchivedSession
	for rows.Next() {
		var (
			a                  ArchivedSession
			started, finished string
		)
		if err := rows.Scan(&a.ID, &a.Scene, &a.Outcome, &a.Iterations, &a.ErrorsRemaining, &started, &finished, &a.ReportJSON); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		a.StartedAt, _ = parseTime(started)
		a.FinishedAt, _ = parseTime(finished)
		out = append(out, a)
	}
	return out, rows.Err()
}

// PurgeOlderThan deletes sessions finished before the cutoff. Returns the
// number of rows deleted.
func (s *Store) PurgeOlderThan(age time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := formatTime(time.Now().Add(-age))
	result, err := s.conn.Exec("DELETE FROM sessions WHERE finished_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return result.RowsAffected()
}

// formatTime formats a time.Time for SQLite storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseTime parses a time string from SQLite.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
