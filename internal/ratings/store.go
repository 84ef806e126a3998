package ratings

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nickcrew/claude-ctx/internal/ctxerr"
	"github.com/nickcrew/claude-ctx/internal/logging"
)

// Store is the SQLite-backed Ratings Store, grounded in
// internal/northstar/store.go's connection and schema conventions.
// Every write goes through a single in-process mutex even though
// SQLite's WAL mode already serializes writers, matching the
// single-writer discipline spec §5 requires of the whole component.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// Open creates or opens the ratings database at dbPath.
func Open(dbPath string) (*Store, error) {
	timer := logging.StartTimer(logging.CategoryRatings, "Open")
	defer timer.Stop()

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, ctxerr.Wrap(ctxerr.IO, err, "creating ratings directory")
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, ctxerr.Wrap(ctxerr.IO, err, "opening ratings database")
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, dbPath: dbPath}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing ratings schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS recommendations (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp     DATETIME NOT NULL,
		context_hash  TEXT NOT NULL,
		skill_name    TEXT NOT NULL,
		confidence    REAL NOT NULL,
		reason        TEXT,
		source        TEXT NOT NULL,
		auto_activate INTEGER NOT NULL DEFAULT 0,
		was_accepted  INTEGER,
		was_applied   INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_recommendations_ts_ctx ON recommendations(timestamp, context_hash);

	CREATE TABLE IF NOT EXISTS ratings (
		skill_name     TEXT NOT NULL,
		user_hash      TEXT NOT NULL,
		stars          INTEGER NOT NULL,
		timestamp      DATETIME NOT NULL,
		project_type   TEXT,
		review         TEXT,
		was_helpful    INTEGER NOT NULL DEFAULT 0,
		task_succeeded INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (skill_name, user_hash)
	);
	CREATE INDEX IF NOT EXISTS idx_ratings_skill_name ON ratings(skill_name);

	CREATE TABLE IF NOT EXISTS quality_metrics (
		skill_name                      TEXT PRIMARY KEY,
		avg_rating                      REAL NOT NULL DEFAULT 0,
		total_ratings                   INTEGER NOT NULL DEFAULT 0,
		helpful_percentage              REAL NOT NULL DEFAULT 0,
		success_correlation_percentage  REAL NOT NULL DEFAULT 0,
		token_efficiency_percentage     REAL,
		usage_count                     INTEGER NOT NULL DEFAULT 0,
		last_updated                    DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS token_samples (
		skill_name          TEXT NOT NULL,
		timestamp           DATETIME NOT NULL,
		baseline_tokens     INTEGER NOT NULL,
		actual_tokens       INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_token_samples_skill ON token_samples(skill_name);
	`
	_, err := s.db.Exec(schema)
	return err
}
