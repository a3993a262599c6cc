package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS profiles (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL DEFAULT '',
	first_name TEXT NOT NULL DEFAULT '',
	last_name TEXT NOT NULL DEFAULT '',
	date_of_birth TEXT NOT NULL DEFAULT '',
	avatar_url TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_profiles_username ON profiles(username) WHERE username <> '';

CREATE TABLE IF NOT EXISTS bolt_scores (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	score_seconds INTEGER NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_bolt_scores_user ON bolt_scores(user_id, created_at);

CREATE TABLE IF NOT EXISTS breathing_goals (
	id TEXT PRIMARY KEY,
	slug TEXT NOT NULL UNIQUE,
	display_name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS breathing_steps (
	id TEXT PRIMARY KEY,
	inhale_method TEXT NOT NULL DEFAULT '',
	inhale_secs INTEGER NOT NULL,
	hold_in_secs INTEGER NOT NULL DEFAULT 0,
	exhale_method TEXT NOT NULL DEFAULT '',
	exhale_secs INTEGER NOT NULL,
	hold_out_secs INTEGER NOT NULL DEFAULT 0,
	cue_text TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS breathing_patterns (
	id TEXT PRIMARY KEY,
	slug TEXT NOT NULL DEFAULT '',
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	goal_id TEXT REFERENCES breathing_goals(id),
	recommended_minutes INTEGER NOT NULL DEFAULT 0,
	cycle_secs INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS breathing_pattern_steps (
	pattern_id TEXT NOT NULL REFERENCES breathing_patterns(id),
	step_id TEXT,
	position INTEGER NOT NULL,
	repetitions INTEGER NOT NULL DEFAULT 1,
	PRIMARY KEY (pattern_id, position)
);

CREATE TABLE IF NOT EXISTS breathing_pattern_status (
	user_id TEXT NOT NULL,
	pattern_id TEXT NOT NULL,
	last_run DATETIME NOT NULL,
	total_runs INTEGER NOT NULL DEFAULT 1,
	PRIMARY KEY (user_id, pattern_id)
);
`

type SQLiteRepository struct {
	*sqlRepository
}

// NewSQLiteRepository opens dbPath in WAL mode. ":memory:" is accepted for
// throwaway stores.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	dsn := dbPath
	if !strings.Contains(dsn, "?") {
		dsn += "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=ON"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	db.SetMaxOpenConns(1) // one writer at a time

	core, err := newSQLRepository(db, dialect{
		name:     "sqlite",
		schema:   sqliteSchema,
		isUnique: sqliteUnique,
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteRepository{sqlRepository: core}, nil
}

func sqliteUnique(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
		se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
