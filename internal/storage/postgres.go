package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS profiles (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL DEFAULT '',
	first_name TEXT NOT NULL DEFAULT '',
	last_name TEXT NOT NULL DEFAULT '',
	date_of_birth TEXT NOT NULL DEFAULT '',
	avatar_url TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_profiles_username ON profiles(username) WHERE username <> '';

CREATE TABLE IF NOT EXISTS bolt_scores (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	score_seconds INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
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
	created_at TIMESTAMPTZ NOT NULL
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
	last_run TIMESTAMPTZ NOT NULL,
	total_runs INTEGER NOT NULL DEFAULT 1,
	PRIMARY KEY (user_id, pattern_id)
);
`

type PostgresRepository struct {
	*sqlRepository
}

func NewPostgresRepository(connStr string) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	core, err := newSQLRepository(db, dialect{
		name:        "postgres",
		schema:      postgresSchema,
		placeholder: dollarPlaceholder,
		isUnique:    postgresUnique,
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &PostgresRepository{sqlRepository: core}, nil
}

func postgresUnique(err error) bool {
	var pe *pq.Error
	return errors.As(err, &pe) && pe.Code == "23505"
}
