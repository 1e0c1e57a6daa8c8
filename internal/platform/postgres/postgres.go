package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is applied idempotently at startup. The service owns its tables;
// there is no external migration pipeline to coordinate with.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id            UUID PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	coins         BIGINT NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS doubts (
	id           UUID PRIMARY KEY,
	title        TEXT NOT NULL,
	description  TEXT NOT NULL,
	subject      TEXT NOT NULL,
	difficulty   TEXT NOT NULL,
	status       TEXT NOT NULL,
	reward_coins BIGINT NOT NULL,
	student_id   TEXT NOT NULL,
	student_name TEXT NOT NULL,
	tutor_id     TEXT,
	tutor_name   TEXT,
	responses    BIGINT NOT NULL DEFAULT 0,
	rating       INT,
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS doubts_created_at_idx ON doubts (created_at DESC);
CREATE INDEX IF NOT EXISTS doubts_status_idx ON doubts (status);

CREATE TABLE IF NOT EXISTS quiz_attempts (
	id              UUID PRIMARY KEY,
	user_id         TEXT NOT NULL,
	user_name       TEXT NOT NULL,
	quiz_id         TEXT NOT NULL,
	topic           TEXT NOT NULL,
	score           INT NOT NULL,
	total_questions INT NOT NULL,
	time_spent      INT NOT NULL,
	coins_earned    BIGINT NOT NULL,
	completed_at    TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS quiz_attempts_user_idx ON quiz_attempts (user_id);

CREATE TABLE IF NOT EXISTS audit_events (
	id         UUID PRIMARY KEY,
	type       TEXT NOT NULL,
	actor_id   TEXT NOT NULL,
	subject_id TEXT NOT NULL,
	detail     JSONB,
	created_at TIMESTAMPTZ NOT NULL
);
`

// Connect opens a pgx pool and ensures the schema exists.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	if _, err := pool.Exec(ctx, Schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return pool, nil
}
