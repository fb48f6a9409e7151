package driver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool connects to Postgres and verifies the connection.
func NewPool(ctx context.Context, dsn string, logger *slog.Logger) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.InfoContext(ctx, "database connection pool established")

	return pool, nil
}

// EnsureSchema creates the summary and feedback tables if they do not exist.
// The summary body lives in an encrypted payload column; the plaintext
// columns exist only for listing and filtering.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const schema = `
CREATE TABLE IF NOT EXISTS email_summaries (
	message_id    TEXT PRIMARY KEY,
	sender        TEXT NOT NULL,
	subject       TEXT NOT NULL,
	received_at   TIMESTAMPTZ NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL,
	model_used    TEXT NOT NULL,
	has_actions   BOOLEAN NOT NULL DEFAULT FALSE,
	has_deadlines BOOLEAN NOT NULL DEFAULT FALSE,
	payload       BYTEA NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_email_summaries_received_at
	ON email_summaries (received_at DESC);

CREATE TABLE IF NOT EXISTS summary_feedback (
	message_id TEXT PRIMARY KEY REFERENCES email_summaries(message_id) ON DELETE CASCADE,
	rating     SMALLINT NOT NULL,
	comment    TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);`

	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}

	return nil
}
