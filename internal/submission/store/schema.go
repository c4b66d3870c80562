package store

import (
	"context"
	"database/sql"
	"fmt"
)

// EnsureSchema creates the applications table if it does not exist. Invoked
// at startup and by integration tests against throwaway databases.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS applications (
			id           UUID PRIMARY KEY,
			session_id   UUID NOT NULL UNIQUE,
			user_id      UUID NOT NULL,
			service_id   TEXT NOT NULL,
			content_hash TEXT NOT NULL,
			external_ref TEXT NOT NULL DEFAULT '',
			status       TEXT NOT NULL,
			history      JSONB NOT NULL DEFAULT '[]',
			submitted_at TIMESTAMPTZ NOT NULL,
			updated_at   TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS applications_user_idx
			ON applications (user_id, submitted_at DESC);
	`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ensure application schema: %w", err)
	}
	return nil
}
