package store

import (
	"context"
	"database/sql"
	"fmt"
)

// EnsureSchema creates the form_sessions table if it does not exist. Invoked
// at startup and by integration tests against throwaway databases.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS form_sessions (
			id           UUID PRIMARY KEY,
			user_id      UUID NOT NULL,
			service_id   TEXT NOT NULL,
			form_version INTEGER NOT NULL,
			status       TEXT NOT NULL,
			current_step INTEGER NOT NULL DEFAULT 0,
			field_values JSONB NOT NULL DEFAULT '{}',
			user_edited  JSONB NOT NULL DEFAULT '{}',
			outcomes     JSONB NOT NULL DEFAULT '{}',
			version      BIGINT NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL,
			updated_at   TIMESTAMPTZ NOT NULL,
			submitted_at TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS form_sessions_user_idx
			ON form_sessions (user_id, created_at DESC);
	`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ensure form session schema: %w", err)
	}
	return nil
}
