package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"govnav/internal/submission"
	id "govnav/pkg/domain"
	"govnav/pkg/platform/sentinel"
	txcontext "govnav/pkg/platform/tx"
)

// PostgresStore persists applications in PostgreSQL. Status history rides in
// a JSONB column; the unique session index enforces one application per
// session at the database level.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed application store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Create(ctx context.Context, app submission.Application) error {
	// History must round-trip as a JSON array so UpdateStatus can append.
	if app.History == nil {
		app.History = []submission.StatusChange{}
	}
	history, err := json.Marshal(app.History)
	if err != nil {
		return fmt.Errorf("marshal status history: %w", err)
	}
	query := `
		INSERT INTO applications (
			id, session_id, user_id, service_id, content_hash, external_ref,
			status, history, submitted_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT DO NOTHING
	`
	result, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(app.ID),
		uuid.UUID(app.SessionID),
		uuid.UUID(app.UserID),
		string(app.ServiceID),
		app.ContentHash,
		app.ExternalRef,
		string(app.Status),
		history,
		app.SubmittedAt,
		app.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

const applicationColumns = `
	id, session_id, user_id, service_id, content_hash, external_ref,
	status, history, submitted_at, updated_at
`

func (s *PostgresStore) Get(ctx context.Context, applicationID id.ApplicationID) (submission.Application, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1`,
		uuid.UUID(applicationID),
	)
	app, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return submission.Application{}, sentinel.ErrNotFound
		}
		return submission.Application{}, fmt.Errorf("get application: %w", err)
	}
	return app, nil
}

func (s *PostgresStore) GetBySession(ctx context.Context, sessionID id.SessionID) (submission.Application, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE session_id = $1`,
		uuid.UUID(sessionID),
	)
	app, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return submission.Application{}, sentinel.ErrNotFound
		}
		return submission.Application{}, fmt.Errorf("get application by session: %w", err)
	}
	return app, nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, applicationID id.ApplicationID, change submission.StatusChange) error {
	entry, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal status change: %w", err)
	}
	query := `
		UPDATE applications
		SET status = $2,
		    history = history || $3::jsonb,
		    updated_at = $4
		WHERE id = $1
	`
	result, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(applicationID),
		string(change.To),
		entry,
		change.At,
	)
	if err != nil {
		return fmt.Errorf("update application status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update application status: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]submission.Application, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE user_id = $1 ORDER BY submitted_at DESC`,
		uuid.UUID(userID),
	)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var out []submission.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("list applications: %w", err)
		}
		out = append(out, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (submission.Application, error) {
	var (
		app       submission.Application
		appID     uuid.UUID
		sessionID uuid.UUID
		userID    uuid.UUID
		serviceID string
		status    string
		history   []byte
	)
	err := row.Scan(
		&appID,
		&sessionID,
		&userID,
		&serviceID,
		&app.ContentHash,
		&app.ExternalRef,
		&status,
		&history,
		&app.SubmittedAt,
		&app.UpdatedAt,
	)
	if err != nil {
		return submission.Application{}, err
	}
	app.ID = id.ApplicationID(appID)
	app.SessionID = id.SessionID(sessionID)
	app.UserID = id.UserID(userID)
	app.ServiceID = id.ServiceID(serviceID)
	app.Status = submission.ApplicationStatus(status)
	if err := json.Unmarshal(history, &app.History); err != nil {
		return submission.Application{}, fmt.Errorf("unmarshal status history: %w", err)
	}
	return app, nil
}
