package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"govnav/internal/form"
	id "govnav/pkg/domain"
	"govnav/pkg/platform/sentinel"
	txcontext "govnav/pkg/platform/tx"
)

// PostgresStore persists form sessions in PostgreSQL. The optimistic version
// check is pushed into the UPDATE predicate, so concurrent writers race on a
// single row update rather than a lock.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed session store.
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

func (s *PostgresStore) Create(ctx context.Context, session form.FormSession) error {
	values, userEdited, outcomes, err := marshalSessionState(session)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO form_sessions (
			id, user_id, service_id, form_version, status, current_step,
			field_values, user_edited, outcomes, version,
			created_at, updated_at, submitted_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO NOTHING
	`
	result, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(session.ID),
		uuid.UUID(session.UserID),
		string(session.ServiceID),
		session.FormVersion,
		string(session.Status),
		session.CurrentStep,
		values,
		userEdited,
		outcomes,
		session.Version,
		session.CreatedAt,
		session.UpdatedAt,
		session.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, sessionID id.SessionID) (form.FormSession, error) {
	query := `
		SELECT id, user_id, service_id, form_version, status, current_step,
		       field_values, user_edited, outcomes, version,
		       created_at, updated_at, submitted_at
		FROM form_sessions
		WHERE id = $1
	`
	row := s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(sessionID))
	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return form.FormSession{}, sentinel.ErrNotFound
		}
		return form.FormSession{}, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

func (s *PostgresStore) Update(ctx context.Context, session form.FormSession, prev int64) error {
	values, userEdited, outcomes, err := marshalSessionState(session)
	if err != nil {
		return err
	}
	query := `
		UPDATE form_sessions
		SET status = $3, current_step = $4,
		    field_values = $5, user_edited = $6, outcomes = $7,
		    version = $8, updated_at = $9, submitted_at = $10
		WHERE id = $1 AND version = $2
	`
	result, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(session.ID),
		prev,
		string(session.Status),
		session.CurrentStep,
		values,
		userEdited,
		outcomes,
		session.Version,
		session.UpdatedAt,
		session.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if affected == 1 {
		return nil
	}

	var exists bool
	err = s.execer(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM form_sessions WHERE id = $1)`,
		uuid.UUID(session.ID),
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrConflict
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]form.FormSession, error) {
	query := `
		SELECT id, user_id, service_id, form_version, status, current_step,
		       field_values, user_edited, outcomes, version,
		       created_at, updated_at, submitted_at
		FROM form_sessions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []form.FormSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		out = append(out, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (form.FormSession, error) {
	var (
		session    form.FormSession
		sessionID  uuid.UUID
		userID     uuid.UUID
		serviceID  string
		status     string
		values     []byte
		userEdited []byte
		outcomes   []byte
	)
	err := row.Scan(
		&sessionID,
		&userID,
		&serviceID,
		&session.FormVersion,
		&status,
		&session.CurrentStep,
		&values,
		&userEdited,
		&outcomes,
		&session.Version,
		&session.CreatedAt,
		&session.UpdatedAt,
		&session.SubmittedAt,
	)
	if err != nil {
		return form.FormSession{}, err
	}
	session.ID = id.SessionID(sessionID)
	session.UserID = id.UserID(userID)
	session.ServiceID = id.ServiceID(serviceID)
	session.Status = form.SessionStatus(status)
	if err := json.Unmarshal(values, &session.Values); err != nil {
		return form.FormSession{}, fmt.Errorf("unmarshal field values: %w", err)
	}
	if err := json.Unmarshal(userEdited, &session.UserEdited); err != nil {
		return form.FormSession{}, fmt.Errorf("unmarshal user edited flags: %w", err)
	}
	if err := json.Unmarshal(outcomes, &session.Outcomes); err != nil {
		return form.FormSession{}, fmt.Errorf("unmarshal outcomes: %w", err)
	}
	return session, nil
}

func marshalSessionState(session form.FormSession) (values, userEdited, outcomes []byte, err error) {
	if values, err = json.Marshal(session.Values); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal field values: %w", err)
	}
	if userEdited, err = json.Marshal(session.UserEdited); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal user edited flags: %w", err)
	}
	if outcomes, err = json.Marshal(session.Outcomes); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal outcomes: %w", err)
	}
	return values, userEdited, outcomes, nil
}
