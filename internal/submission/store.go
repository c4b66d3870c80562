package submission

import (
	"context"
	"time"

	id "govnav/pkg/domain"
)

// ApplicationStore persists applications.
type ApplicationStore interface {
	// Create stores a new application. Returns sentinel.ErrConflict if the id
	// exists.
	Create(ctx context.Context, app Application) error

	// Get returns an application, or sentinel.ErrNotFound.
	Get(ctx context.Context, applicationID id.ApplicationID) (Application, error)

	// GetBySession returns the application submitted from a session, or
	// sentinel.ErrNotFound.
	GetBySession(ctx context.Context, sessionID id.SessionID) (Application, error)

	// UpdateStatus moves the application to a new status and appends the
	// change to its history.
	UpdateStatus(ctx context.Context, applicationID id.ApplicationID, change StatusChange) error

	// ListByUser returns the user's applications, newest first.
	ListByUser(ctx context.Context, userID id.UserID) ([]Application, error)
}

// IdempotencyStore is the short-lived in-flight lock for submission attempts.
// Reserve is first-writer-wins: exactly one concurrent caller per key gets
// true. The reservation expires on its own; Release frees it early when an
// attempt fails before the application is recorded.
type IdempotencyStore interface {
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}
