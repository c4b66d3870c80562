package form

import (
	"context"

	id "govnav/pkg/domain"
)

// SessionStore persists form sessions. Implementations must enforce the
// optimistic version check on Update: the write succeeds only when the stored
// version equals prev, otherwise sentinel.ErrConflict is returned.
type SessionStore interface {
	// Create stores a new session. Returns sentinel.ErrConflict if the id exists.
	Create(ctx context.Context, session FormSession) error

	// Get returns a snapshot of the session, or sentinel.ErrNotFound.
	Get(ctx context.Context, sessionID id.SessionID) (FormSession, error)

	// Update replaces the stored session iff the stored version equals prev.
	Update(ctx context.Context, session FormSession, prev int64) error

	// ListByUser returns the user's sessions, newest first.
	ListByUser(ctx context.Context, userID id.UserID) ([]FormSession, error)
}
