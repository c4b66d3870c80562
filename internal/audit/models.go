// Package audit captures an append-only trail of engine actions: session
// lifecycle, submissions, and status changes.
package audit

import (
	"context"
	"time"

	id "govnav/pkg/domain"
)

// Action enumerates the audited engine actions.
type Action string

const (
	ActionSessionStarted     Action = "session_started"
	ActionSessionWithdrawn   Action = "session_withdrawn"
	ActionFormSubmitted      Action = "form_submitted"
	ActionStatusChanged      Action = "application_status_changed"
	ActionAutoFillApplied    Action = "autofill_applied"
	ActionSubmissionRetried  Action = "submission_retried"
	ActionSubmissionRejected Action = "submission_rejected"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp     time.Time        `json:"timestamp"`
	Action        Action           `json:"action"`
	UserID        id.UserID        `json:"user_id,omitempty"`
	SessionID     id.SessionID     `json:"session_id,omitempty"`
	ApplicationID id.ApplicationID `json:"application_id,omitempty"`
	ServiceID     id.ServiceID     `json:"service_id,omitempty"`
	Reason        string           `json:"reason,omitempty"`
	RequestID     string           `json:"request_id,omitempty"`
}

// Store persists audit events. Append-only.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID id.UserID) ([]Event, error)
}
