// Package submission coordinates idempotent form submission and tracks the
// resulting application through the external review lifecycle.
package submission

import (
	"time"

	id "govnav/pkg/domain"
)

// ApplicationStatus is the review state of a submitted application.
type ApplicationStatus string

const (
	StatusReceived       ApplicationStatus = "received"
	StatusUnderReview    ApplicationStatus = "under_review"
	StatusRequiresAction ApplicationStatus = "requires_action"
	StatusApproved       ApplicationStatus = "approved"
	StatusRejected       ApplicationStatus = "rejected"
	StatusWithdrawn      ApplicationStatus = "withdrawn"
)

// applicationTransitions is the legal transition table. Terminal statuses have
// no outgoing edges.
var applicationTransitions = map[ApplicationStatus][]ApplicationStatus{
	StatusReceived:       {StatusUnderReview, StatusRequiresAction, StatusApproved, StatusRejected, StatusWithdrawn},
	StatusUnderReview:    {StatusRequiresAction, StatusApproved, StatusRejected, StatusWithdrawn},
	StatusRequiresAction: {StatusUnderReview, StatusApproved, StatusRejected, StatusWithdrawn},
}

// CanTransitionTo reports whether moving to next is legal.
func (s ApplicationStatus) CanTransitionTo(next ApplicationStatus) bool {
	for _, allowed := range applicationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s ApplicationStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusWithdrawn
}

// ParseStatus validates a status string from the external feed.
func ParseStatus(raw string) (ApplicationStatus, bool) {
	switch status := ApplicationStatus(raw); status {
	case StatusReceived, StatusUnderReview, StatusRequiresAction,
		StatusApproved, StatusRejected, StatusWithdrawn:
		return status, true
	}
	return "", false
}

// StatusChange is one entry in an application's status history.
type StatusChange struct {
	From ApplicationStatus `json:"from"`
	To   ApplicationStatus `json:"to"`
	At   time.Time         `json:"at"`
	Note string            `json:"note,omitempty"`
}

// Application is the durable record of one accepted submission. ContentHash
// fingerprints the submitted form values; a resubmission of the same session
// with the same hash returns this record instead of creating a new one.
type Application struct {
	ID          id.ApplicationID  `json:"id"`
	SessionID   id.SessionID      `json:"session_id"`
	UserID      id.UserID         `json:"user_id"`
	ServiceID   id.ServiceID      `json:"service_id"`
	ContentHash string            `json:"content_hash"`
	ExternalRef string            `json:"external_ref,omitempty"`
	Status      ApplicationStatus `json:"status"`
	History     []StatusChange    `json:"history,omitempty"`
	SubmittedAt time.Time         `json:"submitted_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}
