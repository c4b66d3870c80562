// Package form drives multi-step form sessions: field validation, versioned
// updates, auto-fill merging, and the session state machine.
package form

import (
	"time"

	"govnav/internal/catalog"
	id "govnav/pkg/domain"
)

// SessionStatus is the lifecycle state of a form session.
type SessionStatus string

const (
	StatusDraft          SessionStatus = "draft"
	StatusInProgress     SessionStatus = "in_progress"
	StatusReadyForReview SessionStatus = "ready_for_review"
	StatusSubmitted      SessionStatus = "submitted"
	StatusUnderReview    SessionStatus = "under_review"
	StatusRequiresAction SessionStatus = "requires_action"
	StatusApproved       SessionStatus = "approved"
	StatusRejected       SessionStatus = "rejected"
	StatusWithdrawn      SessionStatus = "withdrawn"
)

// sessionTransitions is the legal transition table. Post-submission
// transitions are driven by the external status feed, never by field updates.
var sessionTransitions = map[SessionStatus][]SessionStatus{
	StatusDraft:          {StatusInProgress, StatusReadyForReview},
	StatusInProgress:     {StatusReadyForReview},
	StatusReadyForReview: {StatusInProgress, StatusSubmitted},
	StatusSubmitted:      {StatusUnderReview, StatusRequiresAction, StatusApproved, StatusRejected},
	StatusUnderReview:    {StatusRequiresAction, StatusApproved, StatusRejected, StatusWithdrawn},
	StatusRequiresAction: {StatusUnderReview, StatusApproved, StatusRejected, StatusWithdrawn},
}

// CanTransitionTo reports whether moving to next is legal.
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	for _, allowed := range sessionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s SessionStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusWithdrawn
}

// Closed reports whether field mutation is no longer allowed. A session is
// immutable from the moment it is submitted.
func (s SessionStatus) Closed() bool {
	switch s {
	case StatusDraft, StatusInProgress, StatusReadyForReview:
		return false
	}
	return true
}

// FieldValue is a raw field value as supplied by the caller: string, float64,
// bool, or []string for multiselect (the JSON decoding shapes).
type FieldValue = any

// FormSession is the mutable state of one form-filling session. Every
// accepted mutation increments Version; writers must present the version they
// last observed (optimistic concurrency).
type FormSession struct {
	ID          id.SessionID
	UserID      id.UserID
	ServiceID   id.ServiceID
	FormVersion int
	Status      SessionStatus
	CurrentStep int
	Values      map[id.FieldID]FieldValue
	UserEdited  map[id.FieldID]bool
	Outcomes    map[id.FieldID]Outcome
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	SubmittedAt *time.Time
}

// NewSession creates a Draft session for a form definition.
func NewSession(userID id.UserID, serviceID id.ServiceID, formVersion int, now time.Time) FormSession {
	return FormSession{
		ID:          id.NewSessionID(),
		UserID:      userID,
		ServiceID:   serviceID,
		FormVersion: formVersion,
		Status:      StatusDraft,
		Values:      make(map[id.FieldID]FieldValue),
		UserEdited:  make(map[id.FieldID]bool),
		Outcomes:    make(map[id.FieldID]Outcome),
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Clone deep-copies the session so stores can hand out snapshots that callers
// cannot use to corrupt shared state.
func (s FormSession) Clone() FormSession {
	out := s
	out.Values = make(map[id.FieldID]FieldValue, len(s.Values))
	for k, v := range s.Values {
		out.Values[k] = v
	}
	out.UserEdited = make(map[id.FieldID]bool, len(s.UserEdited))
	for k, v := range s.UserEdited {
		out.UserEdited[k] = v
	}
	out.Outcomes = make(map[id.FieldID]Outcome, len(s.Outcomes))
	for k, v := range s.Outcomes {
		out.Outcomes[k] = v
	}
	if s.SubmittedAt != nil {
		t := *s.SubmittedAt
		out.SubmittedAt = &t
	}
	return out
}

// Progress computes completion as valid-required / total-required × 100,
// derived from current values on every call. Progress is never stored, so it
// cannot drift from the field values it summarizes.
func Progress(form *catalog.FormDefinition, session FormSession) int {
	total := form.RequiredFieldCount()
	if total == 0 {
		return 100
	}
	valid := 0
	for _, fld := range form.Fields() {
		if !fld.Required {
			continue
		}
		value, ok := session.Values[fld.ID]
		if !ok {
			continue
		}
		if Validate(fld, value).Valid {
			valid++
		}
	}
	return valid * 100 / total
}

// CurrentStepIndex derives the step the applicant should be working on: the
// first step holding a required field whose value is missing or invalid. A
// session whose required fields are all satisfied points at the last step.
func CurrentStepIndex(form *catalog.FormDefinition, session FormSession) int {
	for i, step := range form.Steps {
		for _, fld := range step.Fields {
			if !fld.Required {
				continue
			}
			value, ok := session.Values[fld.ID]
			if !ok || !Validate(fld, value).Valid {
				return i
			}
		}
	}
	if len(form.Steps) == 0 {
		return 0
	}
	return len(form.Steps) - 1
}

// FormValidationResult is the outcome of full-form validation.
type FormValidationResult struct {
	Valid    bool                   `json:"valid"`
	Progress int                    `json:"progress"`
	Fields   map[id.FieldID]Outcome `json:"fields"`
}
