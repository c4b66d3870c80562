package handler

import (
	"time"

	"govnav/internal/form"
	id "govnav/pkg/domain"
)

// StartSessionRequest is the POST /forms/sessions body.
type StartSessionRequest struct {
	UserID    string `json:"user_id"`
	ServiceID string `json:"service_id"`
}

// UpdateFieldRequest is the PUT .../fields/{fieldID} body. Version is the
// session version the caller last observed.
type UpdateFieldRequest struct {
	Value   form.FieldValue `json:"value"`
	Version int64           `json:"version"`
}

// AutoFillRequest is the POST .../autofill body. Source is "document" or
// "profile"; document_id is required for the document source.
type AutoFillRequest struct {
	Source     string `json:"source"`
	DocumentID string `json:"document_id,omitempty"`
}

// SessionResponse is the wire shape of a form session.
type SessionResponse struct {
	ID          id.SessionID                   `json:"id"`
	UserID      id.UserID                      `json:"user_id"`
	ServiceID   id.ServiceID                   `json:"service_id"`
	FormVersion int                            `json:"form_version"`
	Status      form.SessionStatus             `json:"status"`
	CurrentStep int                            `json:"current_step"`
	Values      map[id.FieldID]form.FieldValue `json:"values"`
	Outcomes    map[id.FieldID]form.Outcome    `json:"outcomes,omitempty"`
	Version     int64                          `json:"version"`
	Progress    *int                           `json:"progress,omitempty"`
	CreatedAt   time.Time                      `json:"created_at"`
	UpdatedAt   time.Time                      `json:"updated_at"`
	SubmittedAt *time.Time                     `json:"submitted_at,omitempty"`
}

func toSessionResponse(session form.FormSession) SessionResponse {
	return SessionResponse{
		ID:          session.ID,
		UserID:      session.UserID,
		ServiceID:   session.ServiceID,
		FormVersion: session.FormVersion,
		Status:      session.Status,
		CurrentStep: session.CurrentStep,
		Values:      session.Values,
		Outcomes:    session.Outcomes,
		Version:     session.Version,
		CreatedAt:   session.CreatedAt,
		UpdatedAt:   session.UpdatedAt,
		SubmittedAt: session.SubmittedAt,
	}
}

// ListSessionsResponse wraps a user's sessions.
type ListSessionsResponse struct {
	Sessions []SessionResponse `json:"sessions"`
	Count    int               `json:"count"`
}

// UpdateFieldResponse reports a field update. Applied false means validation
// rejected the value and the session is unchanged.
type UpdateFieldResponse struct {
	Applied bool            `json:"applied"`
	Outcome form.Outcome    `json:"outcome"`
	Session SessionResponse `json:"session"`
}

// AutoFillResponse reports the merge outcome per candidate field.
type AutoFillResponse struct {
	Applied []id.FieldID          `json:"applied"`
	Skipped map[id.FieldID]string `json:"skipped,omitempty"`
	Session SessionResponse       `json:"session"`
}
