// Package domain holds identifier types shared across the engine.
//
// IDs are distinct uuid.UUID newtypes so a session id can never be passed
// where an application id is expected. Parse* functions enforce the invariant
// that IDs are valid, non-nil UUIDs at trust boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "govnav/pkg/domain-errors"
)

type (
	// UserID identifies a citizen account (owned by the external identity provider).
	UserID uuid.UUID
	// SessionID identifies a form session.
	SessionID uuid.UUID
	// ApplicationID identifies a submitted application record.
	ApplicationID uuid.UUID
	// DocumentID identifies an uploaded document held by the extraction collaborator.
	DocumentID uuid.UUID
)

// ServiceID identifies a catalog service definition. Catalog ids are authored
// slugs ("housing-benefit"), not UUIDs, so the type stays a string.
type ServiceID string

// FieldID identifies a form field within a form definition.
type FieldID string

// RequirementID identifies an eligibility requirement within a service.
type RequirementID string

func (id UserID) String() string        { return uuid.UUID(id).String() }
func (id SessionID) String() string     { return uuid.UUID(id).String() }
func (id ApplicationID) String() string { return uuid.UUID(id).String() }
func (id DocumentID) String() string    { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id ApplicationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id DocumentID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// NewUserID allocates a fresh user id.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewSessionID allocates a fresh session id.
func NewSessionID() SessionID { return SessionID(uuid.New()) }

// NewApplicationID allocates a fresh application id.
func NewApplicationID() ApplicationID { return ApplicationID(uuid.New()) }

// NewDocumentID allocates a fresh document id.
func NewDocumentID() DocumentID { return DocumentID(uuid.New()) }

// ParseUserID parses and validates a user id.
func ParseUserID(raw string) (UserID, error) {
	u, err := parseUUID(raw)
	return UserID(u), err
}

// ParseSessionID parses and validates a session id.
func ParseSessionID(raw string) (SessionID, error) {
	u, err := parseUUID(raw)
	return SessionID(u), err
}

// ParseApplicationID parses and validates an application id.
func ParseApplicationID(raw string) (ApplicationID, error) {
	u, err := parseUUID(raw)
	return ApplicationID(u), err
}

// ParseDocumentID parses and validates a document id.
func ParseDocumentID(raw string) (DocumentID, error) {
	u, err := parseUUID(raw)
	return DocumentID(u), err
}

func parseUUID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is required")
	}
	u, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "id is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return u, nil
}
