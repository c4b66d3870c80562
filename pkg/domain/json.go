package domain

import "github.com/google/uuid"

// Text marshalling so ids render as canonical UUID strings in JSON payloads
// and store columns instead of raw byte arrays.

func (id UserID) MarshalText() ([]byte, error)        { return marshalUUID(uuid.UUID(id)) }
func (id SessionID) MarshalText() ([]byte, error)     { return marshalUUID(uuid.UUID(id)) }
func (id ApplicationID) MarshalText() ([]byte, error) { return marshalUUID(uuid.UUID(id)) }
func (id DocumentID) MarshalText() ([]byte, error)    { return marshalUUID(uuid.UUID(id)) }

func (id *UserID) UnmarshalText(b []byte) error {
	u, err := unmarshalUUID(b)
	*id = UserID(u)
	return err
}

func (id *SessionID) UnmarshalText(b []byte) error {
	u, err := unmarshalUUID(b)
	*id = SessionID(u)
	return err
}

func (id *ApplicationID) UnmarshalText(b []byte) error {
	u, err := unmarshalUUID(b)
	*id = ApplicationID(u)
	return err
}

func (id *DocumentID) UnmarshalText(b []byte) error {
	u, err := unmarshalUUID(b)
	*id = DocumentID(u)
	return err
}

func marshalUUID(u uuid.UUID) ([]byte, error) {
	return []byte(u.String()), nil
}

func unmarshalUUID(b []byte) (uuid.UUID, error) {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return uuid.Nil, err
	}
	return u, nil
}
