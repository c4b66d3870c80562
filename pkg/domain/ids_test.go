package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "govnav/pkg/domain-errors"
)

func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseUserID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseSessionID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseApplicationID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		parsed, err := ParseUserID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, UserID(valid), parsed)
	})
}

func TestNewIDs_NotNil(t *testing.T) {
	assert.False(t, NewUserID().IsNil())
	assert.False(t, NewSessionID().IsNil())
	assert.False(t, NewApplicationID().IsNil())
	assert.False(t, NewDocumentID().IsNil())
}

func TestIDs_JSONRoundTrip(t *testing.T) {
	sessionID := NewSessionID()

	raw, err := json.Marshal(sessionID)
	require.NoError(t, err)
	assert.Equal(t, `"`+sessionID.String()+`"`, string(raw))

	var decoded SessionID
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, sessionID, decoded)
}

func FuzzParseSessionID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add("550e8400-e29b-41d4-a716-446655440000 ")

	f.Fuzz(func(t *testing.T, input string) {
		parsed, err := ParseSessionID(input)
		if err == nil && parsed.IsNil() {
			t.Errorf("ParseSessionID(%q) returned nil id without error", input)
		}
		if err != nil && !parsed.IsNil() {
			t.Errorf("ParseSessionID(%q) returned id %s alongside error", input, parsed)
		}
	})
}
