package submission

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"

	"govnav/internal/form"
	id "govnav/pkg/domain"
)

// ContentHash fingerprints a session's field values: the values are rendered
// as RFC 8785 canonical JSON and hashed with SHA-256. Key order and
// insignificant whitespace never change the hash, so two submissions of the
// same values always collide and a single changed value never does.
func ContentHash(values map[id.FieldID]form.FieldValue) (string, error) {
	raw, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("marshal field values: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize field values: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// IdempotencyKey scopes a submission attempt to one session and one content
// fingerprint.
func IdempotencyKey(sessionID id.SessionID, contentHash string) string {
	return sessionID.String() + ":" + contentHash
}
