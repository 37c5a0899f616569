package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

const resetKeyBytes = 16

// GenerateResetKey returns the static per-user secret that authorizes a
// password reset without a session.
func GenerateResetKey() (string, error) {
	buf := make([]byte, resetKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate reset key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// ResetKeyMatches compares in constant time. An empty stored key never matches.
func ResetKeyMatches(candidate string, stored string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(stored)) == 1
}
