package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// Validity windows for the two single-use token flows.
const (
	LoginTokenTTLMinutes = 15
	InvitationTTLHours   = 24
)

// GenerateToken returns a 32-byte random token, base64url-encoded so it
// survives being embedded in a link. The raw value is only ever sent to
// the user; the database stores HashToken(token).
func GenerateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashToken returns the hex SHA-256 of a raw token. Lookups always go
// through the hash so a database leak does not leak usable links.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
