package apikeys

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// APIKey is a long-lived machine credential. The token is generated once at
// creation and is immutable thereafter.
type APIKey struct {
	ID        int64
	Name      string
	Token     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GenerateToken returns a new cryptographically random token, 16 bytes
// hex-encoded.
func GenerateToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("apikeys: generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
