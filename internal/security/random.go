package security

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateToken returns a URL-safe random token with nbytes of entropy.
func GenerateToken(nbytes int) (string, error) {
	b := make([]byte, nbytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
