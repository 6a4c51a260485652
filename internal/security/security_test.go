package security_test

import (
	"testing"

	"github.com/dom/auth-gateway/internal/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := security.HashPassword("pw123")
	require.NoError(t, err)
	assert.NotEqual(t, "pw123", hash)

	assert.True(t, security.VerifyPassword("pw123", hash))
	assert.False(t, security.VerifyPassword("wrong", hash))
	assert.False(t, security.VerifyPassword("pw123", "not-a-hash"))
}

func TestGenerateToken(t *testing.T) {
	first, err := security.GenerateToken(32)
	require.NoError(t, err)

	second, err := security.GenerateToken(32)
	require.NoError(t, err)

	// 32 bytes of entropy base64url-encode to 43 characters.
	assert.Len(t, first, 43)
	assert.NotEqual(t, first, second)
}
