package token_test

import (
	"testing"
	"time"

	"github.com/dom/auth-gateway/internal/domain"
	"github.com/dom/auth-gateway/internal/token"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

func newCodec() *token.Codec {
	return token.NewCodec(testSecret, 30*time.Minute, 7*24*time.Hour)
}

func TestCodec_IssuePair(t *testing.T) {
	codec := newCodec()
	userID := uuid.New()

	pair, err := codec.IssuePair(userID)
	require.NoError(t, err)

	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	assert.Equal(t, "bearer", pair.TokenType)
	assert.Equal(t, int((30 * time.Minute).Seconds()), pair.ExpiresIn)

	gotAccess, err := codec.Verify(pair.AccessToken, token.KindAccess)
	require.NoError(t, err)
	assert.Equal(t, userID, gotAccess)

	gotRefresh, err := codec.Verify(pair.RefreshToken, token.KindRefresh)
	require.NoError(t, err)
	assert.Equal(t, userID, gotRefresh)
}

func TestCodec_KindConfusion(t *testing.T) {
	codec := newCodec()
	pair, err := codec.IssuePair(uuid.New())
	require.NoError(t, err)

	// A refresh token must not pass as an access token, nor the reverse.
	_, err = codec.Verify(pair.RefreshToken, token.KindAccess)
	assert.ErrorIs(t, err, domain.ErrInvalidSession)

	_, err = codec.Verify(pair.AccessToken, token.KindRefresh)
	assert.ErrorIs(t, err, domain.ErrInvalidSession)
}

func TestCodec_Expired(t *testing.T) {
	expired := token.NewCodec(testSecret, -time.Minute, -time.Minute)
	tokenString, err := expired.Issue(uuid.New(), token.KindAccess)
	require.NoError(t, err)

	_, err = newCodec().Verify(tokenString, token.KindAccess)
	assert.ErrorIs(t, err, domain.ErrInvalidSession)
}

func TestCodec_WrongSecret(t *testing.T) {
	other := token.NewCodec("a-different-secret", 30*time.Minute, 24*time.Hour)
	tokenString, err := other.Issue(uuid.New(), token.KindAccess)
	require.NoError(t, err)

	_, err = newCodec().Verify(tokenString, token.KindAccess)
	assert.ErrorIs(t, err, domain.ErrInvalidSession)
}

func TestCodec_Malformed(t *testing.T) {
	codec := newCodec()

	for _, tokenString := range []string{"", "garbage", "a.b.c"} {
		_, err := codec.Verify(tokenString, token.KindAccess)
		assert.ErrorIs(t, err, domain.ErrInvalidSession)
	}
}
