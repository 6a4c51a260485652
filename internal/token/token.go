package token

import (
	"errors"
	"time"

	"github.com/dom/auth-gateway/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind selects the expiry window of a session token. The kind is embedded
// as a claim so a refresh token cannot be replayed as an access token.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Pair is the session token pair returned by every login path.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// Codec signs and verifies stateless session tokens with a shared secret.
type Codec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewCodec(secret string, accessTTL, refreshTTL time.Duration) *Codec {
	return &Codec{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (c *Codec) ttl(kind Kind) time.Duration {
	if kind == KindRefresh {
		return c.refreshTTL
	}
	return c.accessTTL
}

// Issue mints a signed token carrying the user id and an absolute expiry.
func (c *Codec) Issue(userID uuid.UUID, kind Kind) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  userID.String(),
		"type": string(kind),
		"iat":  now.Unix(),
		"exp":  now.Add(c.ttl(kind)).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// IssuePair mints a fresh access+refresh pair for the user.
func (c *Codec) IssuePair(userID uuid.UUID) (*Pair, error) {
	access, err := c.Issue(userID, KindAccess)
	if err != nil {
		return nil, err
	}

	refresh, err := c.Issue(userID, KindRefresh)
	if err != nil {
		return nil, err
	}

	return &Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int(c.accessTTL.Seconds()),
	}, nil
}

// Verify checks signature, structure, expiry and kind, and returns the
// subject user id. Any failure collapses to ErrInvalidSession.
func (c *Codec) Verify(tokenString string, kind Kind) (uuid.UUID, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return c.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return uuid.Nil, domain.ErrInvalidSession
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, domain.ErrInvalidSession
	}

	if typ, _ := claims["type"].(string); typ != string(kind) {
		return uuid.Nil, domain.ErrInvalidSession
	}

	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, domain.ErrInvalidSession
	}

	return userID, nil
}
