package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/dom/auth-gateway/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// GoogleJWKSURL is Google's published OIDC signing-key endpoint.
const GoogleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"

// Google historically issues tokens under both forms.
var googleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

// GoogleVerifier validates Google-issued ID tokens: RS256 signature
// against the published JWKS, issuer, audience and expiry.
type GoogleVerifier struct {
	clientID string
	keys     *KeySet
}

func NewGoogleVerifier(clientID string, keys *KeySet) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID, keys: keys}
}

func (v *GoogleVerifier) Verify(ctx context.Context, assertion string) (*Identity, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(assertion, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.New("unexpected signing method")
		}
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token missing key id")
		}
		return v.keys.Key(kid)
	}, jwt.WithAudience(v.clientID), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, domain.ErrUpstreamUnavailable) {
			return nil, err
		}
		// Collapse signature/audience/expiry detail into one error.
		return nil, fmt.Errorf("%w: google token rejected", domain.ErrInvalidAssertion)
	}

	issuer, _ := claims["iss"].(string)
	if !validGoogleIssuer(issuer) {
		return nil, fmt.Errorf("%w: google token rejected", domain.ErrInvalidAssertion)
	}

	return identityFromClaims(claims)
}

func validGoogleIssuer(issuer string) bool {
	for _, iss := range googleIssuers {
		if issuer == iss {
			return true
		}
	}
	return false
}

func identityFromClaims(claims jwt.MapClaims) (*Identity, error) {
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("%w: missing subject", domain.ErrInvalidAssertion)
	}

	email, _ := claims["email"].(string)
	if email == "" {
		return nil, fmt.Errorf("%w: missing email", domain.ErrInvalidAssertion)
	}

	verified, _ := claims["email_verified"].(bool)
	name, _ := claims["name"].(string)
	picture, _ := claims["picture"].(string)

	return &Identity{
		SubjectID:     sub,
		Email:         email,
		EmailVerified: verified,
		Name:          name,
		AvatarURL:     picture,
	}, nil
}
