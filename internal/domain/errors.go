package domain

import "errors"

// Authentication error taxonomy. Handlers map these onto HTTP status
// classes; services never return raw provider or store errors upward.
var (
	// Policy errors (forbidden)
	ErrProviderDisabled     = errors.New("authentication provider is disabled")
	ErrRegistrationDisabled = errors.New("registration is disabled")

	// Authentication errors (unauthorized). ErrInvalidCredentials covers
	// missing user, passwordless account and hash mismatch alike so the
	// response cannot be used to probe for accounts.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrInvalidSession     = errors.New("invalid session token")

	// Validation errors (bad request)
	ErrInvalidToken     = errors.New("invalid or expired token")
	ErrInvalidAssertion = errors.New("invalid identity assertion")

	// Conflict / not found
	ErrEmailExists  = errors.New("email already registered")
	ErrUserNotFound = errors.New("user not found")

	// Upstream errors (service unavailable, safe to retry)
	ErrUpstreamUnavailable = errors.New("identity provider unavailable")
)
