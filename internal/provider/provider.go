// Package provider verifies externally-issued identity assertions and
// normalizes them into a provider-independent identity record.
package provider

import "context"

// Identity is the normalized output every federated verifier produces.
type Identity struct {
	SubjectID     string
	Email         string
	EmailVerified bool
	Name          string
	AvatarURL     string
}

// Verifier validates a provider-issued assertion against that provider's
// trust anchors. Failures wrap domain.ErrInvalidAssertion for content
// problems and domain.ErrUpstreamUnavailable for key-fetch problems, so
// callers can tell a retryable outage from a bad token.
type Verifier interface {
	Verify(ctx context.Context, assertion string) (*Identity, error)
}
