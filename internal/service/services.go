package service

import (
	"github.com/dom/auth-gateway/internal/config"
	"github.com/dom/auth-gateway/internal/domain"
	"github.com/dom/auth-gateway/internal/mail"
	"github.com/dom/auth-gateway/internal/provider"
	"github.com/dom/auth-gateway/internal/repository"
	"github.com/dom/auth-gateway/internal/token"
	"go.uber.org/zap"
)

type Services struct {
	Auth      *AuthService
	MagicLink *MagicLinkService
	Federated *FederatedService
}

func NewServices(repos *repository.Repositories, cfg *config.Config, sender mail.Sender, log *zap.Logger) *Services {
	codec := token.NewCodec(cfg.JWTSecret, cfg.AccessTokenExpiry, cfg.RefreshTokenExpiry)

	// Verifiers exist only for providers the policy activates; a login
	// against a missing verifier is rejected as disabled before any
	// verification work.
	verifiers := make(map[domain.Provider]provider.Verifier)
	if cfg.Providers.Google.Active() {
		verifiers[domain.ProviderGoogle] = provider.NewGoogleVerifier(
			cfg.Providers.Google.ClientID,
			provider.NewKeySet(provider.GoogleJWKSURL),
		)
	}
	if cfg.Providers.Apple.Active() {
		verifiers[domain.ProviderApple] = provider.NewAppleVerifier(
			cfg.Providers.Apple.ClientID,
			provider.NewKeySet(provider.AppleJWKSURL),
			cfg.Debug,
			cfg.IsProduction(),
		)
	}

	return &Services{
		Auth:      NewAuthService(repos.User, codec, cfg, log),
		MagicLink: NewMagicLinkService(repos.User, codec, sender, cfg, log),
		Federated: NewFederatedService(repos.User, codec, verifiers, log),
	}
}
