package service

import (
	"context"
	"errors"
	"time"

	"github.com/dom/auth-gateway/internal/config"
	"github.com/dom/auth-gateway/internal/domain"
	"github.com/dom/auth-gateway/internal/mail"
	"github.com/dom/auth-gateway/internal/repository"
	"github.com/dom/auth-gateway/internal/security"
	"github.com/dom/auth-gateway/internal/token"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const magicLinkTokenBytes = 32

// MagicLinkService issues and consumes single-use email login tokens.
// Per email address the state machine is none -> pending -> consumed;
// requesting again while pending replaces the outstanding token.
type MagicLinkService struct {
	users  repository.UserRepository
	codec  *token.Codec
	sender mail.Sender
	cfg    *config.Config
	log    *zap.Logger
}

func NewMagicLinkService(users repository.UserRepository, codec *token.Codec, sender mail.Sender, cfg *config.Config, log *zap.Logger) *MagicLinkService {
	return &MagicLinkService{users: users, codec: codec, sender: sender, cfg: cfg, log: log}
}

// Request generates a pending magic-link token for the address and hands
// it to the delivery side channel. Unknown addresses create a pending
// (inactive, unverified) account when policy allows.
func (s *MagicLinkService) Request(ctx context.Context, email string) error {
	policy := s.cfg.Providers.MagicLink
	if !policy.Enabled {
		return domain.ErrProviderDisabled
	}

	linkToken, err := security.GenerateToken(magicLinkTokenBytes)
	if err != nil {
		return err
	}
	expires := time.Now().Add(policy.TokenExpiry)

	err = s.users.Transaction(ctx, func(tx repository.UserRepository) error {
		user, err := tx.GetByEmail(ctx, email)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if !policy.AllowNewUsers {
				return domain.ErrUserNotFound
			}
			pending := &domain.User{
				ID:                       uuid.New(),
				Email:                    email,
				IsActive:                 false,
				IsVerified:               false,
				EmailVerificationToken:   &linkToken,
				EmailVerificationExpires: &expires,
				CreatedAt:                time.Now(),
				UpdatedAt:                time.Now(),
			}
			return tx.Create(ctx, pending)
		}

		// At most one live token per user; a new request replaces it.
		user.EmailVerificationToken = &linkToken
		user.EmailVerificationExpires = &expires
		return tx.Update(ctx, user)
	})
	if err != nil {
		return err
	}

	// Fire-and-forget: a delivery failure does not invalidate the token.
	if err := s.sender.SendMagicLink(ctx, email, linkToken, expires); err != nil {
		s.log.Warn("magic link delivery failed", zap.String("email", email), zap.Error(err))
	}

	return nil
}

// Verify consumes a magic-link token. The lookup, expiry check and
// clearing of the token run in one transaction over a locked row, so two
// concurrent calls with the same token yield exactly one success.
func (s *MagicLinkService) Verify(ctx context.Context, linkToken string) (*token.Pair, error) {
	if !s.cfg.Providers.MagicLink.Enabled {
		return nil, domain.ErrProviderDisabled
	}

	var user *domain.User
	err := s.users.Transaction(ctx, func(tx repository.UserRepository) error {
		found, err := tx.GetByVerificationToken(ctx, linkToken)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrInvalidToken
			}
			return err
		}

		if found.EmailVerificationExpires == nil || time.Now().After(*found.EmailVerificationExpires) {
			return domain.ErrInvalidToken
		}

		found.EmailVerificationToken = nil
		found.EmailVerificationExpires = nil
		found.IsVerified = true
		found.IsActive = true
		if err := tx.Update(ctx, found); err != nil {
			return err
		}

		user = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("magic link verified", zap.String("user_id", user.ID.String()))
	return s.codec.IssuePair(user.ID)
}
