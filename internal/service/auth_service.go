package service

import (
	"context"
	"errors"
	"time"

	"github.com/dom/auth-gateway/internal/config"
	"github.com/dom/auth-gateway/internal/domain"
	"github.com/dom/auth-gateway/internal/repository"
	"github.com/dom/auth-gateway/internal/security"
	"github.com/dom/auth-gateway/internal/token"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AuthService handles password credentials and session lifecycle:
// register, login, refresh, access-token validation.
type AuthService struct {
	users repository.UserRepository
	codec *token.Codec
	cfg   *config.Config
	log   *zap.Logger
}

func NewAuthService(users repository.UserRepository, codec *token.Codec, cfg *config.Config, log *zap.Logger) *AuthService {
	return &AuthService{users: users, codec: codec, cfg: cfg, log: log}
}

type RegisterInput struct {
	Email    string
	Password string
	FullName string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	policy := s.cfg.Providers.EmailPassword
	if !policy.Enabled {
		return nil, domain.ErrProviderDisabled
	}
	if !policy.AllowRegistration {
		return nil, domain.ErrRegistrationDisabled
	}

	if existing, err := s.users.GetByEmail(ctx, input.Email); err == nil && existing != nil {
		return nil, domain.ErrEmailExists
	}

	hashed, err := security.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:             uuid.New(),
		Email:          input.Email,
		FullName:       input.FullName,
		HashedPassword: hashed,
		IsActive:       true,
		IsVerified:     false,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("user registered", zap.String("user_id", user.ID.String()))
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*token.Pair, error) {
	if !s.cfg.Providers.EmailPassword.Enabled {
		return nil, domain.ErrProviderDisabled
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	// Federated-only accounts have no password; same error as a mismatch.
	if user.HashedPassword == "" || !security.VerifyPassword(password, user.HashedPassword) {
		return nil, domain.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, domain.ErrAccountDisabled
	}

	return s.codec.IssuePair(user.ID)
}

// Refresh consumes a still-valid refresh token and mints a brand-new
// pair. The subject must still exist and be active.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*token.Pair, error) {
	userID, err := s.codec.Verify(refreshToken, token.KindRefresh)
	if err != nil {
		return nil, domain.ErrInvalidSession
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvalidSession
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, domain.ErrAccountDisabled
	}

	return s.codec.IssuePair(user.ID)
}

// ValidateAccessToken verifies a bearer token and returns its subject.
func (s *AuthService) ValidateAccessToken(tokenString string) (uuid.UUID, error) {
	return s.codec.Verify(tokenString, token.KindAccess)
}

func (s *AuthService) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}
