package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dom/auth-gateway/internal/domain"
	"github.com/dom/auth-gateway/internal/provider"
	"github.com/dom/auth-gateway/internal/repository"
	"github.com/dom/auth-gateway/internal/token"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FirstLoginName is the display name Apple hands over alongside the very
// first sign-in only; it never appears in the identity token itself.
type FirstLoginName struct {
	FirstName string
	LastName  string
}

func (n FirstLoginName) FullName() string {
	return strings.TrimSpace(n.FirstName + " " + n.LastName)
}

// FederatedService is the identity reconciliation engine: every
// federated login funnels through Verify -> Reconcile -> session pair.
type FederatedService struct {
	users     repository.UserRepository
	codec     *token.Codec
	verifiers map[domain.Provider]provider.Verifier
	log       *zap.Logger
}

func NewFederatedService(users repository.UserRepository, codec *token.Codec, verifiers map[domain.Provider]provider.Verifier, log *zap.Logger) *FederatedService {
	return &FederatedService{users: users, codec: codec, verifiers: verifiers, log: log}
}

// Login verifies a provider assertion, reconciles it onto a local user
// and mints a session pair. firstLogin carries the one-time display name
// some providers only supply on the initial sign-in; it is never
// required on subsequent logins.
func (s *FederatedService) Login(ctx context.Context, p domain.Provider, assertion string, firstLogin *FirstLoginName) (*token.Pair, error) {
	verifier, ok := s.verifiers[p]
	if !ok {
		return nil, domain.ErrProviderDisabled
	}

	identity, err := verifier.Verify(ctx, assertion)
	if err != nil {
		return nil, err
	}

	if identity.Name == "" && firstLogin != nil {
		identity.Name = firstLogin.FullName()
	}

	user, err := s.Reconcile(ctx, p, identity)
	if err != nil {
		return nil, err
	}

	if !user.IsActive {
		return nil, domain.ErrAccountDisabled
	}

	return s.codec.IssuePair(user.ID)
}

// Reconcile maps a normalized identity onto a local user record:
// reuse the record already holding this provider subject, else link the
// subject onto the record matching the asserted email, else create a new
// record. Runs in one store transaction so concurrent first logins for
// the same identity cannot fork into duplicates.
//
// Linking onto an email match happens without an ownership confirmation
// step, mirroring the observed provider-linking policy; the risk is
// documented in DESIGN.md rather than silently changed here.
func (s *FederatedService) Reconcile(ctx context.Context, p domain.Provider, identity *provider.Identity) (*domain.User, error) {
	var user *domain.User
	err := s.users.Transaction(ctx, func(tx repository.UserRepository) error {
		existing, err := tx.GetByProviderSubject(ctx, p, identity.SubjectID)
		if err == nil {
			user = existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		byEmail, err := tx.GetByEmail(ctx, identity.Email)
		if err == nil {
			byEmail.SetProviderSubject(p, identity.SubjectID)
			if err := tx.Update(ctx, byEmail); err != nil {
				return err
			}
			s.log.Info("linked provider onto existing account",
				zap.String("provider", string(p)),
				zap.String("user_id", byEmail.ID.String()),
			)
			user = byEmail
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		// Federated assertions prove email ownership, so new accounts
		// start verified and active.
		created := &domain.User{
			ID:         uuid.New(),
			Email:      identity.Email,
			FullName:   identity.Name,
			AvatarURL:  identity.AvatarURL,
			IsActive:   true,
			IsVerified: true,
			CreatedAt:  time.Now(),
			UpdatedAt:  time.Now(),
		}
		created.SetProviderSubject(p, identity.SubjectID)
		if err := tx.Create(ctx, created); err != nil {
			return err
		}

		s.log.Info("created account from federated login",
			zap.String("provider", string(p)),
			zap.String("user_id", created.ID.String()),
		)
		user = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
