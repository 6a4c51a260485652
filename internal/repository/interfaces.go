package repository

import (
	"context"

	"github.com/dom/auth-gateway/internal/domain"
	"github.com/google/uuid"
)

// UserRepository is the credential store contract. Implementations must
// enforce uniqueness on email and on each provider subject id.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByProviderSubject(ctx context.Context, provider domain.Provider, subject string) (*domain.User, error)
	// GetByVerificationToken locks the matching row for update when called
	// inside a Transaction, so a magic-link token can be consumed exactly once.
	GetByVerificationToken(ctx context.Context, token string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error

	// Transaction runs fn against a repository bound to a single store
	// transaction. Read-check-then-write sequences use this to avoid
	// lost updates between concurrent requests.
	Transaction(ctx context.Context, fn func(UserRepository) error) error
}

type Repositories struct {
	User UserRepository
}
