package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dom/auth-gateway/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	email             string
	password          string
	fullName          string
	active            bool
	verified          bool
	googleSubject     string
	appleSubject      string
	verificationToken string
	verificationExp   time.Time
}

// NewUserBuilder creates a new UserBuilder with default values
func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		email:    fmt.Sprintf("testuser_%s@example.com", uuid.New().String()[:8]),
		password: "testpassword123",
		active:   true,
	}
}

func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.email = email
	return b
}

func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

// WithoutPassword builds a federated-only account with no credential.
func (b *UserBuilder) WithoutPassword() *UserBuilder {
	b.password = ""
	return b
}

func (b *UserBuilder) WithFullName(name string) *UserBuilder {
	b.fullName = name
	return b
}

func (b *UserBuilder) Inactive() *UserBuilder {
	b.active = false
	return b
}

func (b *UserBuilder) Verified() *UserBuilder {
	b.verified = true
	return b
}

func (b *UserBuilder) WithGoogleSubject(subject string) *UserBuilder {
	b.googleSubject = subject
	return b
}

func (b *UserBuilder) WithAppleSubject(subject string) *UserBuilder {
	b.appleSubject = subject
	return b
}

func (b *UserBuilder) WithVerificationToken(token string, expires time.Time) *UserBuilder {
	b.verificationToken = token
	b.verificationExp = expires
	return b
}

// Build creates the user in the database and returns the user with the raw password
func (b *UserBuilder) Build(t *testing.T, db *gorm.DB) (*domain.User, string) {
	t.Helper()

	user := &domain.User{
		ID:         uuid.New(),
		Email:      b.email,
		FullName:   b.fullName,
		IsActive:   b.active,
		IsVerified: b.verified,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	if b.password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.DefaultCost)
		if err != nil {
			t.Fatalf("failed to hash password: %v", err)
		}
		user.HashedPassword = string(hashed)
	}

	if b.googleSubject != "" {
		user.SetProviderSubject(domain.ProviderGoogle, b.googleSubject)
	}
	if b.appleSubject != "" {
		user.SetProviderSubject(domain.ProviderApple, b.appleSubject)
	}
	if b.verificationToken != "" {
		token := b.verificationToken
		expires := b.verificationExp
		user.EmailVerificationToken = &token
		user.EmailVerificationExpires = &expires
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user, b.password
}

// CaptureSender records magic-link tokens instead of delivering them.
type CaptureSender struct {
	mu     sync.Mutex
	tokens map[string]string
}

func NewCaptureSender() *CaptureSender {
	return &CaptureSender{tokens: make(map[string]string)}
}

func (s *CaptureSender) SendMagicLink(ctx context.Context, email, token string, expires time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[email] = token
	return nil
}

// TokenFor returns the last magic-link token captured for the address.
func (s *CaptureSender) TokenFor(email string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.tokens[email]
	return token, ok
}
