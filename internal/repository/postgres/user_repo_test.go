package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/dom/auth-gateway/internal/domain"
	"github.com/dom/auth-gateway/internal/repository"
	"github.com/dom/auth-gateway/internal/repository/postgres"
	"github.com/dom/auth-gateway/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUserRepository_Create(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(testDB.DB)
	ctx := context.Background()

	subject := "google-sub-1"

	tests := []struct {
		name    string
		user    *domain.User
		wantErr bool
	}{
		{
			name: "successful creation",
			user: &domain.User{
				ID:              uuid.New(),
				Email:           "first@example.com",
				HashedPassword:  "hashedpassword",
				GoogleSubjectID: &subject,
				IsActive:        true,
			},
			wantErr: false,
		},
		{
			name: "duplicate email",
			user: &domain.User{
				ID:       uuid.New(),
				Email:    "first@example.com",
				IsActive: true,
			},
			wantErr: true,
		},
		{
			name: "duplicate provider subject",
			user: &domain.User{
				ID:              uuid.New(),
				Email:           "second@example.com",
				GoogleSubjectID: &subject,
				IsActive:        true,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(ctx, tt.user)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestUserRepository_Lookups(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().
		WithEmail("lookup@example.com").
		WithGoogleSubject("g-sub").
		WithAppleSubject("a-sub").
		Build(t, testDB.DB)

	byID, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, byID.Email)

	byEmail, err := repo.GetByEmail(ctx, "lookup@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byGoogle, err := repo.GetByProviderSubject(ctx, domain.ProviderGoogle, "g-sub")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byGoogle.ID)

	byApple, err := repo.GetByProviderSubject(ctx, domain.ProviderApple, "a-sub")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byApple.ID)

	_, err = repo.GetByEmail(ctx, "absent@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = repo.GetByProviderSubject(ctx, domain.ProviderGoogle, "absent")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_VerificationToken(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(testDB.DB)
	ctx := context.Background()

	expires := time.Now().Add(15 * time.Minute)
	user, _ := testutil.NewUserBuilder().
		WithEmail("pending@example.com").
		WithVerificationToken("the-token", expires).
		Build(t, testDB.DB)

	found, err := repo.GetByVerificationToken(ctx, "the-token")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	// Clearing the token inside a transaction makes it unfindable.
	err = repo.Transaction(ctx, func(tx repository.UserRepository) error {
		locked, err := tx.GetByVerificationToken(ctx, "the-token")
		if err != nil {
			return err
		}
		locked.EmailVerificationToken = nil
		locked.EmailVerificationExpires = nil
		return tx.Update(ctx, locked)
	})
	require.NoError(t, err)

	_, err = repo.GetByVerificationToken(ctx, "the-token")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_TransactionRollback(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(testDB.DB)
	ctx := context.Background()

	err := repo.Transaction(ctx, func(tx repository.UserRepository) error {
		if err := tx.Create(ctx, &domain.User{
			ID:    uuid.New(),
			Email: "rollback@example.com",
		}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.Error(t, err)

	_, err = repo.GetByEmail(ctx, "rollback@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
