package service_test

import (
	"context"
	"testing"

	"github.com/dom/auth-gateway/internal/domain"
	"github.com/dom/auth-gateway/internal/provider"
	"github.com/dom/auth-gateway/internal/repository/postgres"
	"github.com/dom/auth-gateway/internal/service"
	"github.com/dom/auth-gateway/internal/testutil"
	"github.com/dom/auth-gateway/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// stubVerifier stands in for a federated provider in service tests.
type stubVerifier struct {
	identity *provider.Identity
	err      error
}

func (s *stubVerifier) Verify(ctx context.Context, assertion string) (*provider.Identity, error) {
	if s.err != nil {
		return nil, s.err
	}
	// Copy so the service's mutations don't leak between test calls.
	identity := *s.identity
	return &identity, nil
}

func countUsers(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&domain.User{}).Count(&count).Error)
	return count
}

func TestFederatedService_CreatesUserOnFirstLogin(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	cfg := testutil.TestConfig()
	codec := newTestCodec(cfg)
	ctx := context.Background()

	svc := service.NewFederatedService(repos.User, codec, map[domain.Provider]provider.Verifier{
		domain.ProviderGoogle: &stubVerifier{identity: &provider.Identity{
			SubjectID:     "g1",
			Email:         "x@example.com",
			EmailVerified: true,
			Name:          "Xavier Example",
			AvatarURL:     "https://example.com/x.png",
		}},
	}, zap.NewNop())

	pair, err := svc.Login(ctx, domain.ProviderGoogle, "assertion", nil)
	require.NoError(t, err)

	user, err := repos.User.GetByEmail(ctx, "x@example.com")
	require.NoError(t, err)
	assert.Equal(t, "g1", user.ProviderSubject(domain.ProviderGoogle))
	assert.Equal(t, "Xavier Example", user.FullName)
	assert.True(t, user.IsActive)
	assert.True(t, user.IsVerified, "federated assertions prove email ownership")

	subject, err := codec.Verify(pair.AccessToken, token.KindAccess)
	require.NoError(t, err)
	assert.Equal(t, user.ID, subject)
}

func TestFederatedService_RepeatLoginIsIdempotent(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	cfg := testutil.TestConfig()
	codec := newTestCodec(cfg)
	ctx := context.Background()

	svc := service.NewFederatedService(repos.User, codec, map[domain.Provider]provider.Verifier{
		domain.ProviderGoogle: &stubVerifier{identity: &provider.Identity{
			SubjectID: "g1",
			Email:     "repeat@example.com",
		}},
	}, zap.NewNop())

	first, err := svc.Login(ctx, domain.ProviderGoogle, "assertion", nil)
	require.NoError(t, err)

	second, err := svc.Login(ctx, domain.ProviderGoogle, "assertion", nil)
	require.NoError(t, err)

	firstID, err := codec.Verify(first.AccessToken, token.KindAccess)
	require.NoError(t, err)
	secondID, err := codec.Verify(second.AccessToken, token.KindAccess)
	require.NoError(t, err)

	assert.Equal(t, firstID, secondID)
	assert.EqualValues(t, 1, countUsers(t, testDB.DB))
}

func TestFederatedService_LinksOntoEmailMatch(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	cfg := testutil.TestConfig()
	codec := newTestCodec(cfg)
	ctx := context.Background()

	existing, _ := testutil.NewUserBuilder().
		WithEmail("shared@example.com").
		WithFullName("Existing Name").
		Build(t, testDB.DB)

	svc := service.NewFederatedService(repos.User, codec, map[domain.Provider]provider.Verifier{
		domain.ProviderGoogle: &stubVerifier{identity: &provider.Identity{
			SubjectID: "g-link",
			Email:     "shared@example.com",
			Name:      "Google Name",
		}},
	}, zap.NewNop())

	_, err := svc.Login(ctx, domain.ProviderGoogle, "assertion", nil)
	require.NoError(t, err)

	linked, err := repos.User.GetByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "g-link", linked.ProviderSubject(domain.ProviderGoogle))
	assert.Equal(t, "Existing Name", linked.FullName, "linking must not overwrite the local name")
	assert.EqualValues(t, 1, countUsers(t, testDB.DB))
}

func TestFederatedService_CrossProviderLinking(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	cfg := testutil.TestConfig()
	codec := newTestCodec(cfg)
	ctx := context.Background()

	svc := service.NewFederatedService(repos.User, codec, map[domain.Provider]provider.Verifier{
		domain.ProviderGoogle: &stubVerifier{identity: &provider.Identity{
			SubjectID: "g1",
			Email:     "x@example.com",
		}},
		domain.ProviderApple: &stubVerifier{identity: &provider.Identity{
			SubjectID: "a1",
			Email:     "x@example.com",
		}},
	}, zap.NewNop())

	_, err := svc.Login(ctx, domain.ProviderGoogle, "assertion", nil)
	require.NoError(t, err)

	_, err = svc.Login(ctx, domain.ProviderApple, "assertion", nil)
	require.NoError(t, err)

	// One record holding both subject ids, not two records.
	user, err := repos.User.GetByEmail(ctx, "x@example.com")
	require.NoError(t, err)
	assert.Equal(t, "g1", user.ProviderSubject(domain.ProviderGoogle))
	assert.Equal(t, "a1", user.ProviderSubject(domain.ProviderApple))
	assert.EqualValues(t, 1, countUsers(t, testDB.DB))
}

func TestFederatedService_FirstLoginName(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	cfg := testutil.TestConfig()
	codec := newTestCodec(cfg)
	ctx := context.Background()

	// Apple-style: the token itself never carries a name.
	svc := service.NewFederatedService(repos.User, codec, map[domain.Provider]provider.Verifier{
		domain.ProviderApple: &stubVerifier{identity: &provider.Identity{
			SubjectID: "a-name",
			Email:     "named@example.com",
		}},
	}, zap.NewNop())

	_, err := svc.Login(ctx, domain.ProviderApple, "assertion", &service.FirstLoginName{
		FirstName: "Bob",
		LastName:  "Builder",
	})
	require.NoError(t, err)

	user, err := repos.User.GetByEmail(ctx, "named@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Bob Builder", user.FullName)

	// Subsequent logins come without the payload and must still work.
	_, err = svc.Login(ctx, domain.ProviderApple, "assertion", nil)
	require.NoError(t, err)

	user, err = repos.User.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bob Builder", user.FullName)
}

func TestFederatedService_InactiveGate(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	cfg := testutil.TestConfig()
	ctx := context.Background()

	testutil.NewUserBuilder().
		WithEmail("locked@example.com").
		WithGoogleSubject("g-locked").
		Inactive().
		Build(t, testDB.DB)

	svc := service.NewFederatedService(repos.User, newTestCodec(cfg), map[domain.Provider]provider.Verifier{
		domain.ProviderGoogle: &stubVerifier{identity: &provider.Identity{
			SubjectID: "g-locked",
			Email:     "locked@example.com",
		}},
	}, zap.NewNop())

	_, err := svc.Login(ctx, domain.ProviderGoogle, "assertion", nil)
	assert.ErrorIs(t, err, domain.ErrAccountDisabled)
}

func TestFederatedService_DisabledProvider(t *testing.T) {
	cfg := testutil.TestConfig()
	svc := service.NewFederatedService(nil, newTestCodec(cfg), map[domain.Provider]provider.Verifier{}, zap.NewNop())

	_, err := svc.Login(context.Background(), domain.ProviderGoogle, "assertion", nil)
	assert.ErrorIs(t, err, domain.ErrProviderDisabled)
}

func TestFederatedService_VerifierErrorsPassThrough(t *testing.T) {
	cfg := testutil.TestConfig()

	svc := service.NewFederatedService(nil, newTestCodec(cfg), map[domain.Provider]provider.Verifier{
		domain.ProviderGoogle: &stubVerifier{err: domain.ErrUpstreamUnavailable},
		domain.ProviderApple:  &stubVerifier{err: domain.ErrInvalidAssertion},
	}, zap.NewNop())

	_, err := svc.Login(context.Background(), domain.ProviderGoogle, "assertion", nil)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)

	_, err = svc.Login(context.Background(), domain.ProviderApple, "assertion", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidAssertion)
}
