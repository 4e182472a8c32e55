package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/mrk-crm/internal/entity"
	"github.com/xavierca1/mrk-crm/internal/infra/auth"
)

type authFixture struct {
	*fixture
	accounts *UserUseCase
	auth     *AuthUseCase
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := newFixture(t)
	hasher := &auth.BcryptHasher{Cost: 4}
	issuer := auth.NewJWTIssuer("test-secret", 15*time.Minute, 7*24*time.Hour, f.clock)
	return &authFixture{
		fixture:  f,
		accounts: NewUserUseCase(f.users, hasher, f.clock),
		auth:     NewAuthUseCase(f.users, hasher, issuer),
	}
}

func TestLoginAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	u, err := f.accounts.Create(ctx, CreateUserInput{Name: "Noa", Email: "Noa@MRK.test", Password: "secret1", Role: entity.RoleCloser}, f.admin)
	require.NoError(t, err)

	pair, user, err := f.auth.Login(ctx, LoginInput{Email: " noa@mrk.test ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, user.ID)
	assert.Equal(t, "bearer", pair.TokenType)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	got, err := f.auth.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleCloser, got.Role)

	// a refresh token is not an access token
	_, err = f.auth.Authenticate(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, _, err = f.auth.Login(ctx, LoginInput{Email: "noa@mrk.test", Password: "wrong"})
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, _, err = f.auth.Login(ctx, LoginInput{Email: "nobody@mrk.test", Password: "secret1"})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRefreshAndExpiry(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	_, err := f.accounts.Create(ctx, CreateUserInput{Name: "Gil", Email: "gil@mrk.test", Password: "secret1", Role: entity.RoleQualifier}, f.admin)
	require.NoError(t, err)
	pair, _, err := f.auth.Login(ctx, LoginInput{Email: "gil@mrk.test", Password: "secret1"})
	require.NoError(t, err)

	_, err = f.auth.Refresh(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	f.clock.Advance(time.Hour)
	_, err = f.auth.Authenticate(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	next, err := f.auth.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	_, err = f.auth.Authenticate(ctx, next.AccessToken)
	assert.NoError(t, err)

	f.clock.Advance(8 * 24 * time.Hour)
	_, err = f.auth.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = f.auth.Authenticate(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestInactiveUserLosesAccess(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	u, err := f.accounts.Create(ctx, CreateUserInput{Name: "Tal", Email: "tal@mrk.test", Password: "secret1", Role: entity.RoleCloser}, f.admin)
	require.NoError(t, err)
	pair, _, err := f.auth.Login(ctx, LoginInput{Email: "tal@mrk.test", Password: "secret1"})
	require.NoError(t, err)

	inactive := false
	_, err = f.accounts.Update(ctx, UpdateUserInput{UserID: u.ID, IsActive: &inactive}, f.admin)
	require.NoError(t, err)

	_, err = f.auth.Authenticate(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = f.auth.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, _, err = f.auth.Login(ctx, LoginInput{Email: "tal@mrk.test", Password: "secret1"})
	assert.ErrorIs(t, err, ErrUnauthorized)
}
