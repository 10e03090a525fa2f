package auth

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dealerlink/dealerlink/internal/shared"
)

type stubUserRepo struct {
	byEmail map[string]*User
	byID    map[int64]*User
}

func newStubUserRepo(users ...*User) *stubUserRepo {
	r := &stubUserRepo{byEmail: make(map[string]*User), byID: make(map[int64]*User)}
	for _, u := range users {
		r.byEmail[u.Email] = u
		r.byID[u.ID] = u
	}
	return r
}

func (r *stubUserRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (r *stubUserRepo) FindByID(ctx context.Context, id int64) (*User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func newAuthFixture(t *testing.T, users ...*User) (*Service, *SessionRegistry) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := NewSessionRegistry(client)
	svc := NewService(newStubUserRepo(users...), testTokenManager(), sessions, nil)
	return svc, sessions
}

func activeUser(t *testing.T, password string) *User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := testUser()
	u.PasswordHash = string(hash)
	return u
}

func TestLoginIssuesSession(t *testing.T) {
	ctx := context.Background()
	user := activeUser(t, "Welcome@2026")
	svc, sessions := newAuthFixture(t, user)

	got, pair, err := svc.Login(ctx, "gm@dealer.example", "Welcome@2026")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	claims, err := testTokenManager().Verify(pair.AccessToken, TokenKindAccess)
	require.NoError(t, err)
	active, err := sessions.Active(ctx, claims.ID)
	require.NoError(t, err)
	require.True(t, active)
}

func TestLoginFailures(t *testing.T) {
	ctx := context.Background()
	user := activeUser(t, "Welcome@2026")
	inactive := activeUser(t, "Welcome@2026")
	inactive.ID = 43
	inactive.Email = "former@dealer.example"
	inactive.IsActive = false
	svc, _ := newAuthFixture(t, user, inactive)

	// Unknown account, wrong password and deactivated account all collapse
	// into one error so responses leak nothing about account existence.
	_, _, err := svc.Login(ctx, "nobody@dealer.example", "Welcome@2026")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "gm@dealer.example", "wrong-password")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "former@dealer.example", "Welcome@2026")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLogoutRevokesBothTokens(t *testing.T) {
	ctx := context.Background()
	user := activeUser(t, "Welcome@2026")
	svc, sessions := newAuthFixture(t, user)

	_, pair, err := svc.Login(ctx, "gm@dealer.example", "Welcome@2026")
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, pair.AccessToken))

	claims, err := testTokenManager().Verify(pair.AccessToken, TokenKindAccess)
	require.NoError(t, err)
	active, err := sessions.Active(ctx, claims.ID)
	require.NoError(t, err)
	require.False(t, active)

	// The refresh half of the pair dies with the same session.
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestRefreshRotatesSession(t *testing.T) {
	ctx := context.Background()
	user := activeUser(t, "Welcome@2026")
	svc, sessions := newAuthFixture(t, user)

	_, pair, err := svc.Login(ctx, "gm@dealer.example", "Welcome@2026")
	require.NoError(t, err)
	oldClaims, err := testTokenManager().Verify(pair.RefreshToken, TokenKindRefresh)
	require.NoError(t, err)

	fresh, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.AccessToken, fresh.AccessToken)

	// The old session is gone, so the spent refresh token cannot be replayed.
	active, err := sessions.Active(ctx, oldClaims.ID)
	require.NoError(t, err)
	require.False(t, active)
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	ctx := context.Background()
	user := activeUser(t, "Welcome@2026")
	svc, _ := newAuthFixture(t, user)

	_, pair, err := svc.Login(ctx, "gm@dealer.example", "Welcome@2026")
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, pair.AccessToken)
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestRefreshRejectsDeactivatedUser(t *testing.T) {
	ctx := context.Background()
	user := activeUser(t, "Welcome@2026")
	svc, _ := newAuthFixture(t, user)

	_, pair, err := svc.Login(ctx, "gm@dealer.example", "Welcome@2026")
	require.NoError(t, err)

	user.IsActive = false
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}
