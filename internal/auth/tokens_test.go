package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testTokenManager() *TokenManager {
	return NewTokenManager("test-secret-0123456789abcdef", "dealerlink", 15*time.Minute, 7*24*time.Hour)
}

func testUser() *User {
	dealerID := int64(11)
	return &User{
		ID:       42,
		Email:    "gm@dealer.example",
		UserType: "dealer",
		DealerID: &dealerID,
		IsActive: true,
	}
}

func TestIssueAndVerifyPair(t *testing.T) {
	tm := testTokenManager()

	pair, jti, err := tm.Issue(testUser())
	require.NoError(t, err)
	require.NotEmpty(t, jti)
	require.Equal(t, int64(900), pair.ExpiresIn)

	access, err := tm.Verify(pair.AccessToken, TokenKindAccess)
	require.NoError(t, err)
	require.Equal(t, int64(42), access.UserID)
	require.Equal(t, "gm@dealer.example", access.Email)
	require.Equal(t, "dealer", access.UserType)
	require.NotNil(t, access.DealerID)
	require.Equal(t, int64(11), *access.DealerID)

	refresh, err := tm.Verify(pair.RefreshToken, TokenKindRefresh)
	require.NoError(t, err)

	// Both halves of the pair share one session ID.
	require.Equal(t, jti, access.ID)
	require.Equal(t, jti, refresh.ID)
}

func TestVerifyRejectsWrongKind(t *testing.T) {
	tm := testTokenManager()
	pair, _, err := tm.Issue(testUser())
	require.NoError(t, err)

	_, err = tm.Verify(pair.RefreshToken, TokenKindAccess)
	require.ErrorIs(t, err, ErrInvalidToken)
	_, err = tm.Verify(pair.AccessToken, TokenKindRefresh)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	pair, _, err := testTokenManager().Issue(testUser())
	require.NoError(t, err)

	other := NewTokenManager("another-secret-entirely", "dealerlink", time.Minute, time.Hour)
	_, err = other.Verify(pair.AccessToken, TokenKindAccess)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	minted := NewTokenManager("test-secret-0123456789abcdef", "someone-else", time.Minute, time.Hour)
	pair, _, err := minted.Issue(testUser())
	require.NoError(t, err)

	_, err = testTokenManager().Verify(pair.AccessToken, TokenKindAccess)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpired(t *testing.T) {
	tm := NewTokenManager("test-secret-0123456789abcdef", "dealerlink", -time.Minute, -time.Minute)
	pair, _, err := tm.Issue(testUser())
	require.NoError(t, err)

	_, err = tm.Verify(pair.AccessToken, TokenKindAccess)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	tm := testTokenManager()
	for _, raw := range []string{"", "not.a.token", "a.b"} {
		_, err := tm.Verify(raw, TokenKindAccess)
		require.ErrorIs(t, err, ErrInvalidToken)
	}
}
