package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token kinds carried in the claims so a refresh token can never be used as
// an access token.
const (
	TokenKindAccess  = "access"
	TokenKindRefresh = "refresh"
)

// ErrInvalidToken covers every verification failure: bad signature, expiry,
// wrong kind, malformed claims.
var ErrInvalidToken = errors.New("auth: invalid token")

// Claims is the JWT payload. UserID plus the token's registered ID are the
// load-bearing parts; the rest saves a lookup on hot paths.
type Claims struct {
	UserID   int64  `json:"uid"`
	Email    string `json:"email"`
	UserType string `json:"user_type"`
	DealerID *int64 `json:"dealer_id,omitempty"`
	Kind     string `json:"kind"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 tokens.
type TokenManager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenManager constructs a TokenManager.
func NewTokenManager(secret, issuer string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// Issue mints an access/refresh pair sharing one JWT ID, so revoking the
// session invalidates both.
func (tm *TokenManager) Issue(user *User) (TokenPair, string, error) {
	jti := uuid.NewString()
	now := time.Now()

	access, err := tm.sign(user, jti, TokenKindAccess, now, tm.accessTTL)
	if err != nil {
		return TokenPair{}, "", err
	}
	refresh, err := tm.sign(user, jti, TokenKindRefresh, now, tm.refreshTTL)
	if err != nil {
		return TokenPair{}, "", err
	}

	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(tm.accessTTL.Seconds()),
	}, jti, nil
}

// Verify parses the token, checks the signature and expiry, and enforces the
// expected kind.
func (tm *TokenManager) Verify(tokenString, kind string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return tm.secret, nil
	}, jwt.WithIssuer(tm.issuer), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Kind != kind || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// RefreshTTL exposes the refresh lifetime for session registry entries.
func (tm *TokenManager) RefreshTTL() time.Duration {
	return tm.refreshTTL
}

func (tm *TokenManager) sign(user *User, jti, kind string, now time.Time, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID:   user.ID,
		Email:    user.Email,
		UserType: user.UserType,
		DealerID: user.DealerID,
		Kind:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    tm.issuer,
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
}
