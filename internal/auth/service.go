package auth

import (
	"context"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"github.com/dealerlink/dealerlink/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo     Repository
	tokens   *TokenManager
	sessions *SessionRegistry
	audit    *shared.AuditLogger
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *TokenManager, sessions *SessionRegistry, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, tokens: tokens, sessions: sessions, audit: audit}
}

// Login validates email/password credentials and issues a token pair.
// Inactive accounts fail the same way as wrong credentials so the response
// leaks nothing about account existence.
func (s *Service) Login(ctx context.Context, email, password string) (*User, TokenPair, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, TokenPair{}, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, TokenPair{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, TokenPair{}, shared.ErrInvalidCredentials
	}

	pair, jti, err := s.tokens.Issue(user)
	if err != nil {
		return nil, TokenPair{}, err
	}
	if err := s.sessions.Register(ctx, jti, user.ID, s.tokens.RefreshTTL()); err != nil {
		return nil, TokenPair{}, err
	}

	if s.audit != nil {
		s.audit.BestEffort(ctx, shared.AuditLog{
			ActorID:  user.ID,
			Action:   shared.AuditLogin,
			Entity:   "users",
			EntityID: strconv.FormatInt(user.ID, 10),
		})
	}
	return user, pair, nil
}

// Refresh exchanges a live refresh token for a new pair, rotating the
// session entry.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.tokens.Verify(refreshToken, TokenKindRefresh)
	if err != nil {
		return TokenPair{}, shared.ErrInvalidCredentials
	}
	active, err := s.sessions.Active(ctx, claims.ID)
	if err != nil {
		return TokenPair{}, err
	}
	if !active {
		return TokenPair{}, shared.ErrInvalidCredentials
	}

	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil || !user.IsActive {
		return TokenPair{}, shared.ErrInvalidCredentials
	}

	pair, jti, err := s.tokens.Issue(user)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.sessions.Register(ctx, jti, user.ID, s.tokens.RefreshTTL()); err != nil {
		return TokenPair{}, err
	}
	_ = s.sessions.Revoke(ctx, claims.ID)
	return pair, nil
}

// Logout revokes the session behind the presented access token.
func (s *Service) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.tokens.Verify(accessToken, TokenKindAccess)
	if err != nil {
		return shared.ErrInvalidCredentials
	}
	if err := s.sessions.Revoke(ctx, claims.ID); err != nil {
		return err
	}
	if s.audit != nil {
		s.audit.BestEffort(ctx, shared.AuditLog{
			ActorID:  claims.UserID,
			Action:   shared.AuditLogout,
			Entity:   "users",
			EntityID: strconv.FormatInt(claims.UserID, 10),
		})
	}
	return nil
}
