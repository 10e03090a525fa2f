package users

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/dealerlink/dealerlink/internal/shared"
)

// Invalidator drops cached principal state after assignment changes.
// Implemented by rbac.Store.
type Invalidator interface {
	Invalidate(ctx context.Context, userID int64)
}

// Service handles user management logic.
type Service struct {
	repo  *Repository
	audit *shared.AuditLogger
	cache Invalidator
}

// NewService builds a Service instance.
func NewService(repo *Repository, audit *shared.AuditLogger, cache Invalidator) *Service {
	return &Service{repo: repo, audit: audit, cache: cache}
}

// List returns all users.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Deactivate disables an account and drops its cached principal state so the
// change takes effect on the next request.
func (s *Service) Deactivate(ctx context.Context, actorID, userID int64) error {
	if err := s.repo.Deactivate(ctx, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shared.ErrNotFound
		}
		return err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, userID)
	}
	if s.audit != nil {
		s.audit.BestEffort(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   shared.AuditUserDeactivate,
			Entity:   "users",
			EntityID: strconv.FormatInt(userID, 10),
		})
	}
	return nil
}
