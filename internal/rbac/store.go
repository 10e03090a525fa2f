package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// PrincipalState is the mutable per-user half of a principal: assigned roles
// and the account approval gate. The static half lives in the Matrix.
type PrincipalState struct {
	Roles           []Role         `json:"roles"`
	ApprovalStatus  ApprovalStatus `json:"approvalStatus"`
	RejectionReason string         `json:"rejectionReason,omitempty"`
}

// Store loads per-user role assignments and approval status, with a short
// redis cache in front so the pipeline does not hit postgres on every
// request. Writers must call Invalidate after changing assignments or
// approval status.
type Store struct {
	pool  *pgxpool.Pool
	cache *redis.Client
	ttl   time.Duration
}

// NewStore constructs a Store. A nil cache disables caching.
func NewStore(pool *pgxpool.Pool, cache *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Store{pool: pool, cache: cache, ttl: ttl}
}

// PrincipalState returns the user's active roles and approval status. A user
// without an approval row is treated as pending.
func (s *Store) PrincipalState(ctx context.Context, userID int64) (*PrincipalState, error) {
	if state, ok := s.cached(ctx, userID); ok {
		return state, nil
	}

	state := &PrincipalState{ApprovalStatus: ApprovalPending}

	// Role assignments and approval status live in unrelated tables; load
	// them concurrently.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.pool.Query(gctx, `SELECT r.name FROM user_roles ur
JOIN roles r ON ur.role_id = r.id
WHERE ur.user_id = $1 AND r.is_active = true`, userID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return err
			}
			state.Roles = append(state.Roles, Role(name))
		}
		return rows.Err()
	})
	g.Go(func() error {
		var status string
		var reason *string
		err := s.pool.QueryRow(gctx, `SELECT status, rejection_reason FROM user_approval_status WHERE user_id = $1`, userID).Scan(&status, &reason)
		switch {
		case err == nil:
			state.ApprovalStatus = ApprovalStatus(status)
			if reason != nil {
				state.RejectionReason = *reason
			}
			return nil
		case errors.Is(err, pgx.ErrNoRows):
			return nil
		default:
			return err
		}
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.put(ctx, userID, state)
	return state, nil
}

// Invalidate drops the cached state for a user.
func (s *Store) Invalidate(ctx context.Context, userID int64) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, s.key(userID)).Err()
}

func (s *Store) cached(ctx context.Context, userID int64) (*PrincipalState, bool) {
	if s.cache == nil {
		return nil, false
	}
	payload, err := s.cache.Get(ctx, s.key(userID)).Bytes()
	if err != nil {
		return nil, false
	}
	var state PrincipalState
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, false
	}
	return &state, true
}

func (s *Store) put(ctx context.Context, userID int64, state *PrincipalState) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(state)
	if err != nil {
		return
	}
	_ = s.cache.Set(ctx, s.key(userID), payload, s.ttl).Err()
}

func (s *Store) key(userID int64) string {
	return "principal:" + strconv.FormatInt(userID, 10)
}
