package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionRegistry tracks live JWT IDs in redis so tokens can be revoked
// before expiry. Verification alone cannot do that; a logged-out token still
// carries a valid signature.
type SessionRegistry struct {
	client *redis.Client
}

// NewSessionRegistry constructs a SessionRegistry.
func NewSessionRegistry(client *redis.Client) *SessionRegistry {
	return &SessionRegistry{client: client}
}

// Register records the JWT ID for the lifetime of its refresh token.
func (sr *SessionRegistry) Register(ctx context.Context, jti string, userID int64, ttl time.Duration) error {
	return sr.client.Set(ctx, sr.key(jti), strconv.FormatInt(userID, 10), ttl).Err()
}

// Active reports whether the JWT ID is still registered.
func (sr *SessionRegistry) Active(ctx context.Context, jti string) (bool, error) {
	err := sr.client.Get(ctx, sr.key(jti)).Err()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Revoke removes the JWT ID, invalidating both tokens of the pair.
func (sr *SessionRegistry) Revoke(ctx context.Context, jti string) error {
	err := sr.client.Del(ctx, sr.key(jti)).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

func (sr *SessionRegistry) key(jti string) string {
	return "session:" + jti
}
