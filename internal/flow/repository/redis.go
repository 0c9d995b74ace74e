package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"auth-gateway/internal/flow/domain"
)

// redisKeyPrefix namespaces flow keys inside a shared Redis instance.
const redisKeyPrefix = "authflow:"

// RedisRepository stores pending flows in Redis. Single-use consume is
// provided by GETDEL and expiry by the key TTL, so PurgeExpired is a no-op.
type RedisRepository struct {
	client *redis.Client
}

// NewRedisRepository returns a flow repository backed by the given Redis client.
func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client}
}

// Put stores the pending flow with a TTL derived from its expiry.
// Returns ErrStateExists when the state token collides.
func (r *RedisRepository) Put(ctx context.Context, f *domain.PendingFlow) error {
	ttl := time.Until(f.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("flow for state %q already expired", f.State)
	}
	raw, err := json.Marshal(f)
	if err != nil {
		return err
	}
	ok, err := r.client.SetNX(ctx, redisKeyPrefix+f.State, raw, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrStateExists
	}
	return nil
}

// Take atomically removes and returns the flow for state via GETDEL.
// Returns nil if the key is absent or the TTL has elapsed.
func (r *RedisRepository) Take(ctx context.Context, state string) (*domain.PendingFlow, error) {
	raw, err := r.client.GetDel(ctx, redisKeyPrefix+state).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var f domain.PendingFlow
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode flow for state %q: %w", state, err)
	}
	if f.Expired(time.Now().UTC()) {
		return nil, nil
	}
	return &f, nil
}

// PurgeExpired is a no-op; Redis evicts expired keys itself.
func (r *RedisRepository) PurgeExpired(context.Context) (int64, error) {
	return 0, nil
}
