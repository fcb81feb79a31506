package infrastructure

import (
	"context"
	"fmt"
	"time"

	"renewal_notifier/internal/apperrors"
	"renewal_notifier/internal/interfaces"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const leaseKeyPrefix = "lease:"

// releaseScript deletes the key only when it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// renewScript extends the key only when it still holds our token.
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisLease implements a cross-replica lease with SET NX PX.
type RedisLease struct {
	client *redis.Client
}

func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("unable to ping redis: %w", err)
	}
	return client, nil
}

func NewRedisLease(client *redis.Client) *RedisLease {
	return &RedisLease{client: client}
}

func (r *RedisLease) Acquire(ctx context.Context, name string, ttl time.Duration) (interfaces.LeaseHold, error) {
	key := leaseKeyPrefix + name
	token := uuid.NewString()

	ok, err := r.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lease %s: %w", name, err)
	}
	if !ok {
		return nil, apperrors.ErrLeaseHeld
	}
	return &redisHold{client: r.client, key: key, token: token}, nil
}

type redisHold struct {
	client *redis.Client
	key    string
	token  string
}

func (h *redisHold) Renew(ctx context.Context, ttl time.Duration) error {
	n, err := renewScript.Run(ctx, h.client, []string{h.key}, h.token, ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("renew lease %s: %w", h.key, err)
	}
	if n == 0 {
		return apperrors.ErrLeaseLost
	}
	return nil
}

func (h *redisHold) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, h.client, []string{h.key}, h.token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("release lease %s: %w", h.key, err)
	}
	return nil
}
