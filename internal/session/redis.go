package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps session keys in Redis, namespaced per client identity.
// Intended for shared or headless deployments where several workers act as
// one logged-in client.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore returns a store over an already-connected client.
// namespace distinguishes independent sessions on the same Redis.
func NewRedisStore(rdb *redis.Client, namespace string) (*RedisStore, error) {
	if rdb == nil {
		return nil, errors.New("redis client is required")
	}
	if namespace == "" {
		namespace = "default"
	}
	return &RedisStore{rdb: rdb, prefix: "wallshare:session:" + namespace + ":"}, nil
}

func (r *RedisStore) Get(ctx context.Context, key string) (string, error) {
	v, err := r.rdb.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("session get %s: %w", key, err)
	}
	return v, nil
}

func (r *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := r.rdb.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("session set %s: %w", key, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("session delete %s: %w", key, err)
	}
	return nil
}
