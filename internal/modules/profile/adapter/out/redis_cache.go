package out

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	profileout "peerlink/internal/modules/profile/port/out"
	apperrors "peerlink/internal/platform/errors"
)

const redisKeyPrefix = "peerlink:profile:"

// RedisProfileCache keeps one key per login. Keys expire after ttl on the
// server side as well, so abandoned entries do not pile up.
type RedisProfileCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisProfileCache(client *redis.Client, ttl time.Duration) profileout.ProfileCache {
	return &RedisProfileCache{client: client, prefix: redisKeyPrefix, ttl: ttl}
}

// NewRedisProfileCacheWithPrefix isolates keys, mainly for tests sharing a
// server.
func NewRedisProfileCacheWithPrefix(client *redis.Client, ttl time.Duration, prefix string) profileout.ProfileCache {
	return &RedisProfileCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisProfileCache) key(login string) string {
	return c.prefix + login
}

func (c *RedisProfileCache) Load(ctx context.Context, login string) ([]byte, error) {
	blob, err := c.client.Get(ctx, c.key(login)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("load cached profile %s: %w", login, err)
	}
	return blob, nil
}

func (c *RedisProfileCache) Store(ctx context.Context, login string, blob []byte, _ time.Time) error {
	if err := c.client.Set(ctx, c.key(login), blob, c.ttl).Err(); err != nil {
		return fmt.Errorf("store cached profile %s: %w", login, err)
	}
	return nil
}

func (c *RedisProfileCache) Delete(ctx context.Context, login string) (bool, error) {
	n, err := c.client.Del(ctx, c.key(login)).Result()
	if err != nil {
		return false, fmt.Errorf("delete cached profile %s: %w", login, err)
	}
	return n > 0, nil
}

func (c *RedisProfileCache) Purge(ctx context.Context) (int, error) {
	removed := 0
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n, err := c.client.Del(ctx, iter.Val()).Result()
		if err != nil {
			return removed, fmt.Errorf("purge profile cache: %w", err)
		}
		removed += int(n)
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("purge profile cache: %w", err)
	}
	return removed, nil
}
