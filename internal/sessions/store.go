// Package sessions tracks logged-out session tokens until they would
// have expired on their own.
package sessions

import (
	"context"
	"time"

	"github.com/UVMHacks2025/BashProShop/internal/cache"
)

const keyPrefix = "sessions:revoked:"

type RevocationStore interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type redisFlags interface {
	SetFlag(ctx context.Context, key string, ttl time.Duration) error
	HasKey(ctx context.Context, key string) (bool, error)
}

type RedisStore struct {
	client redisFlags
}

func NewRedisStore(client redisFlags) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.client.SetFlag(ctx, keyPrefix+jti, ttl)
}

func (s *RedisStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return s.client.HasKey(ctx, keyPrefix+jti)
}

// MemoryStore is the single-process fallback when REDIS_ADDR is empty.
type MemoryStore struct {
	c *cache.Cache
}

func NewMemoryStore(c *cache.Cache) *MemoryStore {
	return &MemoryStore{c: c}
}

func (s *MemoryStore) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.c.SetWithTTL(keyPrefix+jti, struct{}{}, ttl)
	return nil
}

func (s *MemoryStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	_, ok := s.c.Get(keyPrefix + jti)
	return ok, nil
}
