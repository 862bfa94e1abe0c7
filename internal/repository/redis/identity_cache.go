package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	IdentityPrefix = "identity:principal"
	IdentityTTL    = 30 * time.Minute
)

// IdentityCache 外部主体 key -> 内部用户 ID
type IdentityCache struct {
	RDB *redis.Client
	TTL time.Duration
}

func NewIdentityCache(rdb *redis.Client) *IdentityCache {
	return &IdentityCache{RDB: rdb, TTL: IdentityTTL}
}

func (c *IdentityCache) key(principal string) string {
	return fmt.Sprintf("%s:%s", IdentityPrefix, principal)
}

// Get 第二个返回值表示是否命中
func (c *IdentityCache) Get(ctx context.Context, principal string) (uint64, bool, error) {
	id, err := c.RDB.Get(ctx, c.key(principal)).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (c *IdentityCache) Set(ctx context.Context, principal string, userID uint64) error {
	return c.RDB.Set(ctx, c.key(principal), userID, c.TTL).Err()
}

func (c *IdentityCache) Delete(ctx context.Context, principal string) error {
	return c.RDB.Del(ctx, c.key(principal)).Err()
}
