package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	LockTTL       = 300 * time.Millisecond
	lockKeyPrefix = "lock"
)

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`)

// DistLock SETNX 分布式锁，token 由调用方生成，释放时校验 token
type DistLock struct {
	RDB *redis.Client
	TTL time.Duration
}

func NewDistLock(rdb *redis.Client) *DistLock {
	return &DistLock{RDB: rdb, TTL: LockTTL}
}

func LockKey(scope string, id uint64) string {
	return fmt.Sprintf("%s:%s:%d", lockKeyPrefix, scope, id)
}

// Acquire 请求加锁
func (l *DistLock) Acquire(ctx context.Context, key, token string) (bool, error) {
	return l.RDB.SetNX(ctx, key, token, l.TTL).Result()
}

// Release 用 lua 保证只释放自己的锁
func (l *DistLock) Release(ctx context.Context, key, token string) error {
	return releaseScript.Run(ctx, l.RDB, []string{key}, token).Err()
}
