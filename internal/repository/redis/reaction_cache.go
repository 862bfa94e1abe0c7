package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Target string

const (
	TargetComment Target = "comment" // 评论点赞
	TargetThread  Target = "thread"  // 帖子点赞
)

const (
	ReactionSetTTL = 24 * time.Hour
	ReactionCntTTL = 24 * time.Hour
	setKeyPrefix   = "reaction:set" // 已点赞的用户 ID 集合
	cntKeyPrefix   = "reaction:cnt" // 点赞计数
)

// 计数 key 存在才自增，避免凭空造出一个从 1 开始的错误计数
var incrIfExists = redis.NewScript(`
if redis.call("exists", KEYS[1]) == 1 then
  redis.call("pexpire", KEYS[1], ARGV[1])
  return redis.call("incr", KEYS[1])
end
return -1`)

// 计数防负数
var decrIfPositive = redis.NewScript(`
local v = tonumber(redis.call("get", KEYS[1]))
if v == nil then
  return -1
end
if v > 0 then
  return redis.call("decr", KEYS[1])
end
return 0`)

// ReactionCache 点赞集合/计数缓存。数据库是唯一事实来源，缓存写失败只影响读性能。
type ReactionCache struct {
	RDB    *redis.Client
	setTTL time.Duration
	cntTTL time.Duration
}

func NewReactionCache(rdb *redis.Client) *ReactionCache {
	return &ReactionCache{RDB: rdb, setTTL: ReactionSetTTL, cntTTL: ReactionCntTTL}
}

func (c *ReactionCache) setKey(t Target, id uint64) string {
	return fmt.Sprintf("%s:%s:%d", setKeyPrefix, t, id)
}

func (c *ReactionCache) cntKey(t Target, id uint64) string {
	return fmt.Sprintf("%s:%s:%d", cntKeyPrefix, t, id)
}

// Add 写库成功后调用
func (c *ReactionCache) Add(ctx context.Context, t Target, id, userID uint64) error {
	k := c.setKey(t, id)
	if ok, err := c.RDB.Exists(ctx, k).Result(); err != nil {
		return err
	} else if ok > 0 {
		if err := c.RDB.SAdd(ctx, k, userID).Err(); err != nil {
			return err
		}
		_ = c.RDB.Expire(ctx, k, c.setTTL).Err()
	}
	return incrIfExists.Run(ctx, c.RDB, []string{c.cntKey(t, id)}, c.cntTTL.Milliseconds()).Err()
}

func (c *ReactionCache) Remove(ctx context.Context, t Target, id, userID uint64) error {
	if err := c.RDB.SRem(ctx, c.setKey(t, id), userID).Err(); err != nil {
		return err
	}
	return decrIfPositive.Run(ctx, c.RDB, []string{c.cntKey(t, id)}).Err()
}

// IsMember 第二个返回值表示集合是否在缓存中
func (c *ReactionCache) IsMember(ctx context.Context, t Target, id, userID uint64) (bool, bool, error) {
	k := c.setKey(t, id)
	exists, err := c.RDB.Exists(ctx, k).Result()
	if err != nil {
		return false, false, err
	}
	if exists == 0 {
		return false, false, nil
	}
	b, err := c.RDB.SIsMember(ctx, k, userID).Result()
	return b, true, err
}

// FillSet 用数据库里的完整集合重建缓存；空集合不写，避免缓存一个空 key
func (c *ReactionCache) FillSet(ctx context.Context, t Target, id uint64, userIDs []uint64) error {
	k := c.setKey(t, id)
	if len(userIDs) == 0 {
		return c.RDB.Del(ctx, k).Err()
	}
	members := make([]any, len(userIDs))
	for i, uid := range userIDs {
		members[i] = uid
	}
	_, err := c.RDB.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, k)
		p.SAdd(ctx, k, members...)
		p.Expire(ctx, k, c.setTTL)
		return nil
	})
	return err
}

// Count 第二个返回值表示是否命中
func (c *ReactionCache) Count(ctx context.Context, t Target, id uint64) (int64, bool, error) {
	val, err := c.RDB.Get(ctx, c.cntKey(t, id)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return val, true, nil
}

// SetCount 回填计数
func (c *ReactionCache) SetCount(ctx context.Context, t Target, id uint64, n int64) error {
	return c.RDB.Set(ctx, c.cntKey(t, id), n, c.cntTTL).Err()
}

// InvalidateAfter 延迟二删：切换与并发回填交错时，回填写入的旧值最多存活 delay
func (c *ReactionCache) InvalidateAfter(t Target, id uint64, delay time.Duration) {
	if delay <= 0 {
		return
	}
	keys := []string{c.setKey(t, id), c.cntKey(t, id)}
	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		<-timer.C
		_ = c.RDB.Del(context.Background(), keys...).Err()
	}()
}

// Invalidate 删除集合和计数，例如目标被删除时
func (c *ReactionCache) Invalidate(ctx context.Context, t Target, id uint64) error {
	return c.RDB.Del(ctx, c.setKey(t, id), c.cntKey(t, id)).Err()
}
