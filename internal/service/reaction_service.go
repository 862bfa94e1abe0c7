package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"Lee_Forum/internal/pkg/logger"
	rediscache "Lee_Forum/internal/repository/redis"
	"Lee_Forum/internal/repository/store"
)

const (
	targetComment = rediscache.TargetComment
	targetThread  = rediscache.TargetThread
)

// ReactionCache 点赞集合/计数缓存，未配置 Redis 时为 nil
type ReactionCache interface {
	Add(ctx context.Context, t rediscache.Target, id, userID uint64) error
	Remove(ctx context.Context, t rediscache.Target, id, userID uint64) error
	IsMember(ctx context.Context, t rediscache.Target, id, userID uint64) (bool, bool, error)
	FillSet(ctx context.Context, t rediscache.Target, id uint64, userIDs []uint64) error
	Count(ctx context.Context, t rediscache.Target, id uint64) (int64, bool, error)
	SetCount(ctx context.Context, t rediscache.Target, id uint64, n int64) error
	Invalidate(ctx context.Context, t rediscache.Target, id uint64) error
	InvalidateAfter(t rediscache.Target, id uint64, delay time.Duration)
}

// Locker 缓存回源时的互斥锁
type Locker interface {
	Acquire(ctx context.Context, key, token string) (bool, error)
	Release(ctx context.Context, key, token string) error
}

type ReactionService struct {
	identity  *IdentityService
	reactions *store.ReactionRepository
	cache     ReactionCache
	lock      Locker
	backoff   time.Duration
	recheck   time.Duration // 切换后延迟二删的间隔
}

// NewReactionService cache 与 lock 可以为 nil，此时所有读都直接走数据库
func NewReactionService(repos *store.Repositories, identity *IdentityService, cache ReactionCache, lock Locker) *ReactionService {
	return &ReactionService{
		identity:  identity,
		reactions: repos.Reactions,
		cache:     cache,
		lock:      lock,
		backoff:   50 * time.Millisecond,
		recheck:   500 * time.Millisecond,
	}
}

// ToggleLike 切换当前用户对评论的点赞，返回切换后的状态
func (s *ReactionService) ToggleLike(ctx context.Context, principal string, commentID uint64) (bool, error) {
	u, err := s.identity.RequireUser(ctx, principal)
	if err != nil {
		return false, err
	}
	liked, err := s.reactions.ToggleCommentLike(ctx, commentID, u.ID)
	if err != nil {
		return false, err
	}
	s.afterToggle(ctx, targetComment, commentID, u.ID, liked)
	return liked, nil
}

// ToggleUpvote 切换当前用户对帖子的点赞，返回切换后的状态
func (s *ReactionService) ToggleUpvote(ctx context.Context, principal string, threadID uint64) (bool, error) {
	u, err := s.identity.RequireUser(ctx, principal)
	if err != nil {
		return false, err
	}
	upvoted, err := s.reactions.ToggleThreadUpvote(ctx, threadID, u.ID)
	if err != nil {
		return false, err
	}
	s.afterToggle(ctx, targetThread, threadID, u.ID, upvoted)
	return upvoted, nil
}

// afterToggle 写库成功后尽力更新缓存；失败则删掉这个目标的缓存，交给读侧回源重建
func (s *ReactionService) afterToggle(ctx context.Context, t rediscache.Target, id, userID uint64, member bool) {
	if s.cache == nil {
		return
	}
	var err error
	if member {
		err = s.cache.Add(ctx, t, id, userID)
	} else {
		err = s.cache.Remove(ctx, t, id, userID)
	}
	if err != nil {
		logger.Warn("reaction cache update failed", zap.String("target", string(t)), zap.Uint64("id", id), zap.Error(err))
		_ = s.cache.Invalidate(ctx, t, id)
		return
	}
	// 并发回源可能在本次写库之前读到旧值、之后才回填
	s.cache.InvalidateAfter(t, id, s.recheck)
}

func (s *ReactionService) countFromDB(ctx context.Context, t rediscache.Target, id uint64) (int64, error) {
	var (
		counts map[uint64]int64
		err    error
	)
	if t == targetComment {
		counts, err = s.reactions.CountCommentLikes(ctx, []uint64{id})
	} else {
		counts, err = s.reactions.CountThreadUpvotes(ctx, []uint64{id})
	}
	if err != nil {
		return 0, err
	}
	return counts[id], nil
}

// ReactionCount 先读缓存；未命中时拿锁回源并回填，拿不到锁就稍等再读一次缓存
func (s *ReactionService) ReactionCount(ctx context.Context, t rediscache.Target, id uint64) (int64, error) {
	if s.cache == nil {
		return s.countFromDB(ctx, t, id)
	}
	if v, ok, err := s.cache.Count(ctx, t, id); err == nil && ok {
		return v, nil
	}
	if s.lock == nil {
		return s.countFromDB(ctx, t, id)
	}

	key := rediscache.LockKey("reaction:"+string(t), id)
	token := uuid.NewString()
	got, _ := s.lock.Acquire(ctx, key, token)
	if got {
		defer func() {
			if err := s.lock.Release(ctx, key, token); err != nil {
				logger.Warn("release lock failed", zap.String("key", key), zap.Error(err))
			}
		}()
		// 拿到锁后再查一次，可能别人已经回填
		if v, ok, err := s.cache.Count(ctx, t, id); err == nil && ok {
			return v, nil
		}
		v, err := s.countFromDB(ctx, t, id)
		if err != nil {
			return 0, err
		}
		_ = s.cache.SetCount(ctx, t, id, v)
		return v, nil
	}

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-time.After(s.backoff):
	}
	if v, ok, err := s.cache.Count(ctx, t, id); err == nil && ok {
		return v, nil
	}
	return s.countFromDB(ctx, t, id)
}

// HasReacted 当前用户是否点过赞；缓存集合不存在时从数据库重建
func (s *ReactionService) HasReacted(ctx context.Context, principal string, t rediscache.Target, id uint64) (bool, error) {
	u, err := s.identity.RequireUser(ctx, principal)
	if err != nil {
		return false, err
	}
	if s.cache != nil {
		if b, ok, err := s.cache.IsMember(ctx, t, id, u.ID); err == nil && ok {
			return b, nil
		}
	}
	var members []uint64
	if t == targetComment {
		members, err = s.reactions.CommentLikers(ctx, id)
	} else {
		members, err = s.reactions.ThreadUpvoters(ctx, id)
	}
	if err != nil {
		return false, err
	}
	if s.cache != nil {
		_ = s.cache.FillSet(ctx, t, id, members)
	}
	for _, m := range members {
		if m == u.ID {
			return true, nil
		}
	}
	return false, nil
}

// ParseTarget 路由参数 -> 缓存目标
func ParseTarget(s string) (rediscache.Target, bool) {
	switch rediscache.Target(s) {
	case targetComment, targetThread:
		return rediscache.Target(s), true
	}
	return "", false
}
