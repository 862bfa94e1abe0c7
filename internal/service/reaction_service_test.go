package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Lee_Forum/internal/apperr"
	"Lee_Forum/internal/model"
	rediscache "Lee_Forum/internal/repository/redis"
)

func TestToggleUpvoteIsInvolution(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	admin := e.user(t, "root", model.RoleAdmin)
	alice := e.user(t, "alice", model.RoleMember)
	ch := e.channel(t, admin, "general")
	th := e.textThread(t, admin, ch.ID, "hello")

	on, err := e.reactions.ToggleUpvote(ctx, alice, th.ID)
	require.NoError(t, err)
	assert.True(t, on)
	n, err := e.reactions.ReactionCount(ctx, rediscache.TargetThread, th.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	off, err := e.reactions.ToggleUpvote(ctx, alice, th.ID)
	require.NoError(t, err)
	assert.False(t, off)
	// 计数已在缓存里，切换时同步更新
	n, err = e.reactions.ReactionCount(ctx, rediscache.TargetThread, th.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	reacted, err := e.reactions.HasReacted(ctx, alice, rediscache.TargetThread, th.ID)
	require.NoError(t, err)
	assert.False(t, reacted)

	_, err = e.reactions.ToggleUpvote(ctx, alice, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = e.reactions.ToggleUpvote(ctx, "", th.ID)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestReactionCountRebuildsCache(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	admin := e.user(t, "root", model.RoleAdmin)
	ch := e.channel(t, admin, "general")
	th := e.textThread(t, admin, ch.ID, "hello")
	c, err := e.comments.CreateComment(ctx, admin, th.ID, "reply")
	require.NoError(t, err)

	for _, name := range []string{"a", "b", "c"} {
		p := e.user(t, name, model.RoleMember)
		_, err := e.reactions.ToggleLike(ctx, p, c.ID)
		require.NoError(t, err)
	}

	// 计数 key 不存在时，点赞不会凭空造出计数
	assert.False(t, e.mr.Exists("reaction:cnt:comment:"+strconv.FormatUint(c.ID, 10)))

	n, err := e.reactions.ReactionCount(ctx, rediscache.TargetComment, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	v, err := e.mr.Get("reaction:cnt:comment:" + strconv.FormatUint(c.ID, 10))
	require.NoError(t, err)
	assert.Equal(t, "3", v)

	// 缓存丢失后从数据库回源
	e.mr.FlushAll()
	n, err = e.reactions.ReactionCount(ctx, rediscache.TargetComment, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	// 锁被别人占着时，等一会儿再直接读库
	e.mr.FlushAll()
	lockKey := rediscache.LockKey("reaction:"+string(rediscache.TargetComment), c.ID)
	require.NoError(t, e.mr.Set(lockKey, "someone-else"))
	e.reactions.backoff = 0
	n, err = e.reactions.ReactionCount(ctx, rediscache.TargetComment, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestToggleClearsStaleRebuild(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	admin := e.user(t, "root", model.RoleAdmin)
	alice := e.user(t, "alice", model.RoleMember)
	ch := e.channel(t, admin, "general")
	th := e.textThread(t, admin, ch.ID, "hello")
	e.reactions.recheck = 100 * time.Millisecond
	key := "reaction:cnt:thread:" + strconv.FormatUint(th.ID, 10)

	// 回源读到 0 之后、回填之前，alice 的点赞已经提交
	_, err := e.reactions.ToggleUpvote(ctx, alice, th.ID)
	require.NoError(t, err)
	require.NoError(t, e.mr.Set(key, "0"))
	n, err := e.reactions.ReactionCount(ctx, rediscache.TargetThread, th.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	assert.Eventually(t, func() bool { return !e.mr.Exists(key) }, time.Second, 5*time.Millisecond)
	n, err = e.reactions.ReactionCount(ctx, rediscache.TargetThread, th.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestHasReactedFillsSet(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	admin := e.user(t, "root", model.RoleAdmin)
	alice := e.user(t, "alice", model.RoleMember)
	ch := e.channel(t, admin, "general")
	th := e.textThread(t, admin, ch.ID, "hello")
	c, err := e.comments.CreateComment(ctx, admin, th.ID, "reply")
	require.NoError(t, err)

	_, err = e.reactions.ToggleLike(ctx, alice, c.ID)
	require.NoError(t, err)

	liked, err := e.reactions.HasReacted(ctx, alice, rediscache.TargetComment, c.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	liked, err = e.reactions.HasReacted(ctx, admin, rediscache.TargetComment, c.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	// 集合已建立，之后的切换直接改集合
	_, err = e.reactions.ToggleLike(ctx, admin, c.ID)
	require.NoError(t, err)
	liked, err = e.reactions.HasReacted(ctx, admin, rediscache.TargetComment, c.ID)
	require.NoError(t, err)
	assert.True(t, liked)
}

func TestReactionServiceWithoutCache(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	admin := e.user(t, "root", model.RoleAdmin)
	ch := e.channel(t, admin, "general")
	th := e.textThread(t, admin, ch.ID, "hello")

	svc := NewReactionService(e.repos, e.identity, nil, nil)
	on, err := svc.ToggleUpvote(ctx, admin, th.ID)
	require.NoError(t, err)
	assert.True(t, on)
	n, err := svc.ReactionCount(ctx, rediscache.TargetThread, th.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	reacted, err := svc.HasReacted(ctx, admin, rediscache.TargetThread, th.ID)
	require.NoError(t, err)
	assert.True(t, reacted)
}

func TestParseTarget(t *testing.T) {
	got, ok := ParseTarget("comment")
	assert.True(t, ok)
	assert.Equal(t, rediscache.TargetComment, got)
	_, ok = ParseTarget("post")
	assert.False(t, ok)
}
