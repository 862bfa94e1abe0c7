package service

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"Lee_Forum/internal/config"
	"Lee_Forum/internal/model"
	rediscache "Lee_Forum/internal/repository/redis"
	"Lee_Forum/internal/repository/store"
)

type testEnv struct {
	repos     *store.Repositories
	mr        *miniredis.Miniredis
	identity  *IdentityService
	sections  *SectionService
	channels  *ChannelService
	threads   *ThreadService
	comments  *CommentService
	polls     *PollService
	reactions *ReactionService
	seed      *SeedService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := store.Open(config.Database{Driver: "sqlite", DSN: ":memory:", MaxOpenConns: 1, MaxIdleConns: 1})
	require.NoError(t, err)
	require.NoError(t, store.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	repos := store.NewRepositories(db)
	cache := rediscache.NewReactionCache(rdb)
	identity := NewIdentityService(repos, rediscache.NewIdentityCache(rdb))
	channels := NewChannelService(repos, identity)
	threads := NewThreadService(repos, identity, cache)
	return &testEnv{
		repos:     repos,
		mr:        mr,
		identity:  identity,
		sections:  NewSectionService(repos, identity),
		channels:  channels,
		threads:   threads,
		comments:  NewCommentService(repos, identity, cache),
		polls:     NewPollService(repos, identity),
		reactions: NewReactionService(repos, identity, cache, rediscache.NewDistLock(rdb)),
		seed:      NewSeedService(repos, channels, threads),
	}
}

// user 建一个用户，返回其外部主体 key
func (e *testEnv) user(t *testing.T, name string, role model.Role) string {
	t.Helper()
	principal := "idp|" + name
	u := &model.User{ExternalID: principal, DisplayName: name, Role: role, Email: name + "@example.com"}
	require.NoError(t, e.repos.Users.Create(context.Background(), u))
	return principal
}

func (e *testEnv) userID(t *testing.T, principal string) uint64 {
	t.Helper()
	u, err := e.identity.ResolveUser(context.Background(), principal)
	require.NoError(t, err)
	return u.ID
}

func (e *testEnv) channel(t *testing.T, admin, slug string) *model.Channel {
	t.Helper()
	ch, err := e.channels.CreateChannel(context.Background(), admin, ChannelInput{Name: slug, Slug: slug})
	require.NoError(t, err)
	return ch
}

func (e *testEnv) textThread(t *testing.T, principal string, channelID uint64, title string) *model.Thread {
	t.Helper()
	body := "body of " + title
	th, err := e.threads.CreateThread(context.Background(), principal, ThreadInput{ChannelID: channelID, Title: title, Body: &body})
	require.NoError(t, err)
	return th
}
