package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"Lee_Forum/internal/model"
)

func seedDefs() []SeedSection {
	return []SeedSection{
		{
			Name: "Community",
			Live: true,
			Channels: []SeedChannel{
				{Name: "General", Welcome: &SeedWelcome{Title: "Welcome to General", Body: "Say hi"}},
				{Name: "Templates", Type: model.ChannelTemplates, Welcome: &SeedWelcome{Title: "Share templates"}},
			},
		},
		{
			Name: "Library",
			Channels: []SeedChannel{
				{Name: "Modules", Type: model.ChannelModules},
			},
		},
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	admin := e.user(t, "root", model.RoleAdmin)
	creator := e.userID(t, admin)

	report, err := e.seed.Seed(ctx, creator, seedDefs())
	require.NoError(t, err)
	assert.Equal(t, SeedReport{SectionsCreated: 2, ChannelsCreated: 3, WelcomeThreads: 2}, *report)

	general, err := e.channels.GetChannelBySlug(ctx, "", "general")
	require.NoError(t, err)
	assert.Equal(t, 1, general.OrderIndex)
	require.Len(t, general.StickyPosts, 1)
	welcome, err := e.threads.GetThread(ctx, "", "general", 1)
	require.NoError(t, err)
	assert.Equal(t, general.StickyPosts[0], welcome.ID)
	assert.True(t, welcome.Sticky)
	require.NotNil(t, welcome.Body)
	assert.Equal(t, "Say hi", *welcome.Body)

	templates, err := e.threads.GetThread(ctx, "", "templates", 1)
	require.NoError(t, err)
	assert.Equal(t, "Share templates", *templates.Body)

	modules, err := e.channels.GetChannelBySlug(ctx, "", "modules")
	require.NoError(t, err)
	assert.Equal(t, model.ChannelModules, modules.Type)
	assert.Empty(t, modules.StickyPosts)

	live, err := e.sections.ListSections(ctx, model.SectionLive)
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, "Community", live[0].Name)
	assert.Equal(t, 1, live[0].OrderIndex)

	again, err := e.seed.Seed(ctx, creator, seedDefs())
	require.NoError(t, err)
	assert.Equal(t, SeedReport{ChannelsSkipped: 3}, *again)

	list, err := e.threads.ListThreads(ctx, "", general.ID, false)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSeedBackfillsWelcomeAndCollectsErrors(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	admin := e.user(t, "root", model.RoleAdmin)
	creator := e.userID(t, admin)

	// 频道已存在但没有置顶帖
	existing := e.channel(t, admin, "general")

	defs := []SeedSection{{
		Name: "Community",
		Channels: []SeedChannel{
			{Name: "!!!"},
			{Name: "General", Welcome: &SeedWelcome{Title: "Hello"}},
		},
	}}
	report, err := e.seed.Seed(ctx, creator, defs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `channel "!!!"`)
	assert.Equal(t, 1, report.ChannelsSkipped)
	assert.Equal(t, 1, report.WelcomeThreads)

	ch, err := e.channels.GetChannelBySlug(ctx, "", "general")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, ch.ID)
	require.Len(t, ch.StickyPosts, 1)
}

func TestSeedRepinsExistingWelcome(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	admin := e.user(t, "root", model.RoleAdmin)
	creator := e.userID(t, admin)

	_, err := e.seed.Seed(ctx, creator, seedDefs())
	require.NoError(t, err)
	general, err := e.channels.GetChannelBySlug(ctx, "", "general")
	require.NoError(t, err)
	templates, err := e.channels.GetChannelBySlug(ctx, "", "templates")
	require.NoError(t, err)
	welcome, err := e.threads.GetThread(ctx, "", "general", 1)
	require.NoError(t, err)
	share, err := e.threads.GetThread(ctx, "", "templates", 1)
	require.NoError(t, err)

	// 版主取消置顶
	_, err = e.channels.SetSticky(ctx, admin, welcome.ID, false)
	require.NoError(t, err)
	// 帖子仍标记为置顶，但频道置顶列表丢失
	require.NoError(t, e.repos.Channels.DB.Model(&model.Channel{}).Where("id = ?", templates.ID).
		UpdateColumn("sticky_posts", datatypes.NewJSONSlice([]uint64{})).Error)

	again, err := e.seed.Seed(ctx, creator, seedDefs())
	require.NoError(t, err)
	assert.Equal(t, SeedReport{ChannelsSkipped: 3, WelcomeRepinned: 2}, *again)

	for _, tc := range []struct {
		channelID uint64
		threadID  uint64
	}{
		{channelID: general.ID, threadID: welcome.ID},
		{channelID: templates.ID, threadID: share.ID},
	} {
		list, err := e.threads.ListThreads(ctx, "", tc.channelID, false)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, tc.threadID, list[0].ID)
		assert.True(t, list[0].Sticky)

		ch, err := e.repos.Channels.FindByID(ctx, tc.channelID)
		require.NoError(t, err)
		assert.Equal(t, []uint64{tc.threadID}, []uint64(ch.StickyPosts))
	}

	third, err := e.seed.Seed(ctx, creator, seedDefs())
	require.NoError(t, err)
	assert.Equal(t, SeedReport{ChannelsSkipped: 3}, *third)
}
