package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Lee_Forum/internal/apperr"
	"Lee_Forum/internal/model"
)

func newPoll(t *testing.T, e *testEnv, principal string, channelID uint64, options ...string) uint64 {
	t.Helper()
	th, err := e.threads.CreateThread(context.Background(), principal, ThreadInput{
		ChannelID: channelID,
		Title:     "poll",
		Poll:      &PollInput{Question: "Which one?", Options: options},
	})
	require.NoError(t, err)
	p, err := e.repos.Polls.FindByThreadID(context.Background(), th.ID)
	require.NoError(t, err)
	return p.ID
}

func TestCastPollVote(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	admin := e.user(t, "root", model.RoleAdmin)
	alice := e.user(t, "alice", model.RoleMember)
	bob := e.user(t, "bob", model.RoleMember)
	carol := e.user(t, "carol", model.RoleMember)
	ch := e.channel(t, admin, "general")
	pollID := newPoll(t, e, admin, ch.ID, "Go", "Rust", "Zig")

	view, err := e.polls.CastPollVote(ctx, alice, pollID, 0)
	require.NoError(t, err)
	require.NotNil(t, view.MyVote)
	assert.Equal(t, 0, *view.MyVote)
	assert.Equal(t, 1, view.Total)

	_, err = e.polls.CastPollVote(ctx, alice, pollID, 1)
	assert.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindInvalid, Field: "user"})
	once, err := e.polls.PollResults(ctx, alice, pollID)
	require.NoError(t, err)
	assert.Equal(t, 1, once.Total)
	assert.Equal(t, 0, *once.MyVote)

	_, err = e.polls.CastPollVote(ctx, bob, pollID, 0)
	require.NoError(t, err)
	_, err = e.polls.CastPollVote(ctx, carol, pollID, 2)
	require.NoError(t, err)

	for _, idx := range []int{-1, 3} {
		_, err = e.polls.CastPollVote(ctx, admin, pollID, idx)
		assert.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindInvalid, Field: "option_index"})
	}
	_, err = e.polls.CastPollVote(ctx, admin, 999, 0)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = e.polls.CastPollVote(ctx, "", pollID, 0)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	res, err := e.polls.PollResults(ctx, "", pollID)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0, 1}, res.Counts)
	assert.Equal(t, 3, res.Total)
	assert.InDelta(t, 66.67, res.Percentages[0], 0.01)
	assert.InDelta(t, 0, res.Percentages[1], 0.01)
	assert.InDelta(t, 33.33, res.Percentages[2], 0.01)
	assert.Nil(t, res.MyVote)

	mine, err := e.polls.PollResults(ctx, carol, pollID)
	require.NoError(t, err)
	require.NotNil(t, mine.MyVote)
	assert.Equal(t, 2, *mine.MyVote)

	newPoll(t, e, admin, ch.ID, "Yes", "No")
	list, err := e.threads.ListThreads(ctx, carol, ch.ID, false)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.NotNil(t, list[0].Poll)
	assert.Equal(t, []int{0, 0}, list[0].Poll.Counts)
	assert.Nil(t, list[0].Poll.MyVote)
	require.NotNil(t, list[1].Poll)
	assert.Equal(t, []int{2, 0, 1}, list[1].Poll.Counts)
	require.NotNil(t, list[1].Poll.MyVote)
	assert.Equal(t, 2, *list[1].Poll.MyVote)
}
