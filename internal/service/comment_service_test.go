package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Lee_Forum/internal/apperr"
	"Lee_Forum/internal/model"
)

func TestCommentMentions(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	admin := e.user(t, "root", model.RoleAdmin)
	jane := e.user(t, "Jane Doe", model.RoleMember)
	bob := e.user(t, "Bob", model.RoleMember)
	ch := e.channel(t, admin, "general")
	th := e.textThread(t, admin, ch.ID, "hello")

	c, err := e.comments.CreateComment(ctx, admin, th.ID, "Hello @Jane Doe and @Bob")
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{e.userID(t, jane), e.userID(t, bob)}, []uint64(c.Mentions))

	plain, err := e.comments.CreateComment(ctx, bob, th.ID, "no mentions here")
	require.NoError(t, err)
	assert.Empty(t, plain.Mentions)

	require.NoError(t, e.repos.Users.Delete(ctx, e.userID(t, bob)))

	list, err := e.comments.ListComments(ctx, admin, th.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Len(t, list[0].MentionedUsers, 1)
	assert.Equal(t, "Jane Doe", list[0].MentionedUsers[0].DisplayName)
	assert.Nil(t, list[1].Author)
}

func TestCommentLifecycle(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	admin := e.user(t, "root", model.RoleAdmin)
	alice := e.user(t, "alice", model.RoleMember)
	ch := e.channel(t, admin, "general")
	th := e.textThread(t, admin, ch.ID, "hello")

	_, err := e.comments.CreateComment(ctx, alice, th.ID, "  ")
	assert.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindInvalid, Field: "body"})
	_, err = e.comments.CreateComment(ctx, alice, 999, "hi")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	c, err := e.comments.CreateComment(ctx, alice, th.ID, "first")
	require.NoError(t, err)

	updated, err := e.comments.UpdateComment(ctx, alice, c.ID, "edited for @root")
	require.NoError(t, err)
	assert.Equal(t, "edited for @root", updated.Body)
	assert.Equal(t, []uint64{e.userID(t, admin)}, []uint64(updated.Mentions))

	_, err = e.comments.UpdateComment(ctx, admin, c.ID, "hijack")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	liked, err := e.reactions.ToggleLike(ctx, admin, c.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	list, err := e.comments.ListComments(ctx, admin, th.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(1), list[0].LikeCount)
	assert.True(t, list[0].LikedByMe)

	assert.ErrorIs(t, e.comments.DeleteComment(ctx, admin, c.ID), apperr.ErrForbidden)
	require.NoError(t, e.comments.DeleteComment(ctx, alice, c.ID))
	list, err = e.comments.ListComments(ctx, "", th.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = e.comments.ListComments(ctx, "", 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
