package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Lee_Forum/internal/apperr"
	"Lee_Forum/internal/model"
)

func TestRequireUser(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice", model.RoleMember)

	cases := []struct {
		name      string
		principal string
		want      error
	}{
		{name: "no session", principal: "", want: apperr.ErrUnauthenticated},
		{name: "unknown principal", principal: "idp|nobody", want: apperr.ErrUnauthenticated},
		{name: "known principal", principal: alice, want: nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.identity.RequireUser(ctx, tc.principal)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}

	_, err := e.identity.ResolveUser(ctx, "idp|nobody")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRequireRole(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	admin := e.user(t, "root", model.RoleAdmin)
	mod := e.user(t, "mod", model.RoleModerator)
	member := e.user(t, "member", model.RoleMember)

	// 角色为空的历史数据按 member 处理
	require.NoError(t, e.repos.DB.Exec("INSERT INTO users (external_id, display_name, role) VALUES (?, ?, ?)", "idp|legacy", "legacy", "").Error)

	_, err := e.identity.RequireRole(ctx, admin, model.RoleAdmin)
	assert.NoError(t, err)
	_, err = e.identity.RequireRole(ctx, mod, model.RoleAdmin, model.RoleModerator)
	assert.NoError(t, err)
	_, err = e.identity.RequireRole(ctx, member, model.RoleAdmin, model.RoleModerator)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = e.identity.RequireRole(ctx, "idp|legacy", model.RoleMember)
	assert.NoError(t, err)
	_, err = e.identity.RequireRole(ctx, "idp|legacy", model.RoleModerator)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestResolveUserUsesCache(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice", model.RoleMember)

	u, err := e.identity.ResolveUser(ctx, alice)
	require.NoError(t, err)
	assert.True(t, e.mr.Exists("identity:principal:"+alice))

	// 用户被删除后缓存失效，不会返回过期数据
	require.NoError(t, e.repos.Users.Delete(ctx, u.ID))
	_, err = e.identity.ResolveUser(ctx, alice)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.False(t, e.mr.Exists("identity:principal:"+alice))
}

func TestEnsureUser(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	u, err := e.identity.EnsureUser(ctx, "idp|new", "  Jane Doe ", "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", u.DisplayName)
	assert.Equal(t, model.RoleMember, u.Role)

	again, err := e.identity.EnsureUser(ctx, "idp|new", "Jane D.", "")
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)
	assert.Equal(t, "Jane D.", again.DisplayName)
	assert.Equal(t, "jane@example.com", again.Email)

	noName, err := e.identity.EnsureUser(ctx, "idp|anon", "", "")
	require.NoError(t, err)
	assert.Equal(t, "idp|anon", noName.DisplayName)

	_, err = e.identity.EnsureUser(ctx, "", "x", "")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestUpdateProfile(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice", model.RoleMember)

	bio := "hello"
	name := "Alice A."
	u, err := e.identity.UpdateProfile(ctx, alice, ProfileInput{DisplayName: &name, Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "Alice A.", u.DisplayName)

	stored, err := e.identity.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", stored.Bio)

	empty := "  "
	_, err = e.identity.UpdateProfile(ctx, alice, ProfileInput{DisplayName: &empty})
	assert.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindInvalid, Field: "display_name"})
}

func TestSetRole(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	admin := e.user(t, "root", model.RoleAdmin)
	mod := e.user(t, "mod", model.RoleModerator)
	member := e.user(t, "member", model.RoleMember)
	memberID := e.userID(t, member)

	_, err := e.identity.SetRole(ctx, mod, memberID, model.RoleAdmin)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = e.identity.SetRole(ctx, admin, memberID, "owner")
	assert.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindInvalid, Field: "role"})

	_, err = e.identity.SetRole(ctx, admin, 9999, model.RoleModerator)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	u, err := e.identity.SetRole(ctx, admin, memberID, model.RoleModerator)
	require.NoError(t, err)
	assert.Equal(t, model.RoleModerator, u.Role)

	_, err = e.identity.RequireRole(ctx, member, model.RoleModerator)
	assert.NoError(t, err)
}
