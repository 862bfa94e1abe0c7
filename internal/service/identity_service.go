package service

import (
	"context"
	"errors"
	"slices"
	"strings"

	"go.uber.org/zap"

	"Lee_Forum/internal/apperr"
	"Lee_Forum/internal/model"
	"Lee_Forum/internal/pkg/logger"
	"Lee_Forum/internal/repository/store"
)

// IdentityCache 外部主体 -> 用户 ID 的缓存，未配置 Redis 时为 nil
type IdentityCache interface {
	Get(ctx context.Context, principal string) (uint64, bool, error)
	Set(ctx context.Context, principal string, userID uint64) error
	Delete(ctx context.Context, principal string) error
}

type IdentityService struct {
	users *store.UserRepository
	cache IdentityCache
}

func NewIdentityService(repos *store.Repositories, cache IdentityCache) *IdentityService {
	return &IdentityService{users: repos.Users, cache: cache}
}

// ResolveUser 按外部主体 key 查找用户
func (s *IdentityService) ResolveUser(ctx context.Context, principal string) (*model.User, error) {
	if principal == "" {
		return nil, apperr.NotFound("user", principal)
	}
	if s.cache != nil {
		if id, ok, err := s.cache.Get(ctx, principal); err == nil && ok {
			u, err := s.users.FindByID(ctx, id)
			if err == nil && u.ExternalID == principal {
				return u, nil
			}
			// 缓存指向的用户已不存在或不匹配
			_ = s.cache.Delete(ctx, principal)
		}
	}
	u, err := s.users.FindByExternalID(ctx, principal)
	if err != nil {
		return nil, err
	}
	s.remember(ctx, u)
	return u, nil
}

func (s *IdentityService) remember(ctx context.Context, u *model.User) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, u.ExternalID, u.ID); err != nil {
		logger.Warn("identity cache set failed", zap.String("principal", u.ExternalID), zap.Error(err))
	}
}

// RequireUser 没有会话或主体无对应用户时返回 Unauthenticated
func (s *IdentityService) RequireUser(ctx context.Context, principal string) (*model.User, error) {
	if principal == "" {
		return nil, apperr.Unauthenticated("no session")
	}
	u, err := s.ResolveUser(ctx, principal)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.Unauthenticated("no user for principal")
	}
	return u, err
}

// RequireRole 用户角色（缺省 member）不在允许列表内时返回 PermissionDenied
func (s *IdentityService) RequireRole(ctx context.Context, principal string, allowed ...model.Role) (*model.User, error) {
	u, err := s.RequireUser(ctx, principal)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(allowed, u.EffectiveRole()) {
		return nil, apperr.Forbidden("role " + string(u.EffectiveRole()) + " is not allowed")
	}
	return u, nil
}

// canSeeHidden 管理员和版主可以看到隐藏频道；匿名或无法解析时为 false
func (s *IdentityService) canSeeHidden(ctx context.Context, principal string) bool {
	if principal == "" {
		return false
	}
	u, err := s.ResolveUser(ctx, principal)
	if err != nil {
		return false
	}
	return slices.Contains(staffRoles, u.EffectiveRole())
}

func (s *IdentityService) checkVisible(ctx context.Context, principal string, ch *model.Channel) error {
	if ch.Visible || s.canSeeHidden(ctx, principal) {
		return nil
	}
	return apperr.NotFound("channel", ch.ID)
}

// viewerID 读接口的可选身份，匿名或无法解析时为 0
func (s *IdentityService) viewerID(ctx context.Context, principal string) uint64 {
	if principal == "" {
		return 0
	}
	u, err := s.ResolveUser(ctx, principal)
	if err != nil {
		return 0
	}
	return u.ID
}

// EnsureUser 首次见到外部主体时建用户（member），之后只在名字/邮箱变化时更新
func (s *IdentityService) EnsureUser(ctx context.Context, principal, displayName, email string) (*model.User, error) {
	if principal == "" {
		return nil, apperr.Unauthenticated("no session")
	}
	displayName = strings.TrimSpace(displayName)
	u, err := s.ResolveUser(ctx, principal)
	if errors.Is(err, apperr.ErrNotFound) {
		if displayName == "" {
			displayName = principal
		}
		u = &model.User{ExternalID: principal, DisplayName: displayName, Email: email, Role: model.RoleMember}
		if err := s.users.Create(ctx, u); err != nil {
			// 并发首登：另一个请求已经建好了
			if errors.Is(err, apperr.ErrInvalid) {
				return s.users.FindByExternalID(ctx, principal)
			}
			return nil, err
		}
		logger.Info("user created", zap.Uint64("user_id", u.ID), zap.String("principal", principal))
		s.remember(ctx, u)
		return u, nil
	}
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if displayName != "" && displayName != u.DisplayName {
		fields["display_name"] = displayName
		u.DisplayName = displayName
	}
	if email != "" && email != u.Email {
		fields["email"] = email
		u.Email = email
	}
	if err := s.users.UpdateFields(ctx, u.ID, fields); err != nil {
		return nil, err
	}
	return u, nil
}

type ProfileInput struct {
	DisplayName *string `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
	Bio         *string `json:"bio"`
}

// UpdateProfile 用户修改自己的资料
func (s *IdentityService) UpdateProfile(ctx context.Context, principal string, in ProfileInput) (*model.User, error) {
	u, err := s.RequireUser(ctx, principal)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if in.DisplayName != nil {
		name := strings.TrimSpace(*in.DisplayName)
		if name == "" {
			return nil, apperr.Invalid("display_name", "display name must not be empty")
		}
		fields["display_name"] = name
		u.DisplayName = name
	}
	if in.AvatarURL != nil {
		fields["avatar_url"] = *in.AvatarURL
		u.AvatarURL = *in.AvatarURL
	}
	if in.Bio != nil {
		fields["bio"] = *in.Bio
		u.Bio = *in.Bio
	}
	if err := s.users.UpdateFields(ctx, u.ID, fields); err != nil {
		return nil, err
	}
	return u, nil
}

// SetRole 只有 admin 可以修改角色
func (s *IdentityService) SetRole(ctx context.Context, principal string, userID uint64, role model.Role) (*model.User, error) {
	if _, err := s.RequireRole(ctx, principal, model.RoleAdmin); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, apperr.Invalid("role", "unknown role "+string(role))
	}
	target, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateFields(ctx, userID, map[string]any{"role": role}); err != nil {
		return nil, err
	}
	target.Role = role
	logger.Info("role changed", zap.Uint64("user_id", userID), zap.String("role", string(role)))
	return target, nil
}

func (s *IdentityService) GetUser(ctx context.Context, id uint64) (*model.User, error) {
	return s.users.FindByID(ctx, id)
}
