package service

import (
	"context"
	"strings"

	"Lee_Forum/internal/apperr"
	"Lee_Forum/internal/model"
	"Lee_Forum/internal/ordering"
	"Lee_Forum/internal/repository/store"
)

type ChannelService struct {
	identity *IdentityService
	channels *store.ChannelRepository
}

func NewChannelService(repos *store.Repositories, identity *IdentityService) *ChannelService {
	return &ChannelService{identity: identity, channels: repos.Channels}
}

type ChannelInput struct {
	Name      string            `json:"name" binding:"required"`
	Slug      string            `json:"slug"` // 留空则由名称生成
	Type      model.ChannelType `json:"type"`
	SectionID *uint64           `json:"section_id"`
	Visible   *bool             `json:"visible"`
}

func normalizeChannel(in *ChannelInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return apperr.Invalid("name", "channel name is required")
	}
	if in.Slug == "" {
		in.Slug = ordering.Slugify(in.Name)
	} else {
		in.Slug = ordering.Slugify(in.Slug)
	}
	if in.Slug == "" {
		return apperr.Invalid("slug", "slug is empty after normalisation")
	}
	if in.Type == "" {
		in.Type = model.ChannelDiscussion
	}
	if !in.Type.Valid() {
		return apperr.Invalid("type", "unknown channel type "+string(in.Type))
	}
	return nil
}

// CreateChannel slug 唯一，排到所在分区末尾
func (s *ChannelService) CreateChannel(ctx context.Context, principal string, in ChannelInput) (*model.Channel, error) {
	u, err := s.identity.RequireRole(ctx, principal, staffRoles...)
	if err != nil {
		return nil, err
	}
	return s.createChannel(ctx, u.ID, in, 0)
}

func (s *ChannelService) createChannel(ctx context.Context, creatorID uint64, in ChannelInput, orderIndex int) (*model.Channel, error) {
	if err := normalizeChannel(&in); err != nil {
		return nil, err
	}
	visible := true
	if in.Visible != nil {
		visible = *in.Visible
	}
	ch := &model.Channel{
		Name:       in.Name,
		Slug:       in.Slug,
		Type:       in.Type,
		SectionID:  in.SectionID,
		CreatorID:  creatorID,
		OrderIndex: orderIndex,
		Visible:    visible,
	}
	if err := s.channels.Create(ctx, ch); err != nil {
		return nil, err
	}
	return ch, nil
}

type ChannelPatch struct {
	Name    *string            `json:"name"`
	Type    *model.ChannelType `json:"type"`
	Visible *bool              `json:"visible"`
}

func (s *ChannelService) UpdateChannel(ctx context.Context, principal string, id uint64, in ChannelPatch) (*model.Channel, error) {
	if _, err := s.identity.RequireRole(ctx, principal, staffRoles...); err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.Invalid("name", "channel name is required")
		}
		fields["name"] = name
	}
	if in.Type != nil {
		if !in.Type.Valid() {
			return nil, apperr.Invalid("type", "unknown channel type "+string(*in.Type))
		}
		fields["type"] = *in.Type
	}
	if in.Visible != nil {
		fields["visible"] = *in.Visible
	}
	return s.channels.Update(ctx, id, fields)
}

// MoveChannel 换分区，sectionID 为 nil 表示移出分区
func (s *ChannelService) MoveChannel(ctx context.Context, principal string, id uint64, sectionID *uint64) (*model.Channel, error) {
	if _, err := s.identity.RequireRole(ctx, principal, staffRoles...); err != nil {
		return nil, err
	}
	return s.channels.MoveToSection(ctx, id, sectionID)
}

func (s *ChannelService) DeleteChannel(ctx context.Context, principal string, id uint64) error {
	if _, err := s.identity.RequireRole(ctx, principal, staffRoles...); err != nil {
		return err
	}
	return s.channels.Delete(ctx, id)
}

func (s *ChannelService) ReorderChannels(ctx context.Context, principal string, items []ordering.Item) error {
	if _, err := s.identity.RequireRole(ctx, principal, staffRoles...); err != nil {
		return err
	}
	return s.channels.Reorder(ctx, items)
}

type ChannelFilter struct {
	SectionID     *uint64
	AllSections   bool // 忽略 SectionID，返回全部
	IncludeHidden bool
}

// ListChannels 只有 staff 能看到隐藏频道
func (s *ChannelService) ListChannels(ctx context.Context, principal string, f ChannelFilter) ([]model.Channel, error) {
	if f.IncludeHidden {
		if _, err := s.identity.RequireRole(ctx, principal, staffRoles...); err != nil {
			return nil, err
		}
	}
	if f.AllSections {
		return s.channels.ListAll(ctx, f.IncludeHidden)
	}
	return s.channels.ListBySection(ctx, f.SectionID, f.IncludeHidden)
}

// GetChannelBySlug 隐藏频道对非 staff 表现为不存在
func (s *ChannelService) GetChannelBySlug(ctx context.Context, principal, slug string) (*model.Channel, error) {
	ch, err := s.channels.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := s.identity.checkVisible(ctx, principal, ch); err != nil {
		return nil, err
	}
	return ch, nil
}

// SetSticky 置顶/取消置顶，moderator 及以上
func (s *ChannelService) SetSticky(ctx context.Context, principal string, threadID uint64, sticky bool) (*model.Channel, error) {
	if _, err := s.identity.RequireRole(ctx, principal, staffRoles...); err != nil {
		return nil, err
	}
	return s.channels.SetSticky(ctx, threadID, sticky)
}
