package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"Lee_Forum/internal/apperr"
	"Lee_Forum/internal/model"
	"Lee_Forum/internal/ordering"
	"Lee_Forum/internal/pkg/logger"
	"Lee_Forum/internal/repository/store"
)

// 分区、频道由 admin / moderator 管理
var staffRoles = []model.Role{model.RoleAdmin, model.RoleModerator}

type SectionService struct {
	identity *IdentityService
	sections *store.SectionRepository
}

func NewSectionService(repos *store.Repositories, identity *IdentityService) *SectionService {
	return &SectionService{identity: identity, sections: repos.Sections}
}

type SectionInput struct {
	Name  string `json:"name" binding:"required"`
	Color string `json:"color"`
}

// CreateSection 新分区为 draft，排到 draft 桶末尾
func (s *SectionService) CreateSection(ctx context.Context, principal string, in SectionInput) (*model.Section, error) {
	if _, err := s.identity.RequireRole(ctx, principal, staffRoles...); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Invalid("name", "section name is required")
	}
	sec := &model.Section{Name: name, Color: in.Color, Status: model.SectionDraft}
	if err := s.sections.Create(ctx, sec); err != nil {
		return nil, err
	}
	return sec, nil
}

type SectionPatch struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

func (s *SectionService) UpdateSection(ctx context.Context, principal string, id uint64, in SectionPatch) (*model.Section, error) {
	if _, err := s.identity.RequireRole(ctx, principal, staffRoles...); err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.Invalid("name", "section name is required")
		}
		fields["name"] = name
	}
	if in.Color != nil {
		fields["color"] = *in.Color
	}
	return s.sections.Update(ctx, id, fields)
}

// ToggleStatus draft ⇄ live，不重排
func (s *SectionService) ToggleStatus(ctx context.Context, principal string, id uint64) (*model.Section, error) {
	if _, err := s.identity.RequireRole(ctx, principal, staffRoles...); err != nil {
		return nil, err
	}
	return s.sections.ToggleStatus(ctx, id)
}

func (s *SectionService) ReorderSections(ctx context.Context, principal string, items []ordering.Item) error {
	if _, err := s.identity.RequireRole(ctx, principal, staffRoles...); err != nil {
		return err
	}
	return s.sections.Reorder(ctx, items)
}

// PublishSections live 分区重排为连续的 1..N
func (s *SectionService) PublishSections(ctx context.Context, principal string) ([]model.Section, error) {
	u, err := s.identity.RequireRole(ctx, principal, staffRoles...)
	if err != nil {
		return nil, err
	}
	live, err := s.sections.PublishRenumber(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("sections published", zap.Uint64("by", u.ID), zap.Int("live", len(live)))
	return live, nil
}

func (s *SectionService) DeleteSection(ctx context.Context, principal string, id uint64) error {
	if _, err := s.identity.RequireRole(ctx, principal, staffRoles...); err != nil {
		return err
	}
	return s.sections.Delete(ctx, id)
}

// ListSections status 为空返回全部
func (s *SectionService) ListSections(ctx context.Context, status model.SectionStatus) ([]model.Section, error) {
	return s.sections.List(ctx, status)
}

func (s *SectionService) GetSection(ctx context.Context, id uint64) (*model.Section, error) {
	return s.sections.FindByID(ctx, id)
}
