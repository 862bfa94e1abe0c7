package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"Lee_Forum/internal/apperr"
	"Lee_Forum/internal/mention"
	"Lee_Forum/internal/model"
	"Lee_Forum/internal/pkg/logger"
	"Lee_Forum/internal/repository/store"
)

type CommentService struct {
	identity *IdentityService
	repos    *store.Repositories
	cache    ReactionCache
	views    viewBuilder
}

func NewCommentService(repos *store.Repositories, identity *IdentityService, cache ReactionCache) *CommentService {
	return &CommentService{identity: identity, repos: repos, cache: cache, views: viewBuilder{repos: repos}}
}

// resolveMentions 正文里没有 @ 时不查用户表
func (s *CommentService) resolveMentions(ctx context.Context, body string) ([]uint64, error) {
	if !strings.Contains(body, "@") {
		return []uint64{}, nil
	}
	users, err := s.repos.Users.ListMentionable(ctx)
	if err != nil {
		return nil, err
	}
	candidates := make([]mention.Candidate, len(users))
	for i, u := range users {
		candidates[i] = mention.Candidate{ID: u.ID, DisplayName: u.DisplayName}
	}
	return mention.Extract(body, candidates), nil
}

func (s *CommentService) CreateComment(ctx context.Context, principal string, threadID uint64, body string) (*model.Comment, error) {
	u, err := s.identity.RequireUser(ctx, principal)
	if err != nil {
		return nil, err
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperr.Invalid("body", "comment body is required")
	}
	if err := s.visibleThread(ctx, principal, threadID); err != nil {
		return nil, err
	}
	mentions, err := s.resolveMentions(ctx, body)
	if err != nil {
		return nil, err
	}
	c := &model.Comment{ThreadID: threadID, AuthorID: u.ID, Body: body, Mentions: mentions}
	if err := s.repos.Comments.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// visibleThread 帖子存在且所在频道对当前用户可见
func (s *CommentService) visibleThread(ctx context.Context, principal string, threadID uint64) error {
	t, err := s.repos.Threads.FindByID(ctx, threadID)
	if err != nil {
		return err
	}
	ch, err := s.repos.Channels.FindByID(ctx, t.ChannelID)
	if err != nil {
		return err
	}
	return s.identity.checkVisible(ctx, principal, ch)
}

// UpdateComment 只有作者可以修改，提及重新解析
func (s *CommentService) UpdateComment(ctx context.Context, principal string, id uint64, body string) (*model.Comment, error) {
	u, err := s.identity.RequireUser(ctx, principal)
	if err != nil {
		return nil, err
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperr.Invalid("body", "comment body is required")
	}
	mentions, err := s.resolveMentions(ctx, body)
	if err != nil {
		return nil, err
	}
	return s.repos.Comments.Update(ctx, id, u.ID, body, mentions)
}

func (s *CommentService) DeleteComment(ctx context.Context, principal string, id uint64) error {
	u, err := s.identity.RequireUser(ctx, principal)
	if err != nil {
		return err
	}
	if err := s.repos.Comments.Delete(ctx, id, u.ID); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, targetComment, id); err != nil {
			logger.Warn("reaction cache invalidate failed", zap.Uint64("comment_id", id), zap.Error(err))
		}
	}
	return nil
}

// ListComments 帖子下的评论，按时间正序
func (s *CommentService) ListComments(ctx context.Context, viewer string, threadID uint64) ([]CommentView, error) {
	if err := s.visibleThread(ctx, viewer, threadID); err != nil {
		return nil, err
	}
	list, err := s.repos.Comments.ListByThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	return s.views.comments(ctx, s.identity.viewerID(ctx, viewer), list)
}
