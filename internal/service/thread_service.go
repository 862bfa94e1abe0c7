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
	"Lee_Forum/internal/tally"
)

type ThreadService struct {
	identity *IdentityService
	repos    *store.Repositories
	cache    ReactionCache
	views    viewBuilder
}

func NewThreadService(repos *store.Repositories, identity *IdentityService, cache ReactionCache) *ThreadService {
	return &ThreadService{identity: identity, repos: repos, cache: cache, views: viewBuilder{repos: repos}}
}

type PollInput struct {
	Question       string   `json:"question"`
	Options        []string `json:"options"`
	MultipleChoice bool     `json:"multiple_choice"`
}

type ThreadInput struct {
	ChannelID uint64     `json:"channel_id" binding:"required"`
	Title     string     `json:"title" binding:"required"`
	Body      *string    `json:"body"`
	ImageURL  string     `json:"image_url"`
	Poll      *PollInput `json:"poll"`
}

func validatePoll(in *PollInput) (*model.Poll, error) {
	q := strings.TrimSpace(in.Question)
	if q == "" {
		return nil, apperr.Invalid("poll.question", "poll question is required")
	}
	opts := make([]string, 0, len(in.Options))
	for _, o := range in.Options {
		o = strings.TrimSpace(o)
		if o == "" {
			return nil, apperr.Invalid("poll.options", "poll options must not be empty")
		}
		opts = append(opts, o)
	}
	if len(opts) < 2 {
		return nil, apperr.Invalid("poll.options", "a poll needs at least two options")
	}
	return &model.Poll{Question: q, Options: opts, MultipleChoice: in.MultipleChoice}, nil
}

func trimmedBody(body *string) *string {
	if body == nil {
		return nil
	}
	b := strings.TrimSpace(*body)
	if b == "" {
		return nil
	}
	return &b
}

// CreateThread 编号在仓储事务内分配；只有投票帖可以没有正文。隐藏频道只有 staff 能发帖
func (s *ThreadService) CreateThread(ctx context.Context, principal string, in ThreadInput) (*model.Thread, error) {
	u, err := s.identity.RequireUser(ctx, principal)
	if err != nil {
		return nil, err
	}
	ch, err := s.repos.Channels.FindByID(ctx, in.ChannelID)
	if err != nil {
		return nil, err
	}
	if err := s.identity.checkVisible(ctx, principal, ch); err != nil {
		return nil, err
	}
	return s.createThread(ctx, u.ID, in, false)
}

func (s *ThreadService) createThread(ctx context.Context, authorID uint64, in ThreadInput, sticky bool) (*model.Thread, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.Invalid("title", "title is required")
	}
	body := trimmedBody(in.Body)

	t := &model.Thread{
		ChannelID: in.ChannelID,
		Title:     title,
		Slug:      ordering.Slugify(title),
		Body:      body,
		AuthorID:  authorID,
		Sticky:    sticky,
		ImageURL:  in.ImageURL,
		Type:      model.ThreadText,
	}
	var poll *model.Poll
	if in.Poll != nil {
		p, err := validatePoll(in.Poll)
		if err != nil {
			return nil, err
		}
		poll = p
		t.Type = model.ThreadPoll
	} else if body == nil {
		return nil, apperr.Invalid("body", "body is required")
	}

	if err := s.repos.Threads.Create(ctx, t, poll); err != nil {
		return nil, err
	}
	logger.Debug("thread created", zap.Uint64("thread_id", t.ID),
		zap.Uint64("channel_id", t.ChannelID), zap.Int64("number", t.ThreadNumber))
	return t, nil
}

type ThreadPatch struct {
	Title    *string `json:"title"`
	Body     *string `json:"body"`
	ImageURL *string `json:"image_url"`
}

// UpdateThread 只有作者可以修改；改标题会重新生成 slug，编号不变
func (s *ThreadService) UpdateThread(ctx context.Context, principal string, id uint64, in ThreadPatch) (*model.Thread, error) {
	u, err := s.identity.RequireUser(ctx, principal)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, apperr.Invalid("title", "title is required")
		}
		fields["title"] = title
		fields["slug"] = ordering.Slugify(title)
	}
	if in.Body != nil {
		body := trimmedBody(in.Body)
		if body == nil {
			current, err := s.repos.Threads.FindByID(ctx, id)
			if err != nil {
				return nil, err
			}
			if current.Type != model.ThreadPoll {
				return nil, apperr.Invalid("body", "body is required")
			}
		}
		fields["body"] = body
	}
	if in.ImageURL != nil {
		fields["image_url"] = *in.ImageURL
	}
	return s.repos.Threads.Update(ctx, id, u.ID, fields)
}

// DeleteThread 只有作者可以删除，级联删除见仓储
func (s *ThreadService) DeleteThread(ctx context.Context, principal string, id uint64) error {
	u, err := s.identity.RequireUser(ctx, principal)
	if err != nil {
		return err
	}
	if err := s.repos.Threads.Delete(ctx, id, u.ID); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, targetThread, id); err != nil {
			logger.Warn("reaction cache invalidate failed", zap.Uint64("thread_id", id), zap.Error(err))
		}
	}
	return nil
}

// GetThread 按频道 slug + 帖子编号取帖子；隐藏频道对非 staff 表现为不存在
func (s *ThreadService) GetThread(ctx context.Context, viewer, channelSlug string, number int64) (*ThreadView, error) {
	ch, err := s.repos.Channels.FindBySlug(ctx, channelSlug)
	if err != nil {
		return nil, err
	}
	if err := s.identity.checkVisible(ctx, viewer, ch); err != nil {
		return nil, err
	}
	t, err := s.repos.Threads.FindByNumber(ctx, ch.ID, number)
	if err != nil {
		return nil, err
	}
	views, err := s.views.threads(ctx, s.identity.viewerID(ctx, viewer), []model.Thread{*t})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListThreads 置顶帖在前；其余按编号倒序，或按实时点赞数倒序
func (s *ThreadService) ListThreads(ctx context.Context, viewer string, channelID uint64, sortByPopularity bool) ([]ThreadView, error) {
	ch, err := s.repos.Channels.FindByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if err := s.identity.checkVisible(ctx, viewer, ch); err != nil {
		return nil, err
	}
	list, err := s.repos.Threads.ListByChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	views, err := s.views.threads(ctx, s.identity.viewerID(ctx, viewer), list)
	if err != nil {
		return nil, err
	}

	entries := make([]tally.Entry, len(views))
	byID := make(map[uint64]ThreadView, len(views))
	for i, v := range views {
		entries[i] = tally.Entry{ID: v.ID, Number: v.ThreadNumber, Upvotes: v.UpvoteCount}
		byID[v.ID] = v
	}
	ordered := tally.Order(entries, ch.StickyPosts, sortByPopularity)
	out := make([]ThreadView, len(ordered))
	for i, e := range ordered {
		out[i] = byID[e.ID]
	}
	return out, nil
}
