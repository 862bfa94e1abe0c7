package service

import (
	"context"

	"Lee_Forum/internal/model"
	"Lee_Forum/internal/repository/store"
	"Lee_Forum/internal/tally"
)

// ThreadView 帖子读模型；作者已被删除时 Author 为 nil
type ThreadView struct {
	model.Thread
	Author       *model.UserSummary `json:"author"`
	UpvoteCount  int64              `json:"upvote_count"`
	UpvotedByMe  bool               `json:"upvoted_by_me"`
	CommentCount int64              `json:"comment_count"`
	Poll         *PollView          `json:"poll,omitempty"`
}

// CommentView 评论读模型；已不存在的被提及用户会被过滤掉
type CommentView struct {
	model.Comment
	Author         *model.UserSummary  `json:"author"`
	MentionedUsers []model.UserSummary `json:"mentioned_users"`
	LikeCount      int64               `json:"like_count"`
	LikedByMe      bool                `json:"liked_by_me"`
}

type PollView struct {
	model.Poll
	tally.Result
	MyVote *int `json:"my_vote"`
}

// viewBuilder 把多次批量查询拼成读模型，不做 N+1 查询
type viewBuilder struct {
	repos *store.Repositories
}

func summaryOf(users map[uint64]*model.User, id uint64) *model.UserSummary {
	u, ok := users[id]
	if !ok {
		return nil
	}
	s := u.Summary()
	return &s
}

func (b viewBuilder) threads(ctx context.Context, viewerID uint64, list []model.Thread) ([]ThreadView, error) {
	ids := make([]uint64, len(list))
	authorIDs := make([]uint64, 0, len(list))
	for i, t := range list {
		ids[i] = t.ID
		authorIDs = append(authorIDs, t.AuthorID)
	}
	users, err := b.repos.Users.FindByIDs(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	upvotes, err := b.repos.Reactions.CountThreadUpvotes(ctx, ids)
	if err != nil {
		return nil, err
	}
	mine, err := b.repos.Reactions.UpvotedThreads(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}
	comments, err := b.repos.Threads.CountComments(ctx, ids)
	if err != nil {
		return nil, err
	}
	polls, err := b.pollsByThread(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}

	out := make([]ThreadView, len(list))
	for i, t := range list {
		v := ThreadView{
			Thread:       t,
			Author:       summaryOf(users, t.AuthorID),
			UpvoteCount:  upvotes[t.ID],
			UpvotedByMe:  mine[t.ID],
			CommentCount: comments[t.ID],
		}
		v.Poll = polls[t.ID]
		out[i] = v
	}
	return out, nil
}

// pollsByThread thread_id -> 投票读模型，票数和当前用户的选票各一次查询
func (b viewBuilder) pollsByThread(ctx context.Context, viewerID uint64, threadIDs []uint64) (map[uint64]*PollView, error) {
	polls, err := b.repos.Polls.FindByThreadIDs(ctx, threadIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[uint64]*PollView, len(polls))
	if len(polls) == 0 {
		return out, nil
	}
	list := make([]*model.Poll, 0, len(polls))
	pollIDs := make([]uint64, 0, len(polls))
	for _, p := range polls {
		list = append(list, p)
		pollIDs = append(pollIDs, p.ID)
	}
	counts, err := b.repos.Polls.CountsByPolls(ctx, list)
	if err != nil {
		return nil, err
	}
	mine, err := b.repos.Polls.UserVotes(ctx, pollIDs, viewerID)
	if err != nil {
		return nil, err
	}
	for threadID, p := range polls {
		v := &PollView{Poll: *p, Result: tally.FromCounts(counts[p.ID])}
		if idx, ok := mine[p.ID]; ok {
			v.MyVote = &idx
		}
		out[threadID] = v
	}
	return out, nil
}

func (b viewBuilder) poll(ctx context.Context, viewerID uint64, p *model.Poll) (*PollView, error) {
	counts, err := b.repos.Polls.Counts(ctx, p.ID, len(p.Options))
	if err != nil {
		return nil, err
	}
	v := &PollView{Poll: *p, Result: tally.FromCounts(counts)}
	if viewerID != 0 {
		if v.MyVote, err = b.repos.Polls.UserVote(ctx, p.ID, viewerID); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (b viewBuilder) comments(ctx context.Context, viewerID uint64, list []model.Comment) ([]CommentView, error) {
	ids := make([]uint64, len(list))
	var userIDs []uint64
	for i, c := range list {
		ids[i] = c.ID
		userIDs = append(userIDs, c.AuthorID)
		userIDs = append(userIDs, c.Mentions...)
	}
	users, err := b.repos.Users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	likes, err := b.repos.Reactions.CountCommentLikes(ctx, ids)
	if err != nil {
		return nil, err
	}
	mine, err := b.repos.Reactions.LikedComments(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}

	out := make([]CommentView, len(list))
	for i, c := range list {
		mentioned := make([]model.UserSummary, 0, len(c.Mentions))
		for _, uid := range c.Mentions {
			if s := summaryOf(users, uid); s != nil {
				mentioned = append(mentioned, *s)
			}
		}
		out[i] = CommentView{
			Comment:        c,
			Author:         summaryOf(users, c.AuthorID),
			MentionedUsers: mentioned,
			LikeCount:      likes[c.ID],
			LikedByMe:      mine[c.ID],
		}
	}
	return out, nil
}
