package service

import (
	"context"

	"Lee_Forum/internal/repository/store"
)

type PollService struct {
	identity *IdentityService
	polls    *store.PollRepository
	views    viewBuilder
}

func NewPollService(repos *store.Repositories, identity *IdentityService) *PollService {
	return &PollService{identity: identity, polls: repos.Polls, views: viewBuilder{repos: repos}}
}

// CastPollVote 每个用户每个投票只能投一次，重复投票返回 InvalidArgument(field=user)
func (s *PollService) CastPollVote(ctx context.Context, principal string, pollID uint64, optionIndex int) (*PollView, error) {
	u, err := s.identity.RequireUser(ctx, principal)
	if err != nil {
		return nil, err
	}
	if _, err := s.polls.CastVote(ctx, pollID, u.ID, optionIndex); err != nil {
		return nil, err
	}
	p, err := s.polls.FindByID(ctx, pollID)
	if err != nil {
		return nil, err
	}
	return s.views.poll(ctx, u.ID, p)
}

// PollResults 各选项票数与百分比
func (s *PollService) PollResults(ctx context.Context, viewer string, pollID uint64) (*PollView, error) {
	p, err := s.polls.FindByID(ctx, pollID)
	if err != nil {
		return nil, err
	}
	return s.views.poll(ctx, s.identity.viewerID(ctx, viewer), p)
}
