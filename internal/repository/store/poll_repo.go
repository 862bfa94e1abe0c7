package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Lee_Forum/internal/apperr"
	"Lee_Forum/internal/model"
)

type PollRepository struct {
	DB *gorm.DB
}

func NewPollRepository(db *gorm.DB) *PollRepository {
	return &PollRepository{DB: db}
}

func (r *PollRepository) FindByID(ctx context.Context, id uint64) (*model.Poll, error) {
	var p model.Poll
	if err := r.DB.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err, "poll", id)
	}
	return &p, nil
}

func (r *PollRepository) FindByThreadID(ctx context.Context, threadID uint64) (*model.Poll, error) {
	var p model.Poll
	if err := r.DB.WithContext(ctx).Where("thread_id = ?", threadID).First(&p).Error; err != nil {
		return nil, notFound(err, "poll", threadID)
	}
	return &p, nil
}

// FindByThreadIDs thread_id -> poll
func (r *PollRepository) FindByThreadIDs(ctx context.Context, threadIDs []uint64) (map[uint64]*model.Poll, error) {
	out := make(map[uint64]*model.Poll, len(threadIDs))
	if len(threadIDs) == 0 {
		return out, nil
	}
	var list []model.Poll
	if err := r.DB.WithContext(ctx).Where("thread_id IN ?", threadIDs).Find(&list).Error; err != nil {
		return nil, err
	}
	for i := range list {
		out[list[i].ThreadID] = &list[i]
	}
	return out, nil
}

var errAlreadyVoted = apperr.Invalid("user", "already voted on this poll")

// CastVote 选项越界返回 InvalidArgument；同一用户对同一投票只能投一次。
// 是否已投票的检查与写入在同一事务内，并由 (poll_id, user_id) 唯一索引兜底。
func (r *PollRepository) CastVote(ctx context.Context, pollID, userID uint64, optionIndex int) (*model.PollVote, error) {
	var vote *model.PollVote
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p model.Poll
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, pollID).Error; err != nil {
			return notFound(err, "poll", pollID)
		}
		if optionIndex < 0 || optionIndex >= len(p.Options) {
			return apperr.Invalid("option_index",
				fmt.Sprintf("option index %d out of range [0, %d)", optionIndex, len(p.Options)))
		}
		var n int64
		if err := tx.Model(&model.PollVote{}).
			Where("poll_id = ? AND user_id = ?", pollID, userID).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return errAlreadyVoted
		}
		vote = &model.PollVote{PollID: pollID, UserID: userID, OptionIndex: optionIndex}
		return tx.Create(vote).Error
	})
	if isDuplicate(err) {
		return nil, errAlreadyVoted
	}
	if err != nil {
		return nil, err
	}
	return vote, nil
}

type optionCount struct {
	OptionIndex int
	N           int
}

// Counts 每个选项的票数，长度与选项数一致
func (r *PollRepository) Counts(ctx context.Context, pollID uint64, options int) ([]int, error) {
	var rows []optionCount
	if err := r.DB.WithContext(ctx).Model(&model.PollVote{}).
		Select("option_index, COUNT(*) AS n").
		Where("poll_id = ?", pollID).
		Group("option_index").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make([]int, options)
	for _, row := range rows {
		if row.OptionIndex >= 0 && row.OptionIndex < options {
			counts[row.OptionIndex] = row.N
		}
	}
	return counts, nil
}

// UserVote 用户在该投票中的选项；未投票返回 nil
func (r *PollRepository) UserVote(ctx context.Context, pollID, userID uint64) (*int, error) {
	var v model.PollVote
	err := r.DB.WithContext(ctx).
		Where("poll_id = ? AND user_id = ?", pollID, userID).
		Limit(1).Find(&v).Error
	if err != nil {
		return nil, err
	}
	if v.ID == 0 {
		return nil, nil
	}
	return &v.OptionIndex, nil
}

func (r *PollRepository) CountVotes(ctx context.Context, pollID uint64) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.PollVote{}).Where("poll_id = ?", pollID).Count(&n).Error
	return n, err
}

type pollOptionCount struct {
	PollID      uint64
	OptionIndex int
	N           int
}

// CountsByPolls 一次分组查询得到多个投票的各选项票数，key 为 poll id
func (r *PollRepository) CountsByPolls(ctx context.Context, polls []*model.Poll) (map[uint64][]int, error) {
	out := make(map[uint64][]int, len(polls))
	if len(polls) == 0 {
		return out, nil
	}
	ids := make([]uint64, len(polls))
	for i, p := range polls {
		ids[i] = p.ID
		out[p.ID] = make([]int, len(p.Options))
	}
	var rows []pollOptionCount
	if err := r.DB.WithContext(ctx).Model(&model.PollVote{}).
		Select("poll_id, option_index, COUNT(*) AS n").
		Where("poll_id IN ?", ids).
		Group("poll_id, option_index").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts := out[row.PollID]
		if row.OptionIndex >= 0 && row.OptionIndex < len(counts) {
			counts[row.OptionIndex] = row.N
		}
	}
	return out, nil
}

// UserVotes 用户在多个投票中的选项，未投票的不在结果中
func (r *PollRepository) UserVotes(ctx context.Context, pollIDs []uint64, userID uint64) (map[uint64]int, error) {
	out := make(map[uint64]int)
	if len(pollIDs) == 0 || userID == 0 {
		return out, nil
	}
	var list []model.PollVote
	if err := r.DB.WithContext(ctx).
		Where("poll_id IN ? AND user_id = ?", pollIDs, userID).
		Find(&list).Error; err != nil {
		return nil, err
	}
	for _, v := range list {
		out[v.PollID] = v.OptionIndex
	}
	return out, nil
}
