package store

import (
	"context"

	"gorm.io/gorm"

	"Lee_Forum/internal/apperr"
	"Lee_Forum/internal/model"
)

// ReactionRepository 评论点赞与帖子点赞：每个 (目标, 用户) 一行，切换即增删该行
type ReactionRepository struct {
	DB *gorm.DB
}

func NewReactionRepository(db *gorm.DB) *ReactionRepository {
	return &ReactionRepository{DB: db}
}

// toggle 先删后插：删到了说明原来在集合里，返回 false；否则插入并返回 true。
// 只动当前用户自己的那一行，不会覆盖其他用户的并发修改。
func toggle(tx *gorm.DB, row any, where string, targetID, userID uint64) (bool, error) {
	res := tx.Where(where+" = ? AND user_id = ?", targetID, userID).Delete(row)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return false, nil
	}
	if err := tx.Create(row).Error; err != nil {
		return false, err
	}
	return true, nil
}

func ensureExists(tx *gorm.DB, m any, entity string, id uint64) error {
	var n int64
	if err := tx.Model(m).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound(entity, id)
	}
	return nil
}

// ToggleCommentLike 返回切换后的状态
func (r *ReactionRepository) ToggleCommentLike(ctx context.Context, commentID, userID uint64) (bool, error) {
	var liked bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureExists(tx, &model.Comment{}, "comment", commentID); err != nil {
			return err
		}
		var err error
		liked, err = toggle(tx, &model.CommentLike{CommentID: commentID, UserID: userID}, "comment_id", commentID, userID)
		return err
	})
	// 并发下同一用户的两次插入撞唯一索引：集合里已经有了
	if isDuplicate(err) {
		return true, nil
	}
	return liked, err
}

// ToggleThreadUpvote 返回切换后的状态
func (r *ReactionRepository) ToggleThreadUpvote(ctx context.Context, threadID, userID uint64) (bool, error) {
	var upvoted bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureExists(tx, &model.Thread{}, "thread", threadID); err != nil {
			return err
		}
		var err error
		upvoted, err = toggle(tx, &model.ThreadUpvote{ThreadID: threadID, UserID: userID}, "thread_id", threadID, userID)
		return err
	})
	if isDuplicate(err) {
		return true, nil
	}
	return upvoted, err
}

func (r *ReactionRepository) CountCommentLikes(ctx context.Context, commentIDs []uint64) (map[uint64]int64, error) {
	return countGrouped(r.DB.WithContext(ctx), &model.CommentLike{}, "comment_id", commentIDs)
}

func (r *ReactionRepository) CountThreadUpvotes(ctx context.Context, threadIDs []uint64) (map[uint64]int64, error) {
	return countGrouped(r.DB.WithContext(ctx), &model.ThreadUpvote{}, "thread_id", threadIDs)
}

// CommentLikers 某条评论的点赞用户集合，用于回填缓存
func (r *ReactionRepository) CommentLikers(ctx context.Context, commentID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.DB.WithContext(ctx).Model(&model.CommentLike{}).
		Where("comment_id = ?", commentID).Pluck("user_id", &ids).Error
	return ids, err
}

func (r *ReactionRepository) ThreadUpvoters(ctx context.Context, threadID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.DB.WithContext(ctx).Model(&model.ThreadUpvote{}).
		Where("thread_id = ?", threadID).Pluck("user_id", &ids).Error
	return ids, err
}

// LikedComments 给定评论中 userID 点过赞的那些
func (r *ReactionRepository) LikedComments(ctx context.Context, userID uint64, commentIDs []uint64) (map[uint64]bool, error) {
	return memberOf(r.DB.WithContext(ctx), &model.CommentLike{}, "comment_id", userID, commentIDs)
}

func (r *ReactionRepository) UpvotedThreads(ctx context.Context, userID uint64, threadIDs []uint64) (map[uint64]bool, error) {
	return memberOf(r.DB.WithContext(ctx), &model.ThreadUpvote{}, "thread_id", userID, threadIDs)
}

func memberOf(db *gorm.DB, m any, col string, userID uint64, ids []uint64) (map[uint64]bool, error) {
	out := make(map[uint64]bool, len(ids))
	if userID == 0 || len(ids) == 0 {
		return out, nil
	}
	var hit []uint64
	if err := db.Model(m).Where("user_id = ? AND "+col+" IN ?", userID, ids).Pluck(col, &hit).Error; err != nil {
		return nil, err
	}
	for _, id := range hit {
		out[id] = true
	}
	return out, nil
}
