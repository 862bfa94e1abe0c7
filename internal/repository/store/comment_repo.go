package store

import (
	"context"
	"slices"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Lee_Forum/internal/apperr"
	"Lee_Forum/internal/model"
)

type CommentRepository struct {
	DB *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{DB: db}
}

// mentionEvents 每个被提及的用户一条事件，自己提及自己不通知
func mentionEvents(c *model.Comment, userIDs []uint64) []Event {
	var events []Event
	for _, uid := range userIDs {
		if uid == c.AuthorID {
			continue
		}
		events = append(events, Event{
			Type:        model.EventUserMentioned,
			AggregateID: c.ID,
			Data: map[string]any{
				"comment_id": c.ID,
				"thread_id":  c.ThreadID,
				"author_id":  c.AuthorID,
				"user_id":    uid,
			},
		})
	}
	return events
}

// Create 写评论以及 comment.created / user.mentioned 事件
func (r *CommentRepository) Create(ctx context.Context, c *model.Comment) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.Thread{}).Where("id = ?", c.ThreadID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return apperr.NotFound("thread", c.ThreadID)
		}
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		events := []Event{{
			Type:        model.EventCommentCreated,
			AggregateID: c.ID,
			Data: map[string]any{
				"comment_id": c.ID,
				"thread_id":  c.ThreadID,
				"author_id":  c.AuthorID,
			},
		}}
		events = append(events, mentionEvents(c, c.Mentions)...)
		return insertOutbox(tx, events...)
	})
}

func (r *CommentRepository) FindByID(ctx context.Context, id uint64) (*model.Comment, error) {
	var c model.Comment
	if err := r.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, notFound(err, "comment", id)
	}
	return &c, nil
}

// ListByThread 按时间正序
func (r *CommentRepository) ListByThread(ctx context.Context, threadID uint64) ([]model.Comment, error) {
	var list []model.Comment
	err := r.DB.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("created_at ASC").Order("id ASC").
		Find(&list).Error
	return list, err
}

func lockOwnedComment(tx *gorm.DB, id, requesterID uint64) (*model.Comment, error) {
	var c model.Comment
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&c, id).Error; err != nil {
		return nil, notFound(err, "comment", id)
	}
	if c.AuthorID != requesterID {
		return nil, apperr.Forbidden("only the author can modify this comment")
	}
	return &c, nil
}

// Update 修改正文和提及列表；只对新增的被提及用户发事件
func (r *CommentRepository) Update(ctx context.Context, id, requesterID uint64, body string, mentions []uint64) (*model.Comment, error) {
	var out *model.Comment
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := lockOwnedComment(tx, id, requesterID)
		if err != nil {
			return err
		}
		var added []uint64
		for _, uid := range mentions {
			if !slices.Contains(c.Mentions, uid) {
				added = append(added, uid)
			}
		}
		c.Body = body
		c.Mentions = datatypes.NewJSONSlice(mentions)
		if err := tx.Model(&model.Comment{}).Where("id = ?", id).
			Updates(map[string]any{"body": c.Body, "mentions": c.Mentions}).Error; err != nil {
			return err
		}
		out = c
		return insertOutbox(tx, mentionEvents(c, added)...)
	})
	return out, err
}

// Delete 只有作者可以删除，同时删除评论的点赞
func (r *CommentRepository) Delete(ctx context.Context, id, requesterID uint64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockOwnedComment(tx, id, requesterID); err != nil {
			return err
		}
		if err := tx.Where("comment_id = ?", id).Delete(&model.CommentLike{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Comment{}, id).Error
	})
}
