package store

import (
	"context"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Lee_Forum/internal/apperr"
	"Lee_Forum/internal/model"
)

type ThreadRepository struct {
	DB *gorm.DB
}

func NewThreadRepository(db *gorm.DB) *ThreadRepository {
	return &ThreadRepository{DB: db}
}

// nextThreadNumber 先对频道计数器做 +1 拿到行锁，再与现存最大编号对齐。
// 编号只增不减，删除帖子后也不会复用。
func nextThreadNumber(tx *gorm.DB, channelID uint64) (int64, error) {
	res := tx.Model(&model.Channel{}).
		Where("id = ?", channelID).
		UpdateColumn("thread_seq", gorm.Expr("thread_seq + 1"))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, apperr.NotFound("channel", channelID)
	}

	var ch model.Channel
	if err := tx.Select("id", "thread_seq").First(&ch, channelID).Error; err != nil {
		return 0, err
	}
	var max int64
	if err := tx.Model(&model.Thread{}).
		Where("channel_id = ?", channelID).
		Select("COALESCE(MAX(thread_number), 0)").
		Scan(&max).Error; err != nil {
		return 0, err
	}
	// 计数器落后（历史数据直接写入了帖子）时以最大编号为准
	if ch.ThreadSeq <= max {
		ch.ThreadSeq = max + 1
		if err := tx.Model(&model.Channel{}).
			Where("id = ?", channelID).
			UpdateColumn("thread_seq", ch.ThreadSeq).Error; err != nil {
			return 0, err
		}
	}
	return ch.ThreadSeq, nil
}

// Create 编号分配、帖子、可选的投票以及 thread.created 事件在同一事务内完成。
// t.Sticky 为 true 时同时把帖子加入频道置顶列表。
func (r *ThreadRepository) Create(ctx context.Context, t *model.Thread, poll *model.Poll) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		num, err := nextThreadNumber(tx, t.ChannelID)
		if err != nil {
			return err
		}
		t.ThreadNumber = num
		if err := tx.Create(t).Error; err != nil {
			return err
		}
		if poll != nil {
			poll.ThreadID = t.ID
			if err := tx.Create(poll).Error; err != nil {
				return err
			}
		}
		if t.Sticky {
			if err := pinInChannel(tx, t.ChannelID, t.ID); err != nil {
				return err
			}
		}
		return insertOutbox(tx, Event{
			Type:        model.EventThreadCreated,
			AggregateID: t.ID,
			Data: map[string]any{
				"thread_id":     t.ID,
				"channel_id":    t.ChannelID,
				"thread_number": t.ThreadNumber,
				"author_id":     t.AuthorID,
				"title":         t.Title,
				"type":          t.Type,
			},
		})
	})
}

// pinInChannel 把帖子追加到频道置顶列表；频道行已被编号分配锁住
func pinInChannel(tx *gorm.DB, channelID, threadID uint64) error {
	var ch model.Channel
	if err := tx.Select("id", "sticky_posts").First(&ch, channelID).Error; err != nil {
		return notFound(err, "channel", channelID)
	}
	return tx.Model(&model.Channel{}).Where("id = ?", channelID).
		UpdateColumn("sticky_posts", datatypes.NewJSONSlice(model.WithSticky(ch.StickyPosts, threadID))).Error
}

// FindWelcome 频道内最早的置顶帖或标题相同的帖子，没有时返回 NotFound
func (r *ThreadRepository) FindWelcome(ctx context.Context, channelID uint64, title string) (*model.Thread, error) {
	var t model.Thread
	if err := r.DB.WithContext(ctx).
		Where("channel_id = ? AND (sticky = ? OR title = ?)", channelID, true, title).
		Order("thread_number ASC").
		First(&t).Error; err != nil {
		return nil, notFound(err, "thread", channelID)
	}
	return &t, nil
}

func (r *ThreadRepository) FindByID(ctx context.Context, id uint64) (*model.Thread, error) {
	var t model.Thread
	if err := r.DB.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, notFound(err, "thread", id)
	}
	return &t, nil
}

func (r *ThreadRepository) FindByNumber(ctx context.Context, channelID uint64, number int64) (*model.Thread, error) {
	var t model.Thread
	if err := r.DB.WithContext(ctx).
		Where("channel_id = ? AND thread_number = ?", channelID, number).
		First(&t).Error; err != nil {
		return nil, notFound(err, "thread", number)
	}
	return &t, nil
}

// ListByChannel 按编号倒序
func (r *ThreadRepository) ListByChannel(ctx context.Context, channelID uint64) ([]model.Thread, error) {
	var list []model.Thread
	err := r.DB.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Order("thread_number DESC").
		Find(&list).Error
	return list, err
}

// CountComments thread_id -> 评论数
func (r *ThreadRepository) CountComments(ctx context.Context, threadIDs []uint64) (map[uint64]int64, error) {
	return countGrouped(r.DB.WithContext(ctx), &model.Comment{}, "thread_id", threadIDs)
}

// lockOwned 锁住帖子并校验作者
func lockOwned(tx *gorm.DB, id, requesterID uint64) (*model.Thread, error) {
	var t model.Thread
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&t, id).Error; err != nil {
		return nil, notFound(err, "thread", id)
	}
	if t.AuthorID != requesterID {
		return nil, apperr.Forbidden("only the author can modify this thread")
	}
	return &t, nil
}

// Update 只有作者可以修改；编号不可修改
func (r *ThreadRepository) Update(ctx context.Context, id, requesterID uint64, fields map[string]any) (*model.Thread, error) {
	var out *model.Thread
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := lockOwned(tx, id, requesterID)
		if err != nil {
			return err
		}
		delete(fields, "thread_number")
		if len(fields) > 0 {
			if err := tx.Model(&model.Thread{}).Where("id = ?", id).Updates(fields).Error; err != nil {
				return err
			}
			if err := tx.First(t, id).Error; err != nil {
				return err
			}
		}
		out = t
		return nil
	})
	return out, err
}

// Delete 只有作者可以删除；级联删除评论、评论点赞、帖子点赞、投票及选票，并从频道置顶列表移除
func (r *ThreadRepository) Delete(ctx context.Context, id, requesterID uint64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := lockOwned(tx, id, requesterID)
		if err != nil {
			return err
		}

		var commentIDs []uint64
		if err := tx.Model(&model.Comment{}).Where("thread_id = ?", id).Pluck("id", &commentIDs).Error; err != nil {
			return err
		}
		if len(commentIDs) > 0 {
			if err := tx.Where("comment_id IN ?", commentIDs).Delete(&model.CommentLike{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", commentIDs).Delete(&model.Comment{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("thread_id = ?", id).Delete(&model.ThreadUpvote{}).Error; err != nil {
			return err
		}

		var pollIDs []uint64
		if err := tx.Model(&model.Poll{}).Where("thread_id = ?", id).Pluck("id", &pollIDs).Error; err != nil {
			return err
		}
		if len(pollIDs) > 0 {
			if err := tx.Where("poll_id IN ?", pollIDs).Delete(&model.PollVote{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", pollIDs).Delete(&model.Poll{}).Error; err != nil {
				return err
			}
		}

		var ch model.Channel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&ch, t.ChannelID).Error; err == nil {
			list := model.WithoutSticky(ch.StickyPosts, id)
			if len(list) != len(ch.StickyPosts) {
				if err := tx.Model(&model.Channel{}).Where("id = ?", ch.ID).
					UpdateColumn("sticky_posts", datatypes.NewJSONSlice(list)).Error; err != nil {
					return err
				}
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return tx.Delete(&model.Thread{}, id).Error
	})
}

type groupCount struct {
	GroupKey uint64
	N        int64
}

// countGrouped SELECT col, COUNT(*) ... WHERE col IN ids GROUP BY col
func countGrouped(db *gorm.DB, m any, col string, ids []uint64) (map[uint64]int64, error) {
	out := make(map[uint64]int64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []groupCount
	if err := db.Model(m).
		Select(col+" AS group_key, COUNT(*) AS n").
		Where(col+" IN ?", ids).
		Group(col).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.GroupKey] = row.N
	}
	return out, nil
}
