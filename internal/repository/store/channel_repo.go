package store

import (
	"context"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Lee_Forum/internal/apperr"
	"Lee_Forum/internal/model"
	"Lee_Forum/internal/ordering"
)

type ChannelRepository struct {
	DB *gorm.DB
}

func NewChannelRepository(db *gorm.DB) *ChannelRepository {
	return &ChannelRepository{DB: db}
}

func sectionScope(q *gorm.DB, sectionID *uint64) *gorm.DB {
	if sectionID == nil {
		return q.Where("section_id IS NULL")
	}
	return q.Where("section_id = ?", *sectionID)
}

func nextChannelIndex(tx *gorm.DB, sectionID *uint64) (int, error) {
	var max int
	err := sectionScope(tx.Model(&model.Channel{}), sectionID).
		Select("COALESCE(MAX(order_index), 0)").
		Scan(&max).Error
	return max + 1, err
}

// NextOrderIndex 分区内的下一个排序号；sectionID 为 nil 表示未分区
func (r *ChannelRepository) NextOrderIndex(ctx context.Context, sectionID *uint64) (int, error) {
	return nextChannelIndex(r.DB.WithContext(ctx), sectionID)
}

// ensureSection 以共享锁读分区，与 SectionRepository.Delete 的排他锁互斥，
// 避免频道指向一个刚被删除的分区
func ensureSection(tx *gorm.DB, sectionID *uint64) error {
	if sectionID == nil {
		return nil
	}
	var s model.Section
	if err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
		Select("id").First(&s, *sectionID).Error; err != nil {
		return notFound(err, "section", *sectionID)
	}
	return nil
}

// Create slug 唯一；OrderIndex 为 0 时取分区内的下一个排序号
func (r *ChannelRepository) Create(ctx context.Context, ch *model.Channel) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.Channel{}).Where("slug = ?", ch.Slug).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return apperr.Duplicate("channel", "slug", ch.Slug)
		}
		if err := ensureSection(tx, ch.SectionID); err != nil {
			return err
		}
		if ch.OrderIndex == 0 {
			idx, err := nextChannelIndex(tx, ch.SectionID)
			if err != nil {
				return err
			}
			ch.OrderIndex = idx
		}
		return tx.Create(ch).Error
	})
	if isDuplicate(err) {
		return apperr.Duplicate("channel", "slug", ch.Slug)
	}
	return err
}

func (r *ChannelRepository) FindByID(ctx context.Context, id uint64) (*model.Channel, error) {
	var ch model.Channel
	if err := r.DB.WithContext(ctx).First(&ch, id).Error; err != nil {
		return nil, notFound(err, "channel", id)
	}
	return &ch, nil
}

func (r *ChannelRepository) FindBySlug(ctx context.Context, slug string) (*model.Channel, error) {
	var ch model.Channel
	if err := r.DB.WithContext(ctx).Where("slug = ?", slug).First(&ch).Error; err != nil {
		return nil, notFound(err, "channel", slug)
	}
	return &ch, nil
}

// ListBySection 某个分区内的频道，按排序号
func (r *ChannelRepository) ListBySection(ctx context.Context, sectionID *uint64, includeHidden bool) ([]model.Channel, error) {
	q := sectionScope(r.DB.WithContext(ctx).Model(&model.Channel{}), sectionID)
	if !includeHidden {
		q = q.Where("visible = ?", true)
	}
	var list []model.Channel
	err := q.Order("order_index ASC").Order("id ASC").Find(&list).Error
	return list, err
}

// ListAll 全部频道，按分区再按排序号
func (r *ChannelRepository) ListAll(ctx context.Context, includeHidden bool) ([]model.Channel, error) {
	q := r.DB.WithContext(ctx).Model(&model.Channel{})
	if !includeHidden {
		q = q.Where("visible = ?", true)
	}
	var list []model.Channel
	err := q.Order("section_id ASC").Order("order_index ASC").Order("id ASC").Find(&list).Error
	return list, err
}

func (r *ChannelRepository) Update(ctx context.Context, id uint64, fields map[string]any) (*model.Channel, error) {
	var ch model.Channel
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&ch, id).Error; err != nil {
			return notFound(err, "channel", id)
		}
		if len(fields) == 0 {
			return nil
		}
		if err := tx.Model(&model.Channel{}).Where("id = ?", id).Updates(fields).Error; err != nil {
			return err
		}
		return tx.First(&ch, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// MoveToSection 换分区后排到新分区末尾
func (r *ChannelRepository) MoveToSection(ctx context.Context, id uint64, sectionID *uint64) (*model.Channel, error) {
	var ch model.Channel
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&ch, id).Error; err != nil {
			return notFound(err, "channel", id)
		}
		if sameSection(ch.SectionID, sectionID) {
			return nil
		}
		if err := ensureSection(tx, sectionID); err != nil {
			return err
		}
		idx, err := nextChannelIndex(tx, sectionID)
		if err != nil {
			return err
		}
		if err := tx.Model(&model.Channel{}).Where("id = ?", id).
			Updates(map[string]any{"section_id": sectionID, "order_index": idx}).Error; err != nil {
			return err
		}
		ch.SectionID = sectionID
		ch.OrderIndex = idx
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func sameSection(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Reorder 按调用方给出的顺序写入排序号，允许有空洞
func (r *ChannelRepository) Reorder(ctx context.Context, items []ordering.Item) error {
	items = ordering.Dedupe(items)
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, it := range items {
			if err := tx.Model(&model.Channel{}).
				Where("id = ?", it.ID).
				UpdateColumn("order_index", it.Index).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete 频道下仍有帖子时拒绝删除
func (r *ChannelRepository) Delete(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ch model.Channel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&ch, id).Error; err != nil {
			return notFound(err, "channel", id)
		}
		var n int64
		if err := tx.Model(&model.Thread{}).Where("channel_id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return &apperr.Error{
				Kind:    apperr.KindInvalid,
				Entity:  "channel",
				ID:      id,
				Field:   "threads",
				Message: fmt.Sprintf("channel %d still has %d thread(s)", id, n),
			}
		}
		return tx.Delete(&model.Channel{}, id).Error
	})
}

// SetSticky 同时修改帖子的置顶标记和频道的置顶列表
func (r *ChannelRepository) SetSticky(ctx context.Context, threadID uint64, sticky bool) (*model.Channel, error) {
	var ch model.Channel
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t model.Thread
		if err := tx.First(&t, threadID).Error; err != nil {
			return notFound(err, "thread", threadID)
		}
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&ch, t.ChannelID).Error; err != nil {
			return notFound(err, "channel", t.ChannelID)
		}
		var list []uint64
		if sticky {
			list = model.WithSticky(ch.StickyPosts, threadID)
		} else {
			list = model.WithoutSticky(ch.StickyPosts, threadID)
		}
		if err := tx.Model(&model.Thread{}).Where("id = ?", threadID).UpdateColumn("sticky", sticky).Error; err != nil {
			return err
		}
		ch.StickyPosts = datatypes.NewJSONSlice(list)
		return tx.Model(&model.Channel{}).Where("id = ?", ch.ID).
			UpdateColumn("sticky_posts", ch.StickyPosts).Error
	})
	if err != nil {
		return nil, err
	}
	return &ch, nil
}
