package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Lee_Forum/internal/apperr"
	"Lee_Forum/internal/model"
	"Lee_Forum/internal/ordering"
)

type SectionRepository struct {
	DB *gorm.DB
}

func NewSectionRepository(db *gorm.DB) *SectionRepository {
	return &SectionRepository{DB: db}
}

// statusBucket 缺省状态的历史数据归入 draft
func statusBucket(s model.SectionStatus) []string {
	if model.NormalizeStatus(s) == model.SectionLive {
		return []string{string(model.SectionLive)}
	}
	return []string{string(model.SectionDraft), ""}
}

func nextSectionIndex(tx *gorm.DB, status model.SectionStatus) (int, error) {
	var max int
	err := tx.Model(&model.Section{}).
		Where("status IN ?", statusBucket(status)).
		Select("COALESCE(MAX(order_index), 0)").
		Scan(&max).Error
	return max + 1, err
}

// NextOrderIndex 某个状态桶内的下一个排序号
func (r *SectionRepository) NextOrderIndex(ctx context.Context, status model.SectionStatus) (int, error) {
	return nextSectionIndex(r.DB.WithContext(ctx), status)
}

// Create OrderIndex 为 0 时取所在状态桶的下一个排序号
func (r *SectionRepository) Create(ctx context.Context, s *model.Section) error {
	s.Status = model.NormalizeStatus(s.Status)
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.OrderIndex == 0 {
			idx, err := nextSectionIndex(tx, s.Status)
			if err != nil {
				return err
			}
			s.OrderIndex = idx
		}
		return tx.Create(s).Error
	})
}

func (r *SectionRepository) FindByID(ctx context.Context, id uint64) (*model.Section, error) {
	var s model.Section
	if err := r.DB.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, notFound(err, "section", id)
	}
	return &s, nil
}

func (r *SectionRepository) FindByName(ctx context.Context, name string) (*model.Section, error) {
	var s model.Section
	if err := r.DB.WithContext(ctx).Where("name = ?", name).Order("id ASC").First(&s).Error; err != nil {
		return nil, notFound(err, "section", name)
	}
	return &s, nil
}

// List status 为空时返回全部，先 live 后 draft，桶内按排序号
func (r *SectionRepository) List(ctx context.Context, status model.SectionStatus) ([]model.Section, error) {
	q := r.DB.WithContext(ctx).Model(&model.Section{})
	if status != "" {
		q = q.Where("status IN ?", statusBucket(status))
	}
	var list []model.Section
	err := q.Order(clause.OrderByColumn{Column: clause.Column{Name: "status"}, Desc: true}).
		Order("order_index ASC").
		Order("id ASC").
		Find(&list).Error
	return list, err
}

func (r *SectionRepository) Update(ctx context.Context, id uint64, fields map[string]any) (*model.Section, error) {
	var s model.Section
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&s, id).Error; err != nil {
			return notFound(err, "section", id)
		}
		if len(fields) == 0 {
			return nil
		}
		if err := tx.Model(&model.Section{}).Where("id = ?", id).Updates(fields).Error; err != nil {
			return err
		}
		return tx.First(&s, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ToggleStatus draft ⇄ live，排序号保持不变
func (r *SectionRepository) ToggleStatus(ctx context.Context, id uint64) (*model.Section, error) {
	var s model.Section
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&s, id).Error; err != nil {
			return notFound(err, "section", id)
		}
		next := model.SectionLive
		if s.EffectiveStatus() == model.SectionLive {
			next = model.SectionDraft
		}
		if err := tx.Model(&s).UpdateColumn("status", next).Error; err != nil {
			return err
		}
		s.Status = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Reorder 按调用方给出的顺序写入排序号，不存在的 ID 忽略
func (r *SectionRepository) Reorder(ctx context.Context, items []ordering.Item) error {
	items = ordering.Dedupe(items)
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, it := range items {
			if err := tx.Model(&model.Section{}).
				Where("id = ?", it.ID).
				UpdateColumn("order_index", it.Index).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// PublishRenumber live 桶按当前排序号重排为 1..N，只写变化的行
func (r *SectionRepository) PublishRenumber(ctx context.Context) ([]model.Section, error) {
	var live []model.Section
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("status = ?", model.SectionLive).
			Order("order_index ASC").Order("id ASC").
			Find(&live).Error; err != nil {
			return err
		}
		items := make([]ordering.Item, len(live))
		for i, s := range live {
			items[i] = ordering.Item{ID: s.ID, Index: s.OrderIndex}
		}
		changes := ordering.Renumber(items)
		for _, c := range changes {
			if err := tx.Model(&model.Section{}).
				Where("id = ?", c.ID).
				UpdateColumn("order_index", c.Index).Error; err != nil {
				return err
			}
		}
		for i := range live {
			live[i].OrderIndex = i + 1
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return live, nil
}

// Delete 仍有频道引用时拒绝删除
func (r *SectionRepository) Delete(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var s model.Section
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&s, id).Error; err != nil {
			return notFound(err, "section", id)
		}
		var n int64
		if err := tx.Model(&model.Channel{}).Where("section_id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return &apperr.Error{
				Kind:    apperr.KindInvalid,
				Entity:  "section",
				ID:      id,
				Field:   "channels",
				Message: fmt.Sprintf("section %d is referenced by %d channel(s)", id, n),
			}
		}
		return tx.Delete(&model.Section{}, id).Error
	})
}
