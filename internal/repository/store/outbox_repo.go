package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"Lee_Forum/internal/model"
)

type OutboxRepository struct {
	DB *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) *OutboxRepository {
	return &OutboxRepository{DB: db}
}

// Event 待写入 outbox 的领域事件
type Event struct {
	Type        string
	AggregateID uint64
	Data        map[string]any
}

// insertOutbox 必须在业务事务内调用
func insertOutbox(tx *gorm.DB, events ...Event) error {
	for _, ev := range events {
		body := map[string]any{"event_time": time.Now().UTC().Format(time.RFC3339Nano)}
		for k, v := range ev.Data {
			body[k] = v
		}
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		ob := &model.Outbox{
			EventID:     uuid.NewString(),
			EventType:   ev.Type,
			AggregateID: ev.AggregateID,
			Payload:     string(payload),
			Status:      model.OutboxPending,
		}
		if err := tx.Create(ob).Error; err != nil {
			return err
		}
	}
	return nil
}

// List 取一批待投递的事件
func (r *OutboxRepository) List(ctx context.Context, batchSize int) ([]model.Outbox, error) {
	var list []model.Outbox
	if err := r.DB.WithContext(ctx).
		Where("status = ?", model.OutboxPending).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// RetryUpdate 投递失败：重试次数 +1，达到上限后标记为失败，不再投递
func (r *OutboxRepository) RetryUpdate(ctx context.Context, id uint64, maxRetry int) error {
	var ob model.Outbox
	if err := r.DB.WithContext(ctx).Select("id", "retry").First(&ob, id).Error; err != nil {
		return notFound(err, "outbox", id)
	}
	retry := ob.Retry + 1
	status := model.OutboxPending
	if retry >= maxRetry {
		status = model.OutboxFailed
	}
	return r.DB.WithContext(ctx).Model(&model.Outbox{}).Where("id = ?", id).
		Updates(map[string]any{"retry": retry, "status": status}).Error
}

func (r *OutboxRepository) SuccessUpdate(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.Outbox{}).Where("id = ?", id).
		Update("status", model.OutboxSent).Error
}

// CountByStatus 运维/测试用
func (r *OutboxRepository) CountByStatus(ctx context.Context, status model.OutboxStatus) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Outbox{}).Where("status = ?", status).Count(&n).Error
	return n, err
}
