package model

import "time"

const (
	EventThreadCreated  = "thread.created"
	EventCommentCreated = "comment.created"
	EventUserMentioned  = "user.mentioned"
)

type OutboxStatus int8

const (
	OutboxPending OutboxStatus = 0
	OutboxSent    OutboxStatus = 1
	OutboxFailed  OutboxStatus = 2
)

// Outbox 领域事件外发表，与业务写入同一事务落库
type Outbox struct {
	ID          uint64       `gorm:"primaryKey" json:"id"`
	EventID     string       `gorm:"size:36;uniqueIndex;not null" json:"event_id"`
	EventType   string       `gorm:"size:32;not null" json:"event_type"`
	AggregateID uint64       `gorm:"not null" json:"aggregate_id"`
	Payload     string       `gorm:"type:text;not null" json:"payload"`
	Status      OutboxStatus `gorm:"not null;default:0;index" json:"status"`
	Retry       int          `gorm:"not null;default:0" json:"retry"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (Outbox) TableName() string { return "outbox" }
