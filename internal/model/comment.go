package model

import (
	"time"

	"gorm.io/datatypes"
)

type Comment struct {
	ID        uint64                      `gorm:"primaryKey" json:"id"`
	ThreadID  uint64                      `gorm:"not null;index:idx_comment_thread_time,priority:1" json:"thread_id"`
	AuthorID  uint64                      `gorm:"not null;index" json:"author_id"`
	Body      string                      `gorm:"type:text;not null" json:"body"`
	Mentions  datatypes.JSONSlice[uint64] `json:"mentions"` // 已解析的被提及用户 ID，去重
	CreatedAt time.Time                   `gorm:"index:idx_comment_thread_time,priority:2" json:"created_at"`
	UpdatedAt time.Time                   `json:"updated_at"`
}

type CommentLike struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	CommentID uint64    `gorm:"not null;uniqueIndex:uk_comment_like_user,priority:1" json:"comment_id"`
	UserID    uint64    `gorm:"not null;uniqueIndex:uk_comment_like_user,priority:2;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (CommentLike) TableName() string {
	return "comment_likes"
}
