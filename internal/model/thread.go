package model

import "time"

type ThreadType string

const (
	ThreadText ThreadType = "text"
	ThreadPoll ThreadType = "poll"
)

type Thread struct {
	ID           uint64     `gorm:"primaryKey" json:"id"`
	ChannelID    uint64     `gorm:"not null;uniqueIndex:uk_channel_thread_number,priority:1" json:"channel_id"`
	ThreadNumber int64      `gorm:"not null;uniqueIndex:uk_channel_thread_number,priority:2" json:"thread_number"`
	Title        string     `gorm:"size:200;not null" json:"title"`
	Slug         string     `gorm:"size:64;not null;index" json:"slug"`
	Body         *string    `gorm:"type:text" json:"body"` // 纯投票帖可以没有正文
	AuthorID     uint64     `gorm:"not null;index" json:"author_id"`
	Sticky       bool       `gorm:"not null;default:false" json:"sticky"`
	ImageURL     string     `gorm:"size:512" json:"image_url"`
	Type         ThreadType `gorm:"size:8;not null;default:text" json:"type"`
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ThreadUpvote 帖子点赞集合的一行：(thread_id, user_id) 唯一
type ThreadUpvote struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ThreadID  uint64    `gorm:"not null;uniqueIndex:uk_thread_upvote_user,priority:1" json:"thread_id"`
	UserID    uint64    `gorm:"not null;uniqueIndex:uk_thread_upvote_user,priority:2;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (ThreadUpvote) TableName() string {
	return "thread_upvotes"
}
