package model

import (
	"time"

	"gorm.io/datatypes"
)

type Poll struct {
	ID             uint64                      `gorm:"primaryKey" json:"id"`
	ThreadID       uint64                      `gorm:"not null;uniqueIndex" json:"thread_id"`
	Question       string                      `gorm:"size:300;not null" json:"question"`
	Options        datatypes.JSONSlice[string] `gorm:"not null" json:"options"`
	MultipleChoice bool                        `gorm:"not null;default:false" json:"multiple_choice"`
	CreatedAt      time.Time                   `json:"created_at"`
}

// PollVote 每个 (poll, user) 最多一票
type PollVote struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	PollID      uint64    `gorm:"not null;uniqueIndex:uk_poll_vote_user,priority:1;index:idx_poll_option,priority:1" json:"poll_id"`
	UserID      uint64    `gorm:"not null;uniqueIndex:uk_poll_vote_user,priority:2" json:"user_id"`
	OptionIndex int       `gorm:"not null;index:idx_poll_option,priority:2" json:"option_index"`
	CreatedAt   time.Time `json:"created_at"`
}
