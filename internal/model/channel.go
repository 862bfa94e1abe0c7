package model

import (
	"slices"
	"time"

	"gorm.io/datatypes"
)

type ChannelType string

const (
	ChannelDiscussion ChannelType = "discussion"
	ChannelTemplates  ChannelType = "templates"
	ChannelModules    ChannelType = "modules"
)

func (t ChannelType) Valid() bool {
	return t == ChannelDiscussion || t == ChannelTemplates || t == ChannelModules
}

type Channel struct {
	ID          uint64                      `gorm:"primaryKey" json:"id"`
	Name        string                      `gorm:"size:64;not null" json:"name"`
	Slug        string                      `gorm:"uniqueIndex;size:64;not null" json:"slug"`
	Type        ChannelType                 `gorm:"size:16;not null;default:discussion" json:"type"`
	SectionID   *uint64                     `gorm:"index:idx_channel_section_order,priority:1" json:"section_id"`
	CreatorID   uint64                      `gorm:"not null;index" json:"creator_id"`
	StickyPosts datatypes.JSONSlice[uint64] `json:"sticky_posts"` // 置顶帖 ID，有序
	OrderIndex  int                         `gorm:"not null;default:0;index:idx_channel_section_order,priority:2" json:"order_index"`
	Visible     bool                        `gorm:"not null" json:"visible"`
	ThreadSeq   int64                       `gorm:"not null;default:0" json:"-"` // 频道内帖子编号计数器
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}

// WithSticky 追加置顶（去重，保持顺序）
func WithSticky(list []uint64, threadID uint64) []uint64 {
	if slices.Contains(list, threadID) {
		return list
	}
	out := make([]uint64, 0, len(list)+1)
	out = append(out, list...)
	return append(out, threadID)
}

// WithoutSticky 移除置顶
func WithoutSticky(list []uint64, threadID uint64) []uint64 {
	out := make([]uint64, 0, len(list))
	for _, id := range list {
		if id != threadID {
			out = append(out, id)
		}
	}
	return out
}
