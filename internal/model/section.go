package model

import "time"

type SectionStatus string

const (
	SectionDraft SectionStatus = "draft"
	SectionLive  SectionStatus = "live"
)

// NormalizeStatus 缺省状态视为 draft
func NormalizeStatus(s SectionStatus) SectionStatus {
	if s == SectionLive {
		return SectionLive
	}
	return SectionDraft
}

type Section struct {
	ID         uint64        `gorm:"primaryKey" json:"id"`
	Name       string        `gorm:"size:64;not null;index" json:"name"`
	Color      string        `gorm:"size:16" json:"color"`
	Status     SectionStatus `gorm:"size:8;not null;default:draft;index:idx_section_status_order,priority:1" json:"status"`
	OrderIndex int           `gorm:"not null;default:0;index:idx_section_status_order,priority:2" json:"order_index"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

func (s *Section) EffectiveStatus() SectionStatus {
	return NormalizeStatus(s.Status)
}
