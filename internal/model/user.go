package model

import "time"

type Role string

const (
	RoleMember    Role = "member"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// NormalizeRole 未设置或未知的角色一律视为 member
func NormalizeRole(role Role) Role {
	switch role {
	case RoleMember, RoleModerator, RoleAdmin:
		return role
	default:
		return RoleMember
	}
}

func (r Role) Valid() bool {
	return r == RoleMember || r == RoleModerator || r == RoleAdmin
}

type User struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	ExternalID  string    `gorm:"uniqueIndex;size:128;not null" json:"-"` // 身份提供方给出的稳定主体 ID
	DisplayName string    `gorm:"size:64;not null;index" json:"display_name"`
	Email       string    `gorm:"size:128" json:"email,omitempty"`
	Role        Role      `gorm:"size:16;not null;default:member" json:"role"`
	AvatarURL   string    `gorm:"size:512" json:"avatar_url"`
	Bio         string    `gorm:"type:text" json:"bio"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (u *User) EffectiveRole() Role {
	return NormalizeRole(u.Role)
}

// UserSummary 读模型中嵌入的作者/被提及用户
type UserSummary struct {
	ID          uint64 `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Role        Role   `json:"role"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, DisplayName: u.DisplayName, AvatarURL: u.AvatarURL, Role: u.EffectiveRole()}
}
