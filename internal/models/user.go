package models

import (
	"net/url"
	"strings"
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	DisplayName string    `gorm:"type:varchar(255);not null" json:"display_name"`
	Email       string    `gorm:"type:varchar(320);uniqueIndex;not null" json:"email"`
	AvatarRef   string    `gorm:"type:varchar(500)" json:"avatar_ref,omitempty"`
	TelegramID  *int64    `gorm:"uniqueIndex" json:"telegram_id,omitempty"`
	Role        string    `gorm:"type:varchar(20);default:'user';not null" json:"role"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// UserBrief is the display identity attached to swap offers.
type UserBrief struct {
	ID          uint   `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarRef   string `json:"avatar_ref"`
}

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const defaultAvatarBase = "https://api.dicebear.com/7.x/initials/svg?seed="

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Brief returns the user's display identity, falling back to a generated
// initials avatar when none was uploaded.
func (u *User) Brief() UserBrief {
	avatar := u.AvatarRef
	if avatar == "" {
		avatar = defaultAvatarBase + url.QueryEscape(u.DisplayName)
	}
	return UserBrief{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		AvatarRef:   avatar,
	}
}

// BeforeSave hook for validation
func (u *User) BeforeSave(tx *gorm.DB) error {
	if strings.TrimSpace(u.DisplayName) == "" {
		return gorm.ErrInvalidData
	}
	if !strings.Contains(u.Email, "@") {
		return gorm.ErrInvalidData
	}
	if u.Role != RoleUser && u.Role != RoleAdmin {
		return gorm.ErrInvalidData
	}
	return nil
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}
