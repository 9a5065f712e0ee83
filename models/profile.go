package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Profile roles. A profile with RoleBusiness and no BusinessID has not
// finished business setup yet.
const (
	RoleUser     = "user"
	RoleBusiness = "business"
	RoleAdmin    = "admin"
)

type Profile struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	UserID     string    `gorm:"size:36;uniqueIndex;not null" json:"user_id"`
	Username   *string   `gorm:"size:100;uniqueIndex" json:"username"`
	FullName   *string   `gorm:"size:255" json:"full_name"`
	Role       string    `gorm:"size:20;not null;default:'user'" json:"role"`
	BusinessID *string   `gorm:"size:36;index" json:"business_id"`
	AvatarURL  *string   `gorm:"size:512" json:"avatar_url,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Business *Business `gorm:"foreignKey:BusinessID" json:"-"`
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// Complete reports whether the mandatory profile fields are filled in.
func (p *Profile) Complete() bool {
	return p.Username != nil && *p.Username != "" && p.FullName != nil && *p.FullName != ""
}
