package models

import (
	"time"

	"gorm.io/datatypes"
)

// UserAuth is a storefront account (customer or admin)
type UserAuth struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`
	Password  string         `gorm:"not null" json:"-"`
	Name      string         `json:"name"`
	Phone     string         `gorm:"size:20" json:"phone,omitempty"`
	Role      string         `gorm:"size:16;default:customer" json:"role"` // customer, admin
	Addresses datatypes.JSON `gorm:"type:jsonb" json:"addresses,omitempty"`
	LastLogin *time.Time     `json:"last_login,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (UserAuth) TableName() string { return "user_auth" }
