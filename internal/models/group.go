package models

import (
	"time"
)

type Group struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatorID   *uint     `gorm:"index" json:"creator_id"`
	Creator     *User     `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	Image       string    `json:"image"`
	Public      bool      `gorm:"not null" json:"public"`
	Active      bool      `gorm:"not null;index" json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Membership joins a user to a group. The (user, group) pair is unique.
type Membership struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_membership_user_group" json:"user_id"`
	User     User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	GroupID  uint      `gorm:"not null;uniqueIndex:idx_membership_user_group;index" json:"group_id"`
	Group    Group     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	IsAdmin  bool      `gorm:"not null" json:"is_admin"`
	JoinedAt time.Time `gorm:"not null" json:"joined_at"`
}
