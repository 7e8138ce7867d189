package models

import (
	"time"

	"gorm.io/gorm"
)

// APIKey lets a client act as its owner through the X-API-KEY header.
// Revoked keys stay behind as soft-deleted rows.
type APIKey struct {
	gorm.Model
	UserID     uint       `json:"user_id" gorm:"not null;index"`
	User       User       `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Key        string     `json:"key" gorm:"size:64;uniqueIndex"`
	Name       string     `json:"name"`
	ExpiresAt  *time.Time `json:"expiresAt"`
	LastUsedAt *time.Time `json:"last_used_at"`
}
