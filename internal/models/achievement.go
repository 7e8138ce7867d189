package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Tier string

const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
)

// Rank is the ordinal position of the tier, bronze first.
func (t Tier) Rank() int {
	switch t {
	case TierBronze:
		return 1
	case TierSilver:
		return 2
	case TierGold:
		return 3
	case TierPlatinum:
		return 4
	}
	return 0
}

type Achievement struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Name           string          `gorm:"size:100;not null" json:"name"`
	Description    string          `gorm:"type:text" json:"description"`
	Tier           Tier            `gorm:"size:20;not null" json:"tier"`
	Icon           string          `json:"icon"` // opaque object storage reference
	PointsRequired int             `gorm:"not null" json:"pointsRequired"`
	TasksRequired  int             `gorm:"not null" json:"tasksRequired"`
	CO2Required    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"co2Required"`
	Active         bool            `gorm:"not null;index" json:"active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// AchievementAward records that a user holds an achievement. A user holds
// each achievement at most once.
type AchievementAward struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	UserID        uint        `gorm:"not null;uniqueIndex:idx_award_user_achievement" json:"user_id"`
	User          User        `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	AchievementID uint        `gorm:"not null;uniqueIndex:idx_award_user_achievement" json:"achievement_id"`
	Achievement   Achievement `gorm:"constraint:OnDelete:CASCADE" json:"achievement"`
	AwardedByID   *uint       `json:"awarded_by_id"`
	AwardedBy     *User       `gorm:"foreignKey:AwardedByID;constraint:OnDelete:SET NULL" json:"-"`
	AwardedAt     time.Time   `gorm:"not null;index" json:"awarded_at"`
}
