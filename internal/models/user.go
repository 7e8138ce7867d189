package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User carries identity, profile and the denormalized gamification counters.
// PointsTotal, Level and CO2AvoidedTotal are only written by the accrual path.
// Accounts are deactivated through Active; rows are not soft-deleted.
type User struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Username        string          `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email           string          `gorm:"size:254;uniqueIndex;not null" json:"email"`
	PasswordHash    string          `gorm:"size:255" json:"-"`
	DiscordID       *string         `gorm:"size:32;uniqueIndex" json:"-"`
	Role            Role            `gorm:"size:20;not null" json:"role"`
	FirstName       string          `gorm:"size:150" json:"first_name"`
	LastName        string          `gorm:"size:150" json:"last_name"`
	BirthDate       *datatypes.Date `json:"birthDate"`
	Phone           string          `gorm:"size:15" json:"phone"`
	Avatar          string          `json:"avatar"`
	PointsTotal     int             `gorm:"not null" json:"points_total"`
	Level           int             `gorm:"not null" json:"level"`
	CO2AvoidedTotal decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"co2_avoided_total"`
	Active          bool            `gorm:"not null;index" json:"active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
