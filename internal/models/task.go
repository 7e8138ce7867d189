package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Category string

const (
	CategoryRecycling Category = "recycling"
	CategoryTransport Category = "sustainable-transport"
	CategoryEnergy    Category = "energy-saving"
	CategoryWater     Category = "water-saving"
	CategoryDiet      Category = "sustainable-diet"
	CategoryOther     Category = "other"
)

var Categories = []Category{
	CategoryRecycling,
	CategoryTransport,
	CategoryEnergy,
	CategoryWater,
	CategoryDiet,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// TaskType is a catalog entry. Its CO2 and point values are copied into each
// TaskEntry at submission time.
type TaskType struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Name          string          `gorm:"size:100;not null" json:"name"`
	Description   string          `gorm:"type:text" json:"description"`
	Category      Category        `gorm:"size:30;not null;index" json:"category"`
	CO2PerAction  decimal.Decimal `gorm:"type:decimal(6,2);not null" json:"co2PerAction"`
	PointsAwarded int             `gorm:"not null" json:"pointsAwarded"`
	Icon          string          `gorm:"size:50" json:"icon"`
	Active        bool            `gorm:"not null;index" json:"active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TaskEntry is one ledger row. CO2Avoided and PointsGained are frozen at
// creation. Entries go away with their user and pin their task type.
type TaskEntry struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	UserID       uint            `gorm:"not null;index" json:"user_id"`
	User         User            `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	TaskTypeID   uint            `gorm:"not null;index" json:"task_type_id"`
	TaskType     TaskType        `gorm:"constraint:OnDelete:RESTRICT" json:"task_type"`
	DateOccurred datatypes.Date  `gorm:"not null;index" json:"dateOccurred"`
	CO2Avoided   decimal.Decimal `gorm:"type:decimal(6,2);not null" json:"co2Avoided"`
	PointsGained int             `gorm:"not null" json:"pointsGained"`
	Notes        string          `gorm:"type:text" json:"notes"`
	Photo        string          `json:"photo"`
	Validated    bool            `gorm:"not null" json:"validated"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
