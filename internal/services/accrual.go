package services

import (
	"github.com/gdg-garage/ecopoints-api/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const PointsPerLevel = 100

// CO2 bounds follow the column precision: decimal(6,2) for catalog and
// ledger values, decimal(10,2) for achievement thresholds.
var (
	MaxEntryCO2     = decimal.RequireFromString("9999.99")
	MaxThresholdCO2 = decimal.RequireFromString("99999999.99")
)

// checkCO2 records a field error when v is outside [0, max].
func checkCO2(verr *ValidationError, field string, v decimal.Decimal, max decimal.Decimal) {
	if v.IsNegative() || v.GreaterThan(max) {
		verr.Add(field, "must be between 0 and "+max.StringFixed(2))
	}
}

// LevelFor returns the level reached with the given point total.
func LevelFor(points int) int {
	if points < 0 {
		points = 0
	}
	return points/PointsPerLevel + 1
}

// Accrual is the amount a single ledger entry adds to its owner's totals.
type Accrual struct {
	Points int
	CO2    decimal.Decimal
}

// Negate returns the accrual that undoes a.
func (a Accrual) Negate() Accrual {
	return Accrual{Points: -a.Points, CO2: a.CO2.Neg()}
}

// ResolveAccrual picks the values frozen into a new ledger entry: the
// overrides when present, the catalog values otherwise.
func ResolveAccrual(taskType models.TaskType, co2Override *decimal.Decimal, pointsOverride *int) Accrual {
	a := Accrual{Points: taskType.PointsAwarded, CO2: taskType.CO2PerAction}
	if co2Override != nil {
		a.CO2 = *co2Override
	}
	if pointsOverride != nil {
		a.Points = *pointsOverride
	}
	return a
}

func entryAccrual(entry models.TaskEntry) Accrual {
	return Accrual{Points: entry.PointsGained, CO2: entry.CO2Avoided}
}

// applyAccrual adds a to the user's counters and recomputes the level. It must
// run inside the transaction that writes the matching ledger change. The
// increment is a single UPDATE, so the row stays locked until commit and
// concurrent accruals for the same user serialize instead of losing updates.
// The CO2 sum is rounded in SQL since sqlite stores decimals as REAL.
func applyAccrual(tx *gorm.DB, userID uint, a Accrual) (models.User, error) {
	res := tx.Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"points_total":      gorm.Expr("points_total + ?", a.Points),
			"co2_avoided_total": gorm.Expr("ROUND(co2_avoided_total + ?, 2)", a.CO2),
		})
	if res.Error != nil {
		return models.User{}, res.Error
	}
	if res.RowsAffected == 0 {
		return models.User{}, &NotFoundError{Message: "user not found"}
	}

	var user models.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
		return models.User{}, err
	}

	if level := LevelFor(user.PointsTotal); level != user.Level {
		if err := tx.Model(&user).Update("level", level).Error; err != nil {
			return models.User{}, err
		}
		user.Level = level
	}

	return user, nil
}
