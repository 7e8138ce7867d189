package database

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/gdg-garage/ecopoints-api/internal/models"
)

func defaultTaskTypes() []models.TaskType {
	return []models.TaskType{
		{Name: "Recycle plastic bottles", Description: "Sort and drop plastic bottles at a recycling point.", Category: models.CategoryRecycling, CO2PerAction: decimal.RequireFromString("0.50"), PointsAwarded: 10, Icon: "recycle", Active: true},
		{Name: "Cycle instead of driving", Description: "Replace a car trip with a bike ride.", Category: models.CategoryTransport, CO2PerAction: decimal.RequireFromString("2.60"), PointsAwarded: 20, Icon: "bike", Active: true},
		{Name: "Take public transport", Description: "Use bus, tram or train instead of a car.", Category: models.CategoryTransport, CO2PerAction: decimal.RequireFromString("1.80"), PointsAwarded: 15, Icon: "bus", Active: true},
		{Name: "Switch off standby devices", Description: "Unplug devices left on standby overnight.", Category: models.CategoryEnergy, CO2PerAction: decimal.RequireFromString("0.30"), PointsAwarded: 5, Icon: "plug", Active: true},
		{Name: "Shorter shower", Description: "Keep your shower under five minutes.", Category: models.CategoryWater, CO2PerAction: decimal.RequireFromString("0.40"), PointsAwarded: 5, Icon: "droplet", Active: true},
		{Name: "Plant-based meal", Description: "Eat a meal without meat or dairy.", Category: models.CategoryDiet, CO2PerAction: decimal.RequireFromString("1.50"), PointsAwarded: 10, Icon: "leaf", Active: true},
	}
}

func defaultAchievements() []models.Achievement {
	return []models.Achievement{
		{Name: "First steps", Description: "Record your first eco-task.", Tier: models.TierBronze, Icon: "seedling", TasksRequired: 1, CO2Required: decimal.Zero, Active: true},
		{Name: "Green habit", Description: "Reach 500 points.", Tier: models.TierSilver, Icon: "sprout", PointsRequired: 500, CO2Required: decimal.Zero, Active: true},
		{Name: "Climate champion", Description: "Avoid 100 kg of CO2.", Tier: models.TierGold, Icon: "globe", PointsRequired: 1000, CO2Required: decimal.NewFromInt(100), Active: true},
		{Name: "Planet guardian", Description: "Reach 5000 points and 500 kg of CO2 avoided.", Tier: models.TierPlatinum, Icon: "crown", PointsRequired: 5000, CO2Required: decimal.NewFromInt(500), Active: true},
	}
}

// Seed fills the task and achievement catalogs when they are empty. Existing
// catalogs are left untouched.
func Seed(db *gorm.DB, log logrus.FieldLogger) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.TaskType{}).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			types := defaultTaskTypes()
			if err := tx.Create(&types).Error; err != nil {
				return fmt.Errorf("seed task types: %w", err)
			}
			log.WithField("count", len(types)).Info("seeded task types")
		}

		if err := tx.Model(&models.Achievement{}).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			achievements := defaultAchievements()
			if err := tx.Create(&achievements).Error; err != nil {
				return fmt.Errorf("seed achievements: %w", err)
			}
			log.WithField("count", len(achievements)).Info("seeded achievements")
		}
		return nil
	})
}
