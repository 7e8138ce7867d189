package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/gdg-garage/ecopoints-api/internal/metrics"
	"github.com/gdg-garage/ecopoints-api/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type AchievementService struct {
	Deps
}

func NewAchievementService(deps Deps) *AchievementService {
	return &AchievementService{Deps: deps.withDefaults()}
}

var tiers = []models.Tier{models.TierBronze, models.TierSilver, models.TierGold, models.TierPlatinum}

// tierOrder sorts rows by tier rank rather than alphabetically.
func tierOrder() string {
	var b strings.Builder
	b.WriteString("CASE tier")
	for _, t := range tiers {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", t, t.Rank())
	}
	b.WriteString(" ELSE 99 END")
	return b.String()
}

// List returns the active achievements, bronze first and, within a tier, the
// highest point threshold first.
func (s *AchievementService) List(ctx context.Context) ([]models.Achievement, error) {
	var achievements []models.Achievement
	err := s.DB.WithContext(ctx).
		Where("active = ?", true).
		Order(tierOrder()).
		Order("points_required DESC").
		Order("id ASC").
		Find(&achievements).Error
	if err != nil {
		return nil, translate(err, "", "")
	}
	return achievements, nil
}

func (s *AchievementService) Get(ctx context.Context, id uint) (*models.Achievement, error) {
	var achievement models.Achievement
	if err := s.DB.WithContext(ctx).Where("active = ?", true).First(&achievement, id).Error; err != nil {
		return nil, translate(err, "achievement not found", "")
	}
	return &achievement, nil
}

type AchievementInput struct {
	Name           string
	Description    string
	Tier           string
	Icon           string
	PointsRequired int
	TasksRequired  int
	CO2Required    decimal.Decimal
}

func (s *AchievementService) Create(ctx context.Context, in AchievementInput) (*models.Achievement, error) {
	verr := &ValidationError{}
	if strings.TrimSpace(in.Name) == "" {
		verr.Add("name", "is required")
	}
	if models.Tier(in.Tier).Rank() == 0 {
		verr.Add("tier", "must be one of bronze, silver, gold, platinum")
	}
	if in.PointsRequired < 0 {
		verr.Add("pointsRequired", "must be greater than or equal to 0")
	}
	if in.TasksRequired < 0 {
		verr.Add("tasksRequired", "must be greater than or equal to 0")
	}
	checkCO2(verr, "co2Required", in.CO2Required, MaxThresholdCO2)
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	achievement := models.Achievement{
		Name:           strings.TrimSpace(in.Name),
		Description:    in.Description,
		Tier:           models.Tier(in.Tier),
		Icon:           in.Icon,
		PointsRequired: in.PointsRequired,
		TasksRequired:  in.TasksRequired,
		CO2Required:    in.CO2Required,
		Active:         true,
	}
	if err := s.DB.WithContext(ctx).Create(&achievement).Error; err != nil {
		return nil, translate(err, "", "achievement already exists")
	}

	s.Log.WithFields(logrus.Fields{"achievement_id": achievement.ID, "tier": achievement.Tier}).Info("achievement created")
	return &achievement, nil
}

// Award grants an achievement to a user. Thresholds are informational; the
// unique (user, achievement) index decides concurrent awards.
func (s *AchievementService) Award(ctx context.Context, awarder Viewer, achievementID, userID uint) (*models.AchievementAward, error) {
	var (
		award models.AchievementAward
		user  models.User
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var achievement models.Achievement
		if err := tx.Where("active = ?", true).First(&achievement, achievementID).Error; err != nil {
			return translate(err, "achievement not found", "")
		}
		if err := tx.Where("active = ?", true).First(&user, userID).Error; err != nil {
			return translate(err, "user not found", "")
		}

		var held int64
		if err := tx.Model(&models.AchievementAward{}).
			Where("user_id = ? AND achievement_id = ?", userID, achievementID).
			Count(&held).Error; err != nil {
			return err
		}
		if held > 0 {
			return &ConflictError{Message: "achievement already awarded to this user"}
		}

		awardedBy := awarder.UserID
		award = models.AchievementAward{
			UserID:        userID,
			AchievementID: achievementID,
			AwardedByID:   &awardedBy,
			AwardedAt:     s.Now().UTC(),
		}
		if err := tx.Omit("User", "Achievement", "AwardedBy").Create(&award).Error; err != nil {
			return err
		}
		award.Achievement = achievement
		return nil
	})
	if err != nil {
		return nil, translate(err, "achievement not found", "achievement already awarded to this user")
	}

	metrics.AchievementsAwarded.Inc()
	log := s.Log.WithFields(logrus.Fields{
		"user_id":        userID,
		"achievement_id": achievementID,
		"awarded_by":     awarder.UserID,
	})
	log.Info("achievement awarded")
	if err := s.Notifier.NotifyAchievement(user, award.Achievement); err != nil {
		log.WithError(err).Warn("achievement notification failed")
	}

	return &award, nil
}

// Mine lists the user's awards, most recent first.
func (s *AchievementService) Mine(ctx context.Context, userID uint) ([]models.AchievementAward, error) {
	var awards []models.AchievementAward
	err := s.DB.WithContext(ctx).
		Preload("Achievement").
		Where("user_id = ?", userID).
		Order("awarded_at DESC").
		Order("id DESC").
		Find(&awards).Error
	if err != nil {
		return nil, translate(err, "", "")
	}
	return awards, nil
}
