package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdg-garage/ecopoints-api/internal/models"
)

func createAchievement(t *testing.T, s *AchievementService, name string, tier models.Tier, points int) models.Achievement {
	t.Helper()
	a, err := s.Create(context.Background(), AchievementInput{
		Name:           name,
		Tier:           string(tier),
		PointsRequired: points,
		CO2Required:    decimal.Zero,
	})
	require.NoError(t, err)
	return *a
}

func TestAchievementListOrdersByTierThenThreshold(t *testing.T) {
	deps, _ := newTestDeps(t)
	achievements := NewAchievementService(deps)

	createAchievement(t, achievements, "Gold", models.TierGold, 1000)
	createAchievement(t, achievements, "Bronze small", models.TierBronze, 10)
	createAchievement(t, achievements, "Platinum", models.TierPlatinum, 5000)
	createAchievement(t, achievements, "Bronze big", models.TierBronze, 100)
	hidden := createAchievement(t, achievements, "Silver", models.TierSilver, 300)
	require.NoError(t, deps.DB.Model(&hidden).Update("active", false).Error)

	list, err := achievements.List(context.Background())
	require.NoError(t, err)

	var names []string
	for _, a := range list {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"Bronze big", "Bronze small", "Gold", "Platinum"}, names)

	_, err = achievements.Get(context.Background(), hidden.ID)
	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf), "got %v", err)
}

func TestCreateAchievementValidation(t *testing.T) {
	deps, _ := newTestDeps(t)
	achievements := NewAchievementService(deps)

	_, err := achievements.Create(context.Background(), AchievementInput{
		Name:           " ",
		Tier:           "diamond",
		PointsRequired: -1,
		CO2Required:    decimal.NewFromInt(-2),
	})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.Len(t, verr.Fields, 4)
	assert.Contains(t, verr.Fields, "tier")

	_, err = achievements.Create(context.Background(), AchievementInput{
		Name:        "Forest",
		Tier:        string(models.TierPlatinum),
		CO2Required: decimal.NewFromInt(100000000),
	})
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.Equal(t, map[string]string{"co2Required": "must be between 0 and 99999999.99"}, verr.Fields)

	a, err := achievements.Create(context.Background(), AchievementInput{
		Name:        "Forest",
		Tier:        string(models.TierPlatinum),
		CO2Required: MaxThresholdCO2,
	})
	require.NoError(t, err)
	assert.True(t, a.CO2Required.Equal(MaxThresholdCO2))
}

func TestAwardAchievement(t *testing.T) {
	deps, notes := newTestDeps(t)
	achievements := NewAchievementService(deps)
	ctx := context.Background()
	admin := createAdmin(t, deps.DB, "root")
	user := createUser(t, deps.DB, "earner", 0)
	first := createAchievement(t, achievements, "First", models.TierBronze, 0)
	second := createAchievement(t, achievements, "Second", models.TierSilver, 0)

	award, err := achievements.Award(ctx, viewerOf(admin), first.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "First", award.Achievement.Name)
	require.NotNil(t, award.AwardedByID)
	assert.Equal(t, admin.ID, *award.AwardedByID)
	assert.Equal(t, []string{"First"}, notes.achievements)

	_, err = achievements.Award(ctx, viewerOf(admin), first.ID, user.ID)
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict), "got %v", err)
	assert.Equal(t, "achievement already awarded to this user", conflict.Message)

	deps.Now = func() time.Time { return testNow.Add(time.Hour) }
	later := NewAchievementService(deps)
	_, err = later.Award(ctx, viewerOf(admin), second.ID, user.ID)
	require.NoError(t, err)

	mine, err := achievements.Mine(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "Second", mine[0].Achievement.Name)
	assert.Equal(t, "First", mine[1].Achievement.Name)

	profile, err := NewIdentityService(deps).Profile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), profile.AchievementsCount)
}

func TestAwardRequiresActiveTargets(t *testing.T) {
	deps, _ := newTestDeps(t)
	achievements := NewAchievementService(deps)
	ctx := context.Background()
	admin := createAdmin(t, deps.DB, "root")
	user := createUser(t, deps.DB, "sleeper", 0)
	a := createAchievement(t, achievements, "Any", models.TierGold, 0)

	var nf *NotFoundError
	_, err := achievements.Award(ctx, viewerOf(admin), 999, user.ID)
	assert.True(t, errors.As(err, &nf), "got %v", err)

	require.NoError(t, deps.DB.Model(&user).Update("active", false).Error)
	_, err = achievements.Award(ctx, viewerOf(admin), a.ID, user.ID)
	require.True(t, errors.As(err, &nf), "got %v", err)
	assert.Equal(t, "user not found", nf.Message)
}
