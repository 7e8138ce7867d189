package services

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gdg-garage/ecopoints-api/internal/config"
	"github.com/gdg-garage/ecopoints-api/internal/database"
	"github.com/gdg-garage/ecopoints-api/internal/models"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu           sync.Mutex
	levelUps     []int
	achievements []string
	groups       []string
}

func (n *recordingNotifier) NotifyLevelUp(user models.User, previousLevel int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.levelUps = append(n.levelUps, previousLevel)
	return nil
}

func (n *recordingNotifier) NotifyAchievement(user models.User, achievement models.Achievement) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.achievements = append(n.achievements, achievement.Name)
	return nil
}

func (n *recordingNotifier) NotifyGroupCreated(group models.Group, creator models.User) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.groups = append(n.groups, group.Name)
	return nil
}

func newTestDeps(t *testing.T) (Deps, *recordingNotifier) {
	t.Helper()

	db, err := database.Connect(&config.Config{DBType: "sqlite", DatabasePath: ":memory:"}, nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	log := logrus.New()
	log.SetOutput(io.Discard)

	n := &recordingNotifier{}
	return Deps{DB: db, Log: log, Notifier: n, Now: func() time.Time { return testNow }}, n
}

func createUser(t *testing.T, db *gorm.DB, username string, points int) models.User {
	t.Helper()
	user := models.User{
		Username:        username,
		Email:           username + "@example.com",
		Role:            models.RoleUser,
		PointsTotal:     points,
		Level:           LevelFor(points),
		CO2AvoidedTotal: decimal.Zero,
		Active:          true,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createAdmin(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	user := createUser(t, db, username, 0)
	require.NoError(t, db.Model(&user).Update("role", models.RoleAdmin).Error)
	user.Role = models.RoleAdmin
	return user
}

func createTaskType(t *testing.T, db *gorm.DB, name string, category models.Category, points int, co2 string) models.TaskType {
	t.Helper()
	taskType := models.TaskType{
		Name:          name,
		Category:      category,
		CO2PerAction:  decimal.RequireFromString(co2),
		PointsAwarded: points,
		Active:        true,
	}
	require.NoError(t, db.Create(&taskType).Error)
	return taskType
}

func viewerOf(u models.User) Viewer {
	return Viewer{UserID: u.ID, Admin: u.IsAdmin()}
}

func reload(t *testing.T, db *gorm.DB, id uint) models.User {
	t.Helper()
	var user models.User
	require.NoError(t, db.First(&user, id).Error)
	return user
}
