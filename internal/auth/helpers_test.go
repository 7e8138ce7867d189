package auth

import (
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/gdg-garage/ecopoints-api/internal/config"
	"github.com/gdg-garage/ecopoints-api/internal/database"
	"github.com/gdg-garage/ecopoints-api/internal/models"
	"github.com/gdg-garage/ecopoints-api/internal/services"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	handler *AuthHandler
	apiKeys *services.APIKeyService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.Config{
		DBType:          "sqlite",
		DatabasePath:    ":memory:",
		JWTSecret:       "test-secret",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	}
	db, err := database.Connect(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	log := logrus.New()
	log.SetOutput(io.Discard)

	deps := services.Deps{DB: db, Log: log}
	apiKeys := services.NewAPIKeyService(deps)
	return &fixture{
		db:      db,
		handler: NewAuthHandler(cfg, services.NewIdentityService(deps), apiKeys, log),
		apiKeys: apiKeys,
	}
}

func (f *fixture) user(t *testing.T, username string, role models.Role, active bool) models.User {
	t.Helper()
	u := models.User{
		Username:        username,
		Email:           username + "@example.com",
		Role:            role,
		Level:           1,
		CO2AvoidedTotal: decimal.Zero,
		Active:          true,
	}
	require.NoError(t, f.db.Create(&u).Error)
	if !active {
		require.NoError(t, f.db.Model(&u).Update("active", false).Error)
		u.Active = false
	}
	return u
}
