package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/gdg-garage/ecopoints-api/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm/clause"
)

type APIKeyService struct {
	Deps
}

func NewAPIKeyService(deps Deps) *APIKeyService {
	return &APIKeyService{Deps: deps.withDefaults()}
}

func (s *APIKeyService) Create(ctx context.Context, userID uint, name string, expiresAt *time.Time) (*models.APIKey, error) {
	if expiresAt != nil && !expiresAt.After(s.Now()) {
		return nil, NewValidationError("expiresAt", "must be in the future")
	}

	keyBytes := make([]byte, 32)
	if _, err := rand.Read(keyBytes); err != nil {
		return nil, fmt.Errorf("generate api key: %w", err)
	}

	apiKey := models.APIKey{
		UserID:    userID,
		Key:       hex.EncodeToString(keyBytes),
		Name:      name,
		ExpiresAt: expiresAt,
	}
	if err := s.DB.WithContext(ctx).Omit(clause.Associations).Create(&apiKey).Error; err != nil {
		return nil, translate(err, "user not found", "api key collision, try again")
	}

	s.Log.WithFields(logrus.Fields{"user_id": userID, "api_key_id": apiKey.ID}).Info("api key created")
	return &apiKey, nil
}

func (s *APIKeyService) List(ctx context.Context, userID uint) ([]models.APIKey, error) {
	var keys []models.APIKey
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&keys).Error; err != nil {
		return nil, translate(err, "", "")
	}
	return keys, nil
}

func (s *APIKeyService) Delete(ctx context.Context, userID, id uint) error {
	res := s.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.APIKey{})
	if res.Error != nil {
		return translate(res.Error, "", "")
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Message: "api key not found"}
	}
	return nil
}

// Resolve returns the owner of a valid key and stamps its last use.
func (s *APIKeyService) Resolve(ctx context.Context, key string) (uint, error) {
	if key == "" {
		return 0, &AuthenticationError{Message: "invalid api key"}
	}

	var apiKey models.APIKey
	if err := s.DB.WithContext(ctx).Where(&models.APIKey{Key: key}).First(&apiKey).Error; err != nil {
		return 0, &AuthenticationError{Message: "invalid api key"}
	}
	now := s.Now()
	if apiKey.ExpiresAt != nil && now.After(*apiKey.ExpiresAt) {
		return 0, &AuthenticationError{Message: "api key expired"}
	}

	if err := s.DB.WithContext(ctx).Model(&apiKey).Update("last_used_at", now).Error; err != nil {
		s.Log.WithError(err).WithField("api_key_id", apiKey.ID).Warn("failed to record api key use")
	}
	return apiKey.UserID, nil
}

// MaskKey keeps only the last four characters of a key for listings.
func MaskKey(key string) string {
	if len(key) <= 4 {
		return key
	}
	return "..." + key[len(key)-4:]
}
