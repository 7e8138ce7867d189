package services

import (
	"context"
	"strings"

	"github.com/gdg-garage/ecopoints-api/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type CatalogService struct {
	Deps
}

func NewCatalogService(deps Deps) *CatalogService {
	return &CatalogService{Deps: deps.withDefaults()}
}

// ListTaskTypes returns the active catalog, optionally filtered by category.
func (s *CatalogService) ListTaskTypes(ctx context.Context, category string) ([]models.TaskType, error) {
	query := s.DB.WithContext(ctx).Where("active = ?", true)
	if category != "" {
		if !models.Category(category).Valid() {
			return nil, NewValidationError("query.category", "unknown category")
		}
		query = query.Where("category = ?", category)
	}

	var types []models.TaskType
	if err := query.Order("category ASC").Order("name ASC").Find(&types).Error; err != nil {
		return nil, translate(err, "", "")
	}
	return types, nil
}

// GetTaskType hides inactive entries from everyone but admins.
func (s *CatalogService) GetTaskType(ctx context.Context, viewer Viewer, id uint) (*models.TaskType, error) {
	query := s.DB.WithContext(ctx)
	if !viewer.Admin {
		query = query.Where("active = ?", true)
	}

	var taskType models.TaskType
	if err := query.First(&taskType, id).Error; err != nil {
		return nil, translate(err, "task type not found", "")
	}
	return &taskType, nil
}

type TaskTypeInput struct {
	Name          *string
	Description   *string
	Category      *string
	CO2PerAction  *decimal.Decimal
	PointsAwarded *int
	Icon          *string
	Active        *bool
}

func (in TaskTypeInput) validate(creating bool) error {
	verr := &ValidationError{}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" || creating && in.Name == nil {
		verr.Add("name", "is required")
	}
	if in.Category != nil && !models.Category(*in.Category).Valid() || creating && in.Category == nil {
		verr.Add("category", "unknown category")
	}
	if in.CO2PerAction != nil {
		checkCO2(verr, "co2PerAction", *in.CO2PerAction, MaxEntryCO2)
	}
	if in.PointsAwarded != nil && *in.PointsAwarded < 0 {
		verr.Add("pointsAwarded", "must be greater than or equal to 0")
	}
	return verr.orNil()
}

func (s *CatalogService) CreateTaskType(ctx context.Context, in TaskTypeInput) (*models.TaskType, error) {
	if err := in.validate(true); err != nil {
		return nil, err
	}

	taskType := models.TaskType{
		Name:         strings.TrimSpace(*in.Name),
		Category:     models.Category(*in.Category),
		CO2PerAction: decimal.Zero,
		Active:       true,
	}
	if in.Description != nil {
		taskType.Description = *in.Description
	}
	if in.CO2PerAction != nil {
		taskType.CO2PerAction = *in.CO2PerAction
	}
	if in.PointsAwarded != nil {
		taskType.PointsAwarded = *in.PointsAwarded
	}
	if in.Icon != nil {
		taskType.Icon = *in.Icon
	}
	if in.Active != nil {
		taskType.Active = *in.Active
	}

	if err := s.DB.WithContext(ctx).Create(&taskType).Error; err != nil {
		return nil, translate(err, "", "task type already exists")
	}

	s.Log.WithFields(logrus.Fields{"task_type_id": taskType.ID, "name": taskType.Name}).Info("task type created")
	return &taskType, nil
}

// UpdateTaskType tunes a catalog entry. Ledger entries keep the values they
// were created with.
func (s *CatalogService) UpdateTaskType(ctx context.Context, id uint, in TaskTypeInput) (*models.TaskType, error) {
	if err := in.validate(false); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		updates["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Category != nil {
		updates["category"] = *in.Category
	}
	if in.CO2PerAction != nil {
		updates["co2_per_action"] = *in.CO2PerAction
	}
	if in.PointsAwarded != nil {
		updates["points_awarded"] = *in.PointsAwarded
	}
	if in.Icon != nil {
		updates["icon"] = *in.Icon
	}
	if in.Active != nil {
		updates["active"] = *in.Active
	}

	var taskType models.TaskType
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&taskType, id).Error; err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&taskType).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&taskType, id).Error
	})
	if err != nil {
		return nil, translate(err, "task type not found", "task type conflicts with existing data")
	}
	return &taskType, nil
}

// DeleteTaskType removes an unreferenced catalog entry. Entries that appear in
// the ledger must be deactivated instead.
func (s *CatalogService) DeleteTaskType(ctx context.Context, id uint) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taskType models.TaskType
		if err := tx.First(&taskType, id).Error; err != nil {
			return err
		}

		var refs int64
		if err := tx.Model(&models.TaskEntry{}).Where("task_type_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return &ConflictError{Message: "task type is referenced by ledger entries"}
		}

		return tx.Delete(&taskType).Error
	})
	if err != nil {
		return translate(err, "task type not found", "task type is referenced by ledger entries")
	}

	s.Log.WithField("task_type_id", id).Info("task type deleted")
	return nil
}
