package services

import (
	"context"
	"time"

	"github.com/gdg-garage/ecopoints-api/internal/metrics"
	"github.com/gdg-garage/ecopoints-api/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

type LedgerService struct {
	Deps
}

func NewLedgerService(deps Deps) *LedgerService {
	return &LedgerService{Deps: deps.withDefaults()}
}

type RecordTaskInput struct {
	TaskTypeID     uint
	DateOccurred   time.Time
	Notes          string
	Photo          string
	CO2Override    *decimal.Decimal
	PointsOverride *int
}

type RecordTaskResult struct {
	Entry         models.TaskEntry
	User          models.User
	PreviousLevel int
}

func (r RecordTaskResult) LeveledUp() bool {
	return r.User.Level > r.PreviousLevel
}

// RecordTask writes a ledger entry for the viewer and accrues its frozen
// values onto the viewer's counters in the same transaction. Only admins may
// override the catalog values.
func (s *LedgerService) RecordTask(ctx context.Context, viewer Viewer, in RecordTaskInput) (*RecordTaskResult, error) {
	if !viewer.Admin && (in.CO2Override != nil || in.PointsOverride != nil) {
		return nil, &AuthorizationError{Message: "only administrators may override task values"}
	}

	verr := &ValidationError{}
	if in.DateOccurred.IsZero() {
		verr.Add("dateOccurred", "is required")
	} else if inFuture(s.Deps, in.DateOccurred) {
		verr.Add("dateOccurred", "must not be in the future")
	}
	if in.CO2Override != nil {
		checkCO2(verr, "co2Avoided", *in.CO2Override, MaxEntryCO2)
	}
	if in.PointsOverride != nil && *in.PointsOverride < 0 {
		verr.Add("pointsGained", "must be greater than or equal to 0")
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	var result RecordTaskResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taskType models.TaskType
		if err := tx.Where("id = ? AND active = ?", in.TaskTypeID, true).First(&taskType).Error; err != nil {
			return translate(err, "task type not found", "")
		}

		accrual := ResolveAccrual(taskType, in.CO2Override, in.PointsOverride)
		entry := models.TaskEntry{
			UserID:       viewer.UserID,
			TaskTypeID:   taskType.ID,
			DateOccurred: DateOf(in.DateOccurred),
			CO2Avoided:   accrual.CO2,
			PointsGained: accrual.Points,
			Notes:        in.Notes,
			Photo:        in.Photo,
			Validated:    true,
		}
		if err := tx.Omit(clause.Associations).Create(&entry).Error; err != nil {
			return translate(err, "user not found", "task entry conflicts with existing data")
		}

		user, err := applyAccrual(tx, viewer.UserID, accrual)
		if err != nil {
			return translate(err, "user not found", "")
		}

		entry.TaskType = taskType
		result = RecordTaskResult{
			Entry:         entry,
			User:          user,
			PreviousLevel: LevelFor(user.PointsTotal - accrual.Points),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.TasksRecorded.WithLabelValues(string(result.Entry.TaskType.Category)).Inc()
	metrics.PointsAwarded.Add(float64(result.Entry.PointsGained))

	log := s.Log.WithFields(logrus.Fields{
		"user_id":   result.User.ID,
		"entry_id":  result.Entry.ID,
		"task_type": result.Entry.TaskTypeID,
		"points":    result.Entry.PointsGained,
		"co2":       result.Entry.CO2Avoided.String(),
	})
	log.Info("task recorded")

	if result.LeveledUp() {
		metrics.LevelUps.Inc()
		log.WithField("level", result.User.Level).Info("user leveled up")
		if err := s.Notifier.NotifyLevelUp(result.User, result.PreviousLevel); err != nil {
			log.WithError(err).Warn("level-up notification failed")
		}
	}

	return &result, nil
}

type ListEntriesInput struct {
	Limit  int
	Offset int
}

// ListEntries returns the viewer's ledger, or the whole ledger for admins,
// newest activity first.
func (s *LedgerService) ListEntries(ctx context.Context, viewer Viewer, in ListEntriesInput) ([]models.TaskEntry, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	offset := in.Offset
	if offset < 0 {
		offset = 0
	}

	query := s.DB.WithContext(ctx).
		Scopes(visibleTo(viewer)).
		Preload("TaskType").
		Order("date_occurred DESC").
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset)
	if viewer.Admin {
		query = query.Preload("User")
	}

	var entries []models.TaskEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, translate(err, "", "")
	}
	return entries, nil
}

func (s *LedgerService) GetEntry(ctx context.Context, viewer Viewer, id uint) (*models.TaskEntry, error) {
	query := s.DB.WithContext(ctx).Scopes(visibleTo(viewer)).Preload("TaskType")
	if viewer.Admin {
		query = query.Preload("User")
	}

	var entry models.TaskEntry
	if err := query.First(&entry, id).Error; err != nil {
		return nil, translate(err, "task entry not found", "")
	}
	return &entry, nil
}

// UpdateEntryInput lists the editable fields. The task type and the frozen
// CO2/point values are never changed after creation.
type UpdateEntryInput struct {
	DateOccurred *time.Time
	Notes        *string
	Photo        *string
}

func (s *LedgerService) UpdateEntry(ctx context.Context, viewer Viewer, id uint, in UpdateEntryInput) (*models.TaskEntry, error) {
	if in.DateOccurred != nil && inFuture(s.Deps, *in.DateOccurred) {
		return nil, NewValidationError("dateOccurred", "must not be in the future")
	}

	updates := map[string]interface{}{}
	if in.DateOccurred != nil {
		updates["date_occurred"] = DateOf(*in.DateOccurred)
	}
	if in.Notes != nil {
		updates["notes"] = *in.Notes
	}
	if in.Photo != nil {
		updates["photo"] = *in.Photo
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry models.TaskEntry
		if err := tx.Scopes(visibleTo(viewer)).First(&entry, id).Error; err != nil {
			return translate(err, "task entry not found", "")
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&entry).Updates(updates).Error
	})
	if err != nil {
		return nil, translate(err, "task entry not found", "")
	}

	return s.GetEntry(ctx, viewer, id)
}

// DeleteEntry removes a ledger entry and reverses its accrual so the owner's
// counters keep matching the entries that exist.
func (s *LedgerService) DeleteEntry(ctx context.Context, viewer Viewer, id uint) error {
	var owner models.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry models.TaskEntry
		if err := tx.Scopes(visibleTo(viewer)).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&entry, id).Error; err != nil {
			return translate(err, "task entry not found", "")
		}

		if err := tx.Delete(&entry).Error; err != nil {
			return err
		}

		user, err := applyAccrual(tx, entry.UserID, entryAccrual(entry).Negate())
		if err != nil {
			return err
		}
		owner = user
		return nil
	})
	if err != nil {
		return translate(err, "task entry not found", "")
	}

	s.Log.WithFields(logrus.Fields{
		"entry_id":   id,
		"user_id":    owner.ID,
		"deleted_by": viewer.UserID,
	}).Info("task entry deleted")
	return nil
}

// visibleTo limits ledger queries to the viewer's own entries unless the
// viewer is an admin.
func visibleTo(viewer Viewer) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Model(&models.TaskEntry{})
		if viewer.Admin {
			return db
		}
		return db.Where("task_entries.user_id = ?", viewer.UserID)
	}
}
