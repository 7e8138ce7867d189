package services

import (
	"context"

	"github.com/gdg-garage/ecopoints-api/internal/models"
	"github.com/shopspring/decimal"
)

const DefaultRankingLimit = 100

type ReportService struct {
	Deps
	rankingLimit int
}

func NewReportService(deps Deps, rankingLimit int) *ReportService {
	if rankingLimit <= 0 {
		rankingLimit = DefaultRankingLimit
	}
	return &ReportService{Deps: deps.withDefaults(), rankingLimit: rankingLimit}
}

// Ranking lists active users by points. Equal totals keep registration order.
func (s *ReportService) Ranking(ctx context.Context, limit int) ([]models.User, error) {
	if limit <= 0 || limit > s.rankingLimit {
		limit = s.rankingLimit
	}

	var users []models.User
	err := s.DB.WithContext(ctx).
		Where("active = ?", true).
		Order("points_total DESC").
		Order("id ASC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, translate(err, "", "")
	}
	return users, nil
}

type CategoryCount struct {
	Category models.Category `json:"category"`
	Total    int64           `json:"total"`
}

type Statistics struct {
	TotalTasks      int64           `json:"total_tasks"`
	TotalCO2        decimal.Decimal `json:"total_co2"`
	TotalPoints     int64           `json:"total_points"`
	TasksByCategory []CategoryCount `json:"tasks_by_category"`
}

type StatisticsInput struct {
	// UserID narrows an admin's statistics to one user. Ignored for others.
	UserID uint
}

// Statistics aggregates the ledger visible to the viewer: their own entries,
// or every entry for an admin.
func (s *ReportService) Statistics(ctx context.Context, viewer Viewer, in StatisticsInput) (*Statistics, error) {
	scope := viewer
	if viewer.Admin && in.UserID != 0 {
		scope = Viewer{UserID: in.UserID}
	}

	var totals struct {
		TotalTasks  int64
		TotalCO2    decimal.Decimal
		TotalPoints int64
	}
	err := s.DB.WithContext(ctx).
		Scopes(visibleTo(scope)).
		Select("COUNT(*) AS total_tasks, COALESCE(SUM(co2_avoided), 0) AS total_co2, COALESCE(SUM(points_gained), 0) AS total_points").
		Scan(&totals).Error
	if err != nil {
		return nil, translate(err, "", "")
	}

	byCategory := []CategoryCount{}
	err = s.DB.WithContext(ctx).
		Scopes(visibleTo(scope)).
		Joins("JOIN task_types ON task_types.id = task_entries.task_type_id").
		Select("task_types.category AS category, COUNT(*) AS total").
		Group("task_types.category").
		Order("total DESC").
		Order("category ASC").
		Scan(&byCategory).Error
	if err != nil {
		return nil, translate(err, "", "")
	}

	return &Statistics{
		TotalTasks:      totals.TotalTasks,
		TotalCO2:        totals.TotalCO2.Round(2),
		TotalPoints:     totals.TotalPoints,
		TasksByCategory: byCategory,
	}, nil
}
