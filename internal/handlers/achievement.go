package handlers

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/gdg-garage/ecopoints-api/internal/services"
)

type AchievementHandler struct {
	achievements *services.AchievementService
	log          logrus.FieldLogger
}

func NewAchievementHandler(achievements *services.AchievementService, log logrus.FieldLogger) *AchievementHandler {
	return &AchievementHandler{achievements: achievements, log: log}
}

type ListAchievementsResponse struct {
	Body []AchievementView
}

func (h *AchievementHandler) HandleList(ctx context.Context, _ *struct{}) (*ListAchievementsResponse, error) {
	achievements, err := h.achievements.List(ctx)
	if err != nil {
		return nil, humaError(h.log, err)
	}
	body := make([]AchievementView, 0, len(achievements))
	for _, a := range achievements {
		body = append(body, achievementView(a))
	}
	return &ListAchievementsResponse{Body: body}, nil
}

type AchievementIDPath struct {
	ID uint `path:"id"`
}

type AchievementResponse struct {
	Body AchievementView
}

func (h *AchievementHandler) HandleGet(ctx context.Context, input *AchievementIDPath) (*AchievementResponse, error) {
	achievement, err := h.achievements.Get(ctx, input.ID)
	if err != nil {
		return nil, humaError(h.log, err)
	}
	return &AchievementResponse{Body: achievementView(*achievement)}, nil
}

type CreateAchievementRequest struct {
	Body struct {
		Name           string  `json:"name" doc:"Name of the achievement" minLength:"1" maxLength:"100"`
		Description    string  `json:"description,omitempty"`
		Tier           string  `json:"tier" enum:"bronze,silver,gold,platinum"`
		Icon           string  `json:"icon,omitempty" doc:"Object storage reference"`
		PointsRequired int     `json:"pointsRequired,omitempty" minimum:"0"`
		TasksRequired  int     `json:"tasksRequired,omitempty" minimum:"0"`
		CO2Required    float64 `json:"co2Required,omitempty" minimum:"0" maximum:"99999999.99"`
	}
}

func (h *AchievementHandler) HandleCreate(ctx context.Context, input *CreateAchievementRequest) (*AchievementResponse, error) {
	achievement, err := h.achievements.Create(ctx, services.AchievementInput{
		Name:           input.Body.Name,
		Description:    input.Body.Description,
		Tier:           input.Body.Tier,
		Icon:           input.Body.Icon,
		PointsRequired: input.Body.PointsRequired,
		TasksRequired:  input.Body.TasksRequired,
		CO2Required:    decimal.NewFromFloat(input.Body.CO2Required).Round(2),
	})
	if err != nil {
		return nil, humaError(h.log, err)
	}
	return &AchievementResponse{Body: achievementView(*achievement)}, nil
}

type AwardAchievementRequest struct {
	ID   uint `path:"id"`
	Body struct {
		UserID uint `json:"userId" doc:"User receiving the achievement" minimum:"1"`
	}
}

type AwardResponse struct {
	Body AwardView
}

func (h *AchievementHandler) HandleAward(ctx context.Context, input *AwardAchievementRequest) (*AwardResponse, error) {
	p, err := currentPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	award, err := h.achievements.Award(ctx, p.Viewer(), input.ID, input.Body.UserID)
	if err != nil {
		return nil, humaError(h.log, err)
	}
	return &AwardResponse{Body: awardView(*award)}, nil
}

type MyAchievementsResponse struct {
	Body []AwardView
}

func (h *AchievementHandler) HandleMine(ctx context.Context, _ *struct{}) (*MyAchievementsResponse, error) {
	p, err := currentPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	awards, err := h.achievements.Mine(ctx, p.User.ID)
	if err != nil {
		return nil, humaError(h.log, err)
	}
	body := make([]AwardView, 0, len(awards))
	for _, a := range awards {
		body = append(body, awardView(a))
	}
	return &MyAchievementsResponse{Body: body}, nil
}
