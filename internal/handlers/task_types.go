package handlers

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/gdg-garage/ecopoints-api/internal/services"
)

type TaskTypeHandler struct {
	catalog *services.CatalogService
	log     logrus.FieldLogger
}

func NewTaskTypeHandler(catalog *services.CatalogService, log logrus.FieldLogger) *TaskTypeHandler {
	return &TaskTypeHandler{catalog: catalog, log: log}
}

type ListTaskTypesRequest struct {
	Category string `query:"category" enum:"recycling,sustainable-transport,energy-saving,water-saving,sustainable-diet,other" doc:"Only return task types of this category"`
}

type ListTaskTypesResponse struct {
	Body []TaskTypeView
}

func (h *TaskTypeHandler) HandleList(ctx context.Context, input *ListTaskTypesRequest) (*ListTaskTypesResponse, error) {
	types, err := h.catalog.ListTaskTypes(ctx, input.Category)
	if err != nil {
		return nil, humaError(h.log, err)
	}
	body := make([]TaskTypeView, 0, len(types))
	for _, t := range types {
		body = append(body, taskTypeView(t))
	}
	return &ListTaskTypesResponse{Body: body}, nil
}

type TaskTypeIDPath struct {
	ID uint `path:"id"`
}

type TaskTypeResponse struct {
	Body TaskTypeView
}

func (h *TaskTypeHandler) HandleGet(ctx context.Context, input *TaskTypeIDPath) (*TaskTypeResponse, error) {
	p, err := currentPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	taskType, err := h.catalog.GetTaskType(ctx, p.Viewer(), input.ID)
	if err != nil {
		return nil, humaError(h.log, err)
	}
	return &TaskTypeResponse{Body: taskTypeView(*taskType)}, nil
}

type TaskTypeBody struct {
	Name          *string  `json:"name,omitempty" minLength:"1" maxLength:"100"`
	Description   *string  `json:"description,omitempty"`
	Category      *string  `json:"category,omitempty" enum:"recycling,sustainable-transport,energy-saving,water-saving,sustainable-diet,other"`
	CO2PerAction  *float64 `json:"co2PerAction,omitempty" minimum:"0" maximum:"9999.99" doc:"kg of CO2 avoided per action"`
	PointsAwarded *int     `json:"pointsAwarded,omitempty" minimum:"0"`
	Icon          *string  `json:"icon,omitempty" maxLength:"50"`
	Active        *bool    `json:"active,omitempty"`
}

func (b TaskTypeBody) input() services.TaskTypeInput {
	return services.TaskTypeInput{
		Name:          b.Name,
		Description:   b.Description,
		Category:      b.Category,
		CO2PerAction:  decimalPtr(b.CO2PerAction),
		PointsAwarded: b.PointsAwarded,
		Icon:          b.Icon,
		Active:        b.Active,
	}
}

type CreateTaskTypeRequest struct {
	Body TaskTypeBody
}

func (h *TaskTypeHandler) HandleCreate(ctx context.Context, input *CreateTaskTypeRequest) (*TaskTypeResponse, error) {
	taskType, err := h.catalog.CreateTaskType(ctx, input.Body.input())
	if err != nil {
		return nil, humaError(h.log, err)
	}
	return &TaskTypeResponse{Body: taskTypeView(*taskType)}, nil
}

type UpdateTaskTypeRequest struct {
	ID   uint `path:"id"`
	Body TaskTypeBody
}

func (h *TaskTypeHandler) HandleUpdate(ctx context.Context, input *UpdateTaskTypeRequest) (*TaskTypeResponse, error) {
	taskType, err := h.catalog.UpdateTaskType(ctx, input.ID, input.Body.input())
	if err != nil {
		return nil, humaError(h.log, err)
	}
	return &TaskTypeResponse{Body: taskTypeView(*taskType)}, nil
}

func (h *TaskTypeHandler) HandleDelete(ctx context.Context, input *TaskTypeIDPath) (*struct{}, error) {
	if err := h.catalog.DeleteTaskType(ctx, input.ID); err != nil {
		return nil, humaError(h.log, err)
	}
	return nil, nil
}
