package handlers

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/gdg-garage/ecopoints-api/internal/services"
)

type TaskHandler struct {
	ledger  *services.LedgerService
	reports *services.ReportService
	log     logrus.FieldLogger
}

func NewTaskHandler(ledger *services.LedgerService, reports *services.ReportService, log logrus.FieldLogger) *TaskHandler {
	return &TaskHandler{ledger: ledger, reports: reports, log: log}
}

type CreateTaskRequest struct {
	Body struct {
		TaskTypeID   uint     `json:"taskTypeId" minimum:"1"`
		DateOccurred string   `json:"dateOccurred" format:"date" doc:"Day the action happened, not in the future"`
		Notes        string   `json:"notes,omitempty"`
		Photo        string   `json:"photo,omitempty" doc:"Object storage reference"`
		CO2Avoided   *float64 `json:"co2Avoided,omitempty" minimum:"0" maximum:"9999.99" doc:"Override, administrators only"`
		PointsGained *int     `json:"pointsGained,omitempty" minimum:"0" doc:"Override, administrators only"`
	}
}

type CreateTaskResponse struct {
	Body struct {
		Entry     TaskEntryView `json:"entry"`
		User      UserSummary   `json:"user"`
		LeveledUp bool          `json:"leveledUp"`
	}
}

func (h *TaskHandler) HandleCreate(ctx context.Context, input *CreateTaskRequest) (*CreateTaskResponse, error) {
	p, err := currentPrincipal(ctx)
	if err != nil {
		return nil, err
	}

	occurred, err := parseDate("dateOccurred", input.Body.DateOccurred)
	if err != nil {
		return nil, humaError(h.log, err)
	}

	result, err := h.ledger.RecordTask(ctx, p.Viewer(), services.RecordTaskInput{
		TaskTypeID:     input.Body.TaskTypeID,
		DateOccurred:   occurred,
		Notes:          input.Body.Notes,
		Photo:          input.Body.Photo,
		CO2Override:    decimalPtr(input.Body.CO2Avoided),
		PointsOverride: input.Body.PointsGained,
	})
	if err != nil {
		return nil, humaError(h.log, err)
	}

	res := &CreateTaskResponse{}
	res.Body.Entry = taskEntryView(result.Entry)
	res.Body.User = userSummary(result.User)
	res.Body.LeveledUp = result.LeveledUp()
	return res, nil
}

type ListTasksRequest struct {
	Limit  int `query:"limit" minimum:"0" maximum:"200" doc:"Page size, defaults to 50"`
	Offset int `query:"offset" minimum:"0"`
}

type ListTasksResponse struct {
	Body []TaskEntryView
}

func (h *TaskHandler) HandleList(ctx context.Context, input *ListTasksRequest) (*ListTasksResponse, error) {
	p, err := currentPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := h.ledger.ListEntries(ctx, p.Viewer(), services.ListEntriesInput{Limit: input.Limit, Offset: input.Offset})
	if err != nil {
		return nil, humaError(h.log, err)
	}
	body := make([]TaskEntryView, 0, len(entries))
	for _, e := range entries {
		body = append(body, taskEntryView(e))
	}
	return &ListTasksResponse{Body: body}, nil
}

type TaskIDPath struct {
	ID uint `path:"id"`
}

type TaskResponse struct {
	Body TaskEntryView
}

func (h *TaskHandler) HandleGet(ctx context.Context, input *TaskIDPath) (*TaskResponse, error) {
	p, err := currentPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	entry, err := h.ledger.GetEntry(ctx, p.Viewer(), input.ID)
	if err != nil {
		return nil, humaError(h.log, err)
	}
	return &TaskResponse{Body: taskEntryView(*entry)}, nil
}

type UpdateTaskRequest struct {
	ID   uint `path:"id"`
	Body struct {
		DateOccurred *string `json:"dateOccurred,omitempty" format:"date"`
		Notes        *string `json:"notes,omitempty"`
		Photo        *string `json:"photo,omitempty"`
	}
}

func (h *TaskHandler) HandleUpdate(ctx context.Context, input *UpdateTaskRequest) (*TaskResponse, error) {
	p, err := currentPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	occurred, err := parseOptionalDate("dateOccurred", input.Body.DateOccurred)
	if err != nil {
		return nil, humaError(h.log, err)
	}

	entry, err := h.ledger.UpdateEntry(ctx, p.Viewer(), input.ID, services.UpdateEntryInput{
		DateOccurred: occurred,
		Notes:        input.Body.Notes,
		Photo:        input.Body.Photo,
	})
	if err != nil {
		return nil, humaError(h.log, err)
	}
	return &TaskResponse{Body: taskEntryView(*entry)}, nil
}

func (h *TaskHandler) HandleDelete(ctx context.Context, input *TaskIDPath) (*struct{}, error) {
	p, err := currentPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.ledger.DeleteEntry(ctx, p.Viewer(), input.ID); err != nil {
		return nil, humaError(h.log, err)
	}
	return nil, nil
}

type StatisticsRequest struct {
	UserID uint `query:"userId" doc:"Administrators only: restrict to one user"`
}

type StatisticsResponse struct {
	Body struct {
		TotalTasks      int64                    `json:"totalTasks"`
		TotalCO2        Decimal                  `json:"totalCo2"`
		TotalPoints     int64                    `json:"totalPoints"`
		TasksByCategory []services.CategoryCount `json:"tasksByCategory"`
	}
}

func (h *TaskHandler) HandleStatistics(ctx context.Context, input *StatisticsRequest) (*StatisticsResponse, error) {
	p, err := currentPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	stats, err := h.reports.Statistics(ctx, p.Viewer(), services.StatisticsInput{UserID: input.UserID})
	if err != nil {
		return nil, humaError(h.log, err)
	}

	res := &StatisticsResponse{}
	res.Body.TotalTasks = stats.TotalTasks
	res.Body.TotalCO2 = Decimal{stats.TotalCO2}
	res.Body.TotalPoints = stats.TotalPoints
	res.Body.TasksByCategory = stats.TasksByCategory
	return res, nil
}
