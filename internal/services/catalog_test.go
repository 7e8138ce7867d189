package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdg-garage/ecopoints-api/internal/models"
)

func ptr[T any](v T) *T { return &v }

func TestListTaskTypes(t *testing.T) {
	deps, _ := newTestDeps(t)
	catalog := NewCatalogService(deps)
	ctx := context.Background()

	createTaskType(t, deps.DB, "Train", models.CategoryTransport, 15, "3")
	createTaskType(t, deps.DB, "Bike", models.CategoryTransport, 20, "2.5")
	createTaskType(t, deps.DB, "Compost", models.CategoryRecycling, 5, "0.5")
	retired := createTaskType(t, deps.DB, "Retired", models.CategoryTransport, 1, "0")
	require.NoError(t, deps.DB.Model(&retired).Update("active", false).Error)

	all, err := catalog.ListTaskTypes(ctx, "")
	require.NoError(t, err)
	var names []string
	for _, tt := range all {
		names = append(names, tt.Name)
	}
	assert.Equal(t, []string{"Compost", "Bike", "Train"}, names)

	transport, err := catalog.ListTaskTypes(ctx, string(models.CategoryTransport))
	require.NoError(t, err)
	assert.Len(t, transport, 2)

	_, err = catalog.ListTaskTypes(ctx, "teleportation")
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr), "got %v", err)

	var nf *NotFoundError
	_, err = catalog.GetTaskType(ctx, Viewer{UserID: 1}, retired.ID)
	assert.True(t, errors.As(err, &nf), "got %v", err)
	got, err := catalog.GetTaskType(ctx, Viewer{UserID: 1, Admin: true}, retired.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
}

func TestCreateAndUpdateTaskType(t *testing.T) {
	deps, _ := newTestDeps(t)
	catalog := NewCatalogService(deps)
	ctx := context.Background()

	_, err := catalog.CreateTaskType(ctx, TaskTypeInput{Name: ptr("Shower")})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.Contains(t, verr.Fields, "category")

	created, err := catalog.CreateTaskType(ctx, TaskTypeInput{
		Name:          ptr("Short shower"),
		Category:      ptr(string(models.CategoryWater)),
		CO2PerAction:  ptr(decimal.RequireFromString("0.4")),
		PointsAwarded: ptr(8),
	})
	require.NoError(t, err)
	assert.True(t, created.Active)

	updated, err := catalog.UpdateTaskType(ctx, created.ID, TaskTypeInput{PointsAwarded: ptr(12), Active: ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, 12, updated.PointsAwarded)
	assert.False(t, updated.Active)
	assert.Equal(t, "Short shower", updated.Name)

	_, err = catalog.UpdateTaskType(ctx, created.ID, TaskTypeInput{PointsAwarded: ptr(-1)})
	assert.True(t, errors.As(err, &verr), "got %v", err)

	_, err = catalog.UpdateTaskType(ctx, created.ID, TaskTypeInput{CO2PerAction: ptr(decimal.NewFromInt(10000))})
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.Equal(t, map[string]string{"co2PerAction": "must be between 0 and 9999.99"}, verr.Fields)

	updated, err = catalog.UpdateTaskType(ctx, created.ID, TaskTypeInput{CO2PerAction: ptr(MaxEntryCO2)})
	require.NoError(t, err)
	assert.True(t, updated.CO2PerAction.Equal(MaxEntryCO2), "got %s", updated.CO2PerAction)

	_, err = catalog.UpdateTaskType(ctx, 9999, TaskTypeInput{Name: ptr("x")})
	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf), "got %v", err)
}

func TestDeleteTaskType(t *testing.T) {
	deps, _ := newTestDeps(t)
	catalog := NewCatalogService(deps)
	ledger := NewLedgerService(deps)
	ctx := context.Background()
	user := createUser(t, deps.DB, "u", 0)

	used := createTaskType(t, deps.DB, "Used", models.CategoryEnergy, 10, "1")
	unused := createTaskType(t, deps.DB, "Unused", models.CategoryEnergy, 10, "1")
	_, err := ledger.RecordTask(ctx, viewerOf(user), RecordTaskInput{TaskTypeID: used.ID, DateOccurred: testNow})
	require.NoError(t, err)

	err = catalog.DeleteTaskType(ctx, used.ID)
	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict), "got %v", err)
	assert.Equal(t, "task type is referenced by ledger entries", conflict.Message)

	require.NoError(t, catalog.DeleteTaskType(ctx, unused.ID))
	var nf *NotFoundError
	assert.True(t, errors.As(catalog.DeleteTaskType(ctx, unused.ID), &nf))
}
