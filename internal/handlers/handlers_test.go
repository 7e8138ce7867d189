package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdg-garage/ecopoints-api/internal/auth"
	"github.com/gdg-garage/ecopoints-api/internal/config"
	"github.com/gdg-garage/ecopoints-api/internal/database"
	"github.com/gdg-garage/ecopoints-api/internal/models"
	"github.com/gdg-garage/ecopoints-api/internal/services"
	"gorm.io/gorm"
)

type testServer struct {
	api    humatest.TestAPI
	db     *gorm.DB
	tokens *auth.TokenIssuer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{DBType: "sqlite", DatabasePath: ":memory:", JWTSecret: "handler-secret", RankingLimit: 100}
	db, err := database.Connect(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	log := logrus.New()
	log.SetOutput(io.Discard)

	deps := services.Deps{DB: db, Log: log}
	identity := services.NewIdentityService(deps)
	apiKeys := services.NewAPIKeyService(deps)
	reports := services.NewReportService(deps, cfg.RankingLimit)
	authHandler := auth.NewAuthHandler(cfg, identity, apiKeys, log)

	_, api := humatest.New(t)
	RegisterOperations(api, authHandler, Handlers{
		Users:        NewUserHandler(identity, reports, authHandler, log),
		TaskTypes:    NewTaskTypeHandler(services.NewCatalogService(deps), log),
		Tasks:        NewTaskHandler(services.NewLedgerService(deps), reports, log),
		Achievements: NewAchievementHandler(services.NewAchievementService(deps), log),
		Groups:       NewGroupHandler(services.NewGroupService(deps), log),
		APIKeys:      NewAPIKeyHandler(apiKeys, log),
	})
	return &testServer{api: api, db: db, tokens: authHandler.Tokens()}
}

func (s *testServer) bearer(t *testing.T, userID uint) string {
	t.Helper()
	token, err := s.tokens.IssueAccess(userID)
	require.NoError(t, err)
	return "Authorization: Bearer " + token
}

func (s *testServer) admin(t *testing.T) string {
	t.Helper()
	hash, err := services.HashPassword("admin-password")
	require.NoError(t, err)
	u := models.User{Username: "admin", Email: "admin@example.com", PasswordHash: hash, Role: models.RoleAdmin, Level: 1, CO2AvoidedTotal: decimal.Zero, Active: true}
	require.NoError(t, s.db.Create(&u).Error)
	return s.bearer(t, u.ID)
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}

type authBody struct {
	User struct {
		ID              uint   `json:"id"`
		Username        string `json:"username"`
		PointsTotal     int    `json:"pointsTotal"`
		Level           int    `json:"level"`
		CO2AvoidedTotal string `json:"co2AvoidedTotal"`
	} `json:"user"`
	Tokens auth.TokenPair `json:"tokens"`
}

type createdTask struct {
	Entry struct {
		ID           uint   `json:"id"`
		CO2Avoided   string `json:"co2Avoided"`
		PointsGained int    `json:"pointsGained"`
		DateOccurred string `json:"dateOccurred"`
	} `json:"entry"`
	User struct {
		PointsTotal int `json:"pointsTotal"`
		Level       int `json:"level"`
	} `json:"user"`
	LeveledUp bool `json:"leveledUp"`
}

type problem struct {
	Status int    `json:"status"`
	Detail string `json:"detail"`
	Errors []struct {
		Message  string `json:"message"`
		Location string `json:"location"`
	} `json:"errors"`
}

func TestRegisterLoginAndRecord(t *testing.T) {
	s := newTestServer(t)
	adminAuth := s.admin(t)

	resp := s.api.Post("/users/register", map[string]any{
		"username":        "greta",
		"email":           "greta@example.com",
		"password":        "correct-horse",
		"passwordConfirm": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	registered := decode[authBody](t, resp.Body.Bytes())
	assert.Equal(t, 1, registered.User.Level)
	assert.Equal(t, "0.00", registered.User.CO2AvoidedTotal)
	assert.NotEmpty(t, registered.Tokens.Refresh)

	resp = s.api.Post("/users/login", map[string]any{"username": "greta@example.com", "password": "correct-horse"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	login := decode[authBody](t, resp.Body.Bytes())
	userAuth := "Authorization: Bearer " + login.Tokens.Access

	resp = s.api.Post("/users/login", map[string]any{"username": "greta", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = s.api.Post("/task-types", userAuth, map[string]any{"name": "Bike", "category": "sustainable-transport", "co2PerAction": 2.5, "pointsAwarded": 60})
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = s.api.Post("/task-types", adminAuth, map[string]any{"name": "Bike", "category": "sustainable-transport", "co2PerAction": 2.5, "pointsAwarded": 60})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	taskType := decode[struct {
		ID           uint   `json:"id"`
		CO2PerAction string `json:"co2PerAction"`
	}](t, resp.Body.Bytes())
	assert.Equal(t, "2.50", taskType.CO2PerAction)

	day := time.Now().UTC().AddDate(0, 0, -1).Format(dateLayout)
	var created createdTask
	for i := 0; i < 2; i++ {
		resp = s.api.Post("/tasks", userAuth, map[string]any{"taskTypeId": taskType.ID, "dateOccurred": day})
		require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
		created = decode[createdTask](t, resp.Body.Bytes())
	}
	assert.Equal(t, "2.50", created.Entry.CO2Avoided)
	assert.Equal(t, day, created.Entry.DateOccurred)
	assert.Equal(t, 120, created.User.PointsTotal)
	assert.Equal(t, 2, created.User.Level)
	assert.True(t, created.LeveledUp)

	resp = s.api.Get("/tasks/statistics", userAuth)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	stats := decode[struct {
		TotalTasks      int64  `json:"totalTasks"`
		TotalCO2        string `json:"totalCo2"`
		TotalPoints     int64  `json:"totalPoints"`
		TasksByCategory []struct {
			Category string `json:"category"`
			Total    int64  `json:"total"`
		} `json:"tasksByCategory"`
	}](t, resp.Body.Bytes())
	assert.Equal(t, int64(2), stats.TotalTasks)
	assert.Equal(t, "5.00", stats.TotalCO2)
	assert.Equal(t, int64(120), stats.TotalPoints)
	require.Len(t, stats.TasksByCategory, 1)
	assert.Equal(t, "sustainable-transport", stats.TasksByCategory[0].Category)

	resp = s.api.Get("/users/profile", userAuth)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"completedTasks":2`)

	resp = s.api.Delete("/tasks/"+jsonNumber(created.Entry.ID), userAuth)
	require.Equal(t, http.StatusNoContent, resp.Code, resp.Body.String())

	resp = s.api.Get("/users/ranking", userAuth)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"pointsTotal":60`)
}

func TestValidationErrorsNameFields(t *testing.T) {
	s := newTestServer(t)

	resp := s.api.Post("/users/register", map[string]any{
		"username":        "sam",
		"email":           "sam@example.com",
		"password":        "long-enough",
		"passwordConfirm": "different-one",
	})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	p := decode[problem](t, resp.Body.Bytes())
	require.Len(t, p.Errors, 1)
	assert.Equal(t, "body.password", p.Errors[0].Location)
	assert.Equal(t, "password fields didn't match", p.Errors[0].Message)

	admin := s.admin(t)
	resp = s.api.Post("/tasks", admin, map[string]any{"taskTypeId": 1, "dateOccurred": "2999-01-01"})
	require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
	p = decode[problem](t, resp.Body.Bytes())
	require.Len(t, p.Errors, 1)
	assert.Equal(t, "body.dateOccurred", p.Errors[0].Location)
	assert.Equal(t, "must not be in the future", p.Errors[0].Message)

	resp = s.api.Put("/users/profile", admin, map[string]any{"birthDate": "2999-01-01"})
	require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
	p = decode[problem](t, resp.Body.Bytes())
	require.Len(t, p.Errors, 1)
	assert.Equal(t, "body.birthDate", p.Errors[0].Location)
}

func TestCO2AboveColumnRangeIsRejected(t *testing.T) {
	s := newTestServer(t)
	admin := s.admin(t)

	cases := []struct {
		path     string
		body     map[string]any
		location string
	}{
		{"/task-types", map[string]any{"name": "Solar farm", "category": "energy-saving", "pointsAwarded": 10, "co2PerAction": 10000}, "body.co2PerAction"},
		{"/tasks", map[string]any{"taskTypeId": 1, "dateOccurred": "2025-01-01", "co2Avoided": 10000}, "body.co2Avoided"},
		{"/achievements", map[string]any{"name": "Giant", "tier": "gold", "co2Required": 100000000}, "body.co2Required"},
	}
	for _, tc := range cases {
		t.Run(tc.location, func(t *testing.T) {
			resp := s.api.Post(tc.path, admin, tc.body)
			require.Equal(t, http.StatusUnprocessableEntity, resp.Code, resp.Body.String())
			p := decode[problem](t, resp.Body.Bytes())
			require.Len(t, p.Errors, 1)
			assert.Equal(t, tc.location, p.Errors[0].Location)
		})
	}
}

func TestGroupMembershipConflicts(t *testing.T) {
	s := newTestServer(t)
	admin := s.admin(t)

	var other models.User
	require.NoError(t, s.db.Create(&models.User{Username: "joiner", Email: "joiner@example.com", Role: models.RoleUser, Level: 1, CO2AvoidedTotal: decimal.Zero, Active: true}).Error)
	require.NoError(t, s.db.Where("username = ?", "joiner").First(&other).Error)
	joiner := s.bearer(t, other.ID)

	resp := s.api.Post("/groups", admin, map[string]any{"name": "Commuters"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	group := decode[struct {
		ID          uint  `json:"id"`
		MemberCount int64 `json:"memberCount"`
	}](t, resp.Body.Bytes())
	assert.Equal(t, int64(1), group.MemberCount)

	path := "/groups/" + jsonNumber(group.ID)
	require.Equal(t, http.StatusOK, s.api.Post(path+"/join", joiner).Code)
	assert.Equal(t, http.StatusConflict, s.api.Post(path+"/join", joiner).Code)

	resp = s.api.Get(path+"/members", joiner)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"username":"joiner"`)

	require.Equal(t, http.StatusOK, s.api.Post(path+"/leave", joiner).Code)
	assert.Equal(t, http.StatusNotFound, s.api.Post(path+"/leave", joiner).Code)
	assert.Equal(t, http.StatusNotFound, s.api.Post("/groups/999/join", joiner).Code)
	assert.Equal(t, http.StatusUnauthorized, s.api.Post(path+"/join").Code)
}

func TestAchievementAwardFlow(t *testing.T) {
	s := newTestServer(t)
	admin := s.admin(t)

	var earner models.User
	require.NoError(t, s.db.Create(&models.User{Username: "earner", Email: "earner@example.com", Role: models.RoleUser, Level: 1, CO2AvoidedTotal: decimal.Zero, Active: true}).Error)
	require.NoError(t, s.db.Where("username = ?", "earner").First(&earner).Error)
	earnerAuth := s.bearer(t, earner.ID)

	resp := s.api.Post("/achievements", admin, map[string]any{"name": "Starter", "tier": "bronze", "pointsRequired": 0, "co2Required": 1.5})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	achievement := decode[struct {
		ID          uint   `json:"id"`
		CO2Required string `json:"co2Required"`
	}](t, resp.Body.Bytes())
	assert.Equal(t, "1.50", achievement.CO2Required)

	path := "/achievements/" + jsonNumber(achievement.ID) + "/award"
	assert.Equal(t, http.StatusForbidden, s.api.Post(path, earnerAuth, map[string]any{"userId": earner.ID}).Code)
	require.Equal(t, http.StatusCreated, s.api.Post(path, admin, map[string]any{"userId": earner.ID}).Code)
	assert.Equal(t, http.StatusConflict, s.api.Post(path, admin, map[string]any{"userId": earner.ID}).Code)

	resp = s.api.Get("/achievements/mine", earnerAuth)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"name":"Starter"`)
}

func TestAPIKeyAuthentication(t *testing.T) {
	s := newTestServer(t)
	admin := s.admin(t)

	resp := s.api.Post("/api-keys", admin, map[string]any{"name": "cron"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	key := decode[struct {
		Key string `json:"key"`
	}](t, resp.Body.Bytes())
	require.Len(t, key.Key, 64)

	resp = s.api.Get("/users", auth.APIKeyHeader+": "+key.Key)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = s.api.Get("/api-keys", admin)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.NotContains(t, resp.Body.String(), key.Key)
	assert.Contains(t, resp.Body.String(), key.Key[len(key.Key)-4:])
}

func jsonNumber(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
