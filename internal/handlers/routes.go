package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/gdg-garage/ecopoints-api/internal/auth"
	"github.com/gdg-garage/ecopoints-api/internal/logging"
	"github.com/gdg-garage/ecopoints-api/internal/metrics"
	ratelimit "github.com/gdg-garage/ecopoints-api/internal/middleware"
)

// Operation IDs double as keys of the access policy.
const (
	OpRegister          = "register-user"
	OpLogin             = "login"
	OpRefreshToken      = "refresh-token"
	OpGetProfile        = "get-profile"
	OpUpdateProfile     = "update-profile"
	OpRanking           = "get-ranking"
	OpListUsers         = "list-users"
	OpDeactivateUser    = "deactivate-user"
	OpListTaskTypes     = "list-task-types"
	OpGetTaskType       = "get-task-type"
	OpCreateTaskType    = "create-task-type"
	OpUpdateTaskType    = "update-task-type"
	OpDeleteTaskType    = "delete-task-type"
	OpCreateTask        = "create-task"
	OpListTasks         = "list-tasks"
	OpGetTask           = "get-task"
	OpUpdateTask        = "update-task"
	OpDeleteTask        = "delete-task"
	OpStatistics        = "get-statistics"
	OpListAchievements  = "list-achievements"
	OpMyAchievements    = "my-achievements"
	OpGetAchievement    = "get-achievement"
	OpCreateAchievement = "create-achievement"
	OpAwardAchievement  = "award-achievement"
	OpCreateGroup       = "create-group"
	OpListGroups        = "list-groups"
	OpGetGroup          = "get-group"
	OpJoinGroup         = "join-group"
	OpLeaveGroup        = "leave-group"
	OpGroupMembers      = "list-group-members"
	OpCreateAPIKey      = "create-api-key"
	OpListAPIKeys       = "list-api-keys"
	OpDeleteAPIKey      = "delete-api-key"
)

// AccessPolicy lists operations that are public or admin-only. Everything
// else requires an authenticated, active user.
var AccessPolicy = auth.Policy{
	OpRegister:          auth.Public,
	OpLogin:             auth.Public,
	OpRefreshToken:      auth.Public,
	OpListUsers:         auth.AdminOnly,
	OpDeactivateUser:    auth.AdminOnly,
	OpCreateTaskType:    auth.AdminOnly,
	OpUpdateTaskType:    auth.AdminOnly,
	OpDeleteTaskType:    auth.AdminOnly,
	OpCreateAchievement: auth.AdminOnly,
	OpAwardAchievement:  auth.AdminOnly,
}

// RateLimitedPaths are throttled per client IP.
var RateLimitedPaths = []string{"/users/register", "/users/login", "/token/refresh"}

type Handlers struct {
	Users        *UserHandler
	TaskTypes    *TaskTypeHandler
	Tasks        *TaskHandler
	Achievements *AchievementHandler
	Groups       *GroupHandler
	APIKeys      *APIKeyHandler
}

type RouterOptions struct {
	Log          *logrus.Logger
	Limiter      *ratelimit.RateLimiter
	Health       func(ctx context.Context) error
	DiscordLogin bool
	EnableCORS   bool
}

// NewAPI creates the huma API on top of r with the bearer and API key
// security schemes.
func NewAPI(r chi.Router) huma.API {
	config := huma.DefaultConfig("EcoPoints API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearerAuth": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
		"apiKeyAuth": {
			Type: "apiKey",
			In:   "header",
			Name: auth.APIKeyHeader,
		},
	}
	return humachi.New(r, config)
}

func RegisterRoutes(r *chi.Mux, authHandler *auth.AuthHandler, h Handlers, opts RouterOptions) huma.API {
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(opts.Log))
	r.Use(middleware.Recoverer)
	r.Use(ratelimit.Metrics)
	if opts.EnableCORS {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type", auth.APIKeyHeader},
			MaxAge:         300,
		}))
	}
	if opts.Limiter != nil {
		r.Use(opts.Limiter.Handler)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if opts.Health != nil {
			if err := opts.Health(r.Context()); err != nil {
				opts.Log.WithError(err).Warn("health check failed")
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", metrics.Handler())

	if opts.DiscordLogin {
		r.Get("/auth/discord/login", authHandler.HandleDiscordLogin)
		r.Get("/auth/discord/callback", authHandler.HandleDiscordCallback)
	}

	api := NewAPI(r)
	RegisterOperations(api, authHandler, h)
	return api
}

// RegisterOperations installs the auth middleware and every huma operation.
// The middleware has to be in place before the first operation is added.
func RegisterOperations(api huma.API, authHandler *auth.AuthHandler, h Handlers) {
	api.UseMiddleware(authHandler.Middleware(api, AccessPolicy))

	secured := func(o *huma.Operation) {
		if AccessPolicy.For(o.OperationID) != auth.Public {
			o.Security = []map[string][]string{{"bearerAuth": {}}, {"apiKeyAuth": {}}}
		}
	}
	op := func(id, method, path, summary, tag string, status int) huma.Operation {
		o := huma.Operation{
			OperationID:   id,
			Method:        method,
			Path:          path,
			Summary:       summary,
			Tags:          []string{tag},
			DefaultStatus: status,
		}
		secured(&o)
		return o
	}

	huma.Register(api, op(OpRegister, http.MethodPost, "/users/register", "Register a new user", "users", http.StatusCreated), h.Users.HandleRegister)
	huma.Register(api, op(OpLogin, http.MethodPost, "/users/login", "Log in with username or email", "users", http.StatusOK), h.Users.HandleLogin)
	huma.Register(api, op(OpRefreshToken, http.MethodPost, "/token/refresh", "Exchange a refresh token", "users", http.StatusOK), h.Users.HandleRefresh)
	huma.Register(api, op(OpGetProfile, http.MethodGet, "/users/profile", "Get own profile", "users", http.StatusOK), h.Users.HandleGetProfile)
	huma.Register(api, op(OpUpdateProfile, http.MethodPut, "/users/profile", "Edit own profile", "users", http.StatusOK), h.Users.HandleUpdateProfile)
	huma.Register(api, op(OpRanking, http.MethodGet, "/users/ranking", "Ranking by points", "users", http.StatusOK), h.Users.HandleRanking)
	huma.Register(api, op(OpListUsers, http.MethodGet, "/users", "List active users", "users", http.StatusOK), h.Users.HandleListUsers)
	huma.Register(api, op(OpDeactivateUser, http.MethodDelete, "/users/{id}", "Deactivate a user", "users", http.StatusNoContent), h.Users.HandleDeactivate)

	huma.Register(api, op(OpListTaskTypes, http.MethodGet, "/task-types", "List the task catalog", "task-types", http.StatusOK), h.TaskTypes.HandleList)
	huma.Register(api, op(OpGetTaskType, http.MethodGet, "/task-types/{id}", "Get a task type", "task-types", http.StatusOK), h.TaskTypes.HandleGet)
	huma.Register(api, op(OpCreateTaskType, http.MethodPost, "/task-types", "Create a task type", "task-types", http.StatusCreated), h.TaskTypes.HandleCreate)
	huma.Register(api, op(OpUpdateTaskType, http.MethodPut, "/task-types/{id}", "Update a task type", "task-types", http.StatusOK), h.TaskTypes.HandleUpdate)
	huma.Register(api, op(OpDeleteTaskType, http.MethodDelete, "/task-types/{id}", "Delete an unused task type", "task-types", http.StatusNoContent), h.TaskTypes.HandleDelete)

	huma.Register(api, op(OpStatistics, http.MethodGet, "/tasks/statistics", "Ledger statistics", "tasks", http.StatusOK), h.Tasks.HandleStatistics)
	huma.Register(api, op(OpCreateTask, http.MethodPost, "/tasks", "Record a completed task", "tasks", http.StatusCreated), h.Tasks.HandleCreate)
	huma.Register(api, op(OpListTasks, http.MethodGet, "/tasks", "List ledger entries", "tasks", http.StatusOK), h.Tasks.HandleList)
	huma.Register(api, op(OpGetTask, http.MethodGet, "/tasks/{id}", "Get a ledger entry", "tasks", http.StatusOK), h.Tasks.HandleGet)
	huma.Register(api, op(OpUpdateTask, http.MethodPut, "/tasks/{id}", "Edit a ledger entry", "tasks", http.StatusOK), h.Tasks.HandleUpdate)
	huma.Register(api, op(OpDeleteTask, http.MethodDelete, "/tasks/{id}", "Delete a ledger entry", "tasks", http.StatusNoContent), h.Tasks.HandleDelete)

	huma.Register(api, op(OpListAchievements, http.MethodGet, "/achievements", "List achievements", "achievements", http.StatusOK), h.Achievements.HandleList)
	huma.Register(api, op(OpMyAchievements, http.MethodGet, "/achievements/mine", "List own awards", "achievements", http.StatusOK), h.Achievements.HandleMine)
	huma.Register(api, op(OpGetAchievement, http.MethodGet, "/achievements/{id}", "Get an achievement", "achievements", http.StatusOK), h.Achievements.HandleGet)
	huma.Register(api, op(OpCreateAchievement, http.MethodPost, "/achievements", "Create an achievement", "achievements", http.StatusCreated), h.Achievements.HandleCreate)
	huma.Register(api, op(OpAwardAchievement, http.MethodPost, "/achievements/{id}/award", "Award an achievement", "achievements", http.StatusCreated), h.Achievements.HandleAward)

	huma.Register(api, op(OpCreateGroup, http.MethodPost, "/groups", "Create a group", "groups", http.StatusCreated), h.Groups.HandleCreate)
	huma.Register(api, op(OpListGroups, http.MethodGet, "/groups", "List groups", "groups", http.StatusOK), h.Groups.HandleList)
	huma.Register(api, op(OpGetGroup, http.MethodGet, "/groups/{id}", "Get a group", "groups", http.StatusOK), h.Groups.HandleGet)
	huma.Register(api, op(OpJoinGroup, http.MethodPost, "/groups/{id}/join", "Join a group", "groups", http.StatusOK), h.Groups.HandleJoin)
	huma.Register(api, op(OpLeaveGroup, http.MethodPost, "/groups/{id}/leave", "Leave a group", "groups", http.StatusOK), h.Groups.HandleLeave)
	huma.Register(api, op(OpGroupMembers, http.MethodGet, "/groups/{id}/members", "List group members", "groups", http.StatusOK), h.Groups.HandleMembers)

	huma.Register(api, op(OpCreateAPIKey, http.MethodPost, "/api-keys", "Create an API key", "api-keys", http.StatusCreated), h.APIKeys.HandleCreate)
	huma.Register(api, op(OpListAPIKeys, http.MethodGet, "/api-keys", "List API keys", "api-keys", http.StatusOK), h.APIKeys.HandleList)
	huma.Register(api, op(OpDeleteAPIKey, http.MethodDelete, "/api-keys/{id}", "Revoke an API key", "api-keys", http.StatusNoContent), h.APIKeys.HandleDelete)
}
