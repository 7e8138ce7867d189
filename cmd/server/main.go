package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/gdg-garage/ecopoints-api/internal/auth"
	"github.com/gdg-garage/ecopoints-api/internal/config"
	"github.com/gdg-garage/ecopoints-api/internal/database"
	"github.com/gdg-garage/ecopoints-api/internal/handlers"
	"github.com/gdg-garage/ecopoints-api/internal/logging"
	"github.com/gdg-garage/ecopoints-api/internal/middleware"
	"github.com/gdg-garage/ecopoints-api/internal/notifier"
	"github.com/gdg-garage/ecopoints-api/internal/services"
)

func main() {
	// Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	// Connect to Database
	db, err := database.Connect(cfg, log)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	if cfg.SeedCatalog {
		if err := database.Seed(db, log); err != nil {
			log.Fatalf("Failed to seed catalog: %v", err)
		}
	}

	// Initialize Notifier
	var announcer notifier.Notifier = notifier.Nop{}
	session, err := notifier.NewDiscordSession(cfg.DiscordBotToken)
	if err != nil {
		log.WithError(err).Warn("Discord notifier not initialized")
	} else if session != nil {
		announcer = notifier.NewDiscordNotifier(session, cfg.DiscordNotificationsChannelID)
	}

	// Initialize Services
	deps := services.Deps{DB: db, Log: log, Notifier: announcer}
	identity := services.NewIdentityService(deps)
	apiKeys := services.NewAPIKeyService(deps)
	reports := services.NewReportService(deps, cfg.RankingLimit)

	if cfg.AdminUsername != "" && cfg.AdminPassword != "" {
		if _, err := identity.EnsureAdmin(context.Background(), cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Fatalf("Failed to ensure admin account: %v", err)
		}
	}

	// Initialize Handlers
	authHandler := auth.NewAuthHandler(cfg, identity, apiKeys, log)
	h := handlers.Handlers{
		Users:        handlers.NewUserHandler(identity, reports, authHandler, log),
		TaskTypes:    handlers.NewTaskTypeHandler(services.NewCatalogService(deps), log),
		Tasks:        handlers.NewTaskHandler(services.NewLedgerService(deps), reports, log),
		Achievements: handlers.NewAchievementHandler(services.NewAchievementService(deps), log),
		Groups:       handlers.NewGroupHandler(services.NewGroupService(deps), log),
		APIKeys:      handlers.NewAPIKeyHandler(apiKeys, log),
	}

	stop := make(chan struct{})
	limiter := middleware.NewRateLimiter(cfg.LoginRateLimit, cfg.LoginRateBurst, handlers.RateLimitedPaths, log)
	limiter.StartCleanup(10*time.Minute, stop)

	// Initialize Router
	r := chi.NewRouter()

	// Register Routes
	handlers.RegisterRoutes(r, authHandler, h, handlers.RouterOptions{
		Log:          log,
		Limiter:      limiter,
		Health:       database.HealthCheck(db),
		DiscordLogin: cfg.DiscordLoginEnabled(),
		EnableCORS:   cfg.EnableCORS,
	})

	// Start Server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	close(stop)

	log.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}
