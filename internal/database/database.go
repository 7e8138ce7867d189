package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gdg-garage/ecopoints-api/internal/config"
	"github.com/gdg-garage/ecopoints-api/internal/logging"
	"github.com/gdg-garage/ecopoints-api/internal/models"
)

// Connect opens the database selected by DB_TYPE. Storage errors are
// translated into gorm's portable sentinels so uniqueness and foreign key
// violations can be told apart from other failures.
func Connect(cfg *config.Config, log *logrus.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch strings.ToLower(cfg.DBType) {
	case "", "sqlite":
		dialector = sqlite.Open(SQLiteDSN(cfg.DatabasePath))
	case "postgres", "postgresql":
		if cfg.DatabaseDSN == "" {
			return nil, fmt.Errorf("DATABASE_DSN is required for %s", cfg.DBType)
		}
		dialector = postgres.Open(cfg.DatabaseDSN)
	case "mysql", "mariadb":
		if cfg.DatabaseDSN == "" {
			return nil, fmt.Errorf("DATABASE_DSN is required for %s", cfg.DBType)
		}
		dialector = mysql.Open(cfg.DatabaseDSN)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.DBType)
	}

	gormConfig := &gorm.Config{TranslateError: true}
	if log != nil {
		gormConfig.Logger = logging.GormLogger(log)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}
	maxOpen := cfg.DBMaxOpenConns
	if isMemorySQLite(cfg) {
		// every connection to :memory: is a separate database
		maxOpen = 1
	}
	if maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
		sqlDB.SetMaxIdleConns(maxOpen)
	}

	if log != nil {
		log.WithField("db_type", cfg.DBType).Info("connected to database")
	}
	return db, nil
}

// SQLiteDSN turns on foreign key enforcement, which sqlite leaves off by default.
func SQLiteDSN(path string) string {
	if strings.Contains(path, "_foreign_keys") || strings.Contains(path, "_fk=") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on"
}

func isMemorySQLite(cfg *config.Config) bool {
	t := strings.ToLower(cfg.DBType)
	return (t == "" || t == "sqlite") && strings.Contains(cfg.DatabasePath, ":memory:")
}

// Migrate creates or updates every table. Parents come before children so
// foreign keys resolve on every dialect.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.TaskType{},
		&models.TaskEntry{},
		&models.Achievement{},
		&models.AchievementAward{},
		&models.Group{},
		&models.Membership{},
		&models.APIKey{},
	); err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}
	return nil
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Ping checks the database answers within two seconds.
func Ping(ctx context.Context, p Pinger) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := p.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping: %w", err)
	}
	return nil
}

// HealthCheck returns a probe for the /health route.
func HealthCheck(db *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return Ping(ctx, sqlDB)
	}
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
