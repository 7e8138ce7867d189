package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port                          string        `mapstructure:"PORT"`
	DBType                        string        `mapstructure:"DB_TYPE"`
	DatabasePath                  string        `mapstructure:"DATABASE_PATH"`
	DatabaseDSN                   string        `mapstructure:"DATABASE_DSN"`
	DBMaxOpenConns                int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	JWTSecret                     string        `mapstructure:"JWT_SECRET"`
	AccessTokenTTL                time.Duration `mapstructure:"ACCESS_TOKEN_TTL"`
	RefreshTokenTTL               time.Duration `mapstructure:"REFRESH_TOKEN_TTL"`
	RankingLimit                  int           `mapstructure:"RANKING_LIMIT"`
	SeedCatalog                   bool          `mapstructure:"SEED_CATALOG"`
	LogLevel                      string        `mapstructure:"LOG_LEVEL"`
	LogFormat                     string        `mapstructure:"LOG_FORMAT"`
	EnableCORS                    bool          `mapstructure:"ENABLE_CORS"`
	LoginRateLimit                float64       `mapstructure:"LOGIN_RATE_LIMIT"`
	LoginRateBurst                int           `mapstructure:"LOGIN_RATE_BURST"`
	AdminUsername                 string        `mapstructure:"ADMIN_USERNAME"`
	AdminEmail                    string        `mapstructure:"ADMIN_EMAIL"`
	AdminPassword                 string        `mapstructure:"ADMIN_PASSWORD"`
	DiscordClientID               string        `mapstructure:"DISCORD_CLIENT_ID"`
	DiscordClientSecret           string        `mapstructure:"DISCORD_CLIENT_SECRET"`
	DiscordRedirectURL            string        `mapstructure:"DISCORD_REDIRECT_URL"`
	DiscordBotToken               string        `mapstructure:"DISCORD_BOT_TOKEN"`
	DiscordNotificationsChannelID string        `mapstructure:"DISCORD_NOTIFICATIONS_CHANNEL_ID"`
}

// DiscordLoginEnabled reports whether the OAuth login flow has credentials.
func (c *Config) DiscordLoginEnabled() bool {
	return c.DiscordClientID != "" && c.DiscordClientSecret != ""
}

func LoadConfig() (*Config, error) {
	// .env never overrides variables already present in the environment.
	if envMap, err := godotenv.Read(); err == nil {
		for k, v := range envMap {
			if os.Getenv(k) == "" {
				os.Setenv(k, v)
			}
		}
	}

	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_TYPE", "sqlite")
	v.SetDefault("DATABASE_PATH", "ecopoints.db")
	v.SetDefault("DATABASE_DSN", "")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("ACCESS_TOKEN_TTL", "1h")
	v.SetDefault("REFRESH_TOKEN_TTL", "168h")
	v.SetDefault("RANKING_LIMIT", 100)
	v.SetDefault("SEED_CATALOG", true)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("ENABLE_CORS", false)
	v.SetDefault("LOGIN_RATE_LIMIT", 5)
	v.SetDefault("LOGIN_RATE_BURST", 10)
	v.SetDefault("ADMIN_USERNAME", "")
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("DISCORD_CLIENT_ID", "")
	v.SetDefault("DISCORD_CLIENT_SECRET", "")
	v.SetDefault("DISCORD_REDIRECT_URL", "http://127.0.0.1:8080/auth/discord/callback")
	v.SetDefault("DISCORD_BOT_TOKEN", "")
	v.SetDefault("DISCORD_NOTIFICATIONS_CHANNEL_ID", "")

	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if config.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if config.RankingLimit <= 0 {
		config.RankingLimit = 100
	}

	return &config, nil
}
