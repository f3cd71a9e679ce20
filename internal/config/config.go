package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env            string
	Port           string
	DatabasePath   string // SQLite file, created on first start
	DatabaseURL    string // Postgres DSN; takes precedence over DatabasePath when set
	RedisURL       string // session + health counters; in-process sessions when empty
	SessionSecret  string
	HealthAdminKey string
	LogLevel       string
	Debug          bool
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("DATABASE_PATH", "cars.db")
	viper.SetDefault("LOG_LEVEL", "info")

	return &Config{
		Env:            viper.GetString("APP_ENV"),
		Port:           viper.GetString("PORT"),
		DatabasePath:   strings.TrimSpace(viper.GetString("DATABASE_PATH")),
		DatabaseURL:    strings.TrimSpace(viper.GetString("DATABASE_URL")),
		RedisURL:       strings.TrimSpace(viper.GetString("REDIS_URL")),
		SessionSecret:  viper.GetString("SESSION_SECRET"),
		HealthAdminKey: viper.GetString("HEALTH_ADMIN_KEY"),
		LogLevel:       viper.GetString("LOG_LEVEL"),
		Debug:          viper.GetBool("DEBUG"),
	}, nil
}

// IsProduction reports whether the app runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}
