package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	// Loads a .env file from the working directory, if present, before env vars are read.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env                string        `koanf:"env" validate:"required"`
	HTTPPort           string        `koanf:"http_port" validate:"required,numeric"`
	DBPath             string        `koanf:"db_path" validate:"required_without=DatabaseURL"`
	DatabaseURL        string        `koanf:"database_url" validate:"omitempty,url"`
	RedisAddr          string        `koanf:"redis_addr" validate:"omitempty,hostname_port"`
	RateLimitPerMin    int           `koanf:"rate_limit_per_min" validate:"gte=0"`
	CORSAllowedOrigins []string      `koanf:"cors_allowed_origins" validate:"required,min=1"`
	LogLevel           string        `koanf:"log_level" validate:"oneof=trace debug info warn error"`
	LogFormat          string        `koanf:"log_format" validate:"oneof=json console"`
	ShutdownTimeout    time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// envKeys maps recognised environment variables to config keys. Anything
// not listed is ignored.
var envKeys = map[string]string{
	"APP_ENV":              "env",
	"PORT":                 "http_port",
	"DB_PATH":              "db_path",
	"DATABASE_URL":         "database_url",
	"REDIS_ADDR":           "redis_addr",
	"RATE_LIMIT_PER_MIN":   "rate_limit_per_min",
	"CORS_ALLOWED_ORIGINS": "cors_allowed_origins",
	"LOG_LEVEL":            "log_level",
	"LOG_FORMAT":           "log_format",
	"SHUTDOWN_TIMEOUT":     "shutdown_timeout",
}

// Defaults returns the configuration used when no environment is set.
func Defaults() App {
	return App{
		Env:                "dev",
		HTTPPort:           "4000",
		DBPath:             "data/attendance.db",
		RateLimitPerMin:    120,
		CORSAllowedOrigins: []string{"*"},
		LogLevel:           "info",
		LogFormat:          "json",
		ShutdownTimeout:    10 * time.Second,
	}
}

// Load returns application config populated from environment variables on
// top of Defaults, and validates the result.
func Load() (App, error) {
	cfg := Defaults()

	k := koanf.New(".")
	if err := k.Load(env.ProviderWithValue("", ".", mapEnv), nil); err != nil {
		return App{}, fmt.Errorf("load environment: %w", err)
	}
	if err := k.Unmarshal("", &cfg); err != nil {
		return App{}, fmt.Errorf("decode config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return App{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// IsProduction reports whether the service runs with production settings.
func (a App) IsProduction() bool {
	return a.Env == "production" || a.Env == "prod"
}

// UsesPostgres reports whether DatabaseURL selects the Postgres store.
func (a App) UsesPostgres() bool {
	return a.DatabaseURL != ""
}

func mapEnv(key, value string) (string, interface{}) {
	name, ok := envKeys[key]
	if !ok {
		return "", nil
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	if name == "cors_allowed_origins" {
		var origins []string
		for _, origin := range strings.Split(value, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
		return name, origins
	}
	return name, value
}
