package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration in a structured way.
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Scheduler SchedulerConfig
	Worker    WorkerConfig
	Security  SecurityConfig
}

type AppConfig struct {
	Version            string
	Port               string
	Debug              bool
	Environment        string
	BasicAuth          []string
	CorsAllowedOrigins []string
}

type DatabaseConfig struct {
	Driver   string // "sqlite" (default) or "postgres"
	Host     string
	Port     int
	User     string
	Password string
	Name     string // file path for SQLite, database name for Postgres
}

type SchedulerConfig struct {
	PollInterval time.Duration
	MaxAttempts  int
	BackoffBase  time.Duration // doubles per failed attempt: base, 2*base, 4*base
}

type WorkerConfig struct {
	PoolSize  int
	QueueSize int
}

type SecurityConfig struct {
	SecretKey string
}

// Global provides access to the loaded configuration.
var Global *Config

// LoadConfig reads configuration from environment variables and an optional
// .env file, applies defaults and stores the result in Global.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	// A missing .env file is fine; env vars alone are enough.
	_ = v.ReadInConfig()

	v.SetDefault("app_port", "3000")
	v.SetDefault("app_debug", false)
	v.SetDefault("app_env", "development")
	v.SetDefault("app_cors_allowed_origins", "http://localhost:5173")
	v.SetDefault("db_driver", "sqlite")
	v.SetDefault("db_name", "storages/fedisched.db")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", 5432)
	v.SetDefault("scheduler_poll_interval", "30s")
	v.SetDefault("scheduler_max_attempts", 3)
	v.SetDefault("scheduler_backoff_base", "1m")
	v.SetDefault("worker_pool_size", 4)
	v.SetDefault("worker_queue_size", 64)

	var basicAuth []string
	if raw := strings.TrimSpace(v.GetString("app_basic_auth")); raw != "" {
		basicAuth = strings.Split(raw, ",")
	}

	pollInterval := v.GetDuration("scheduler_poll_interval")
	if pollInterval <= 0 {
		return nil, fmt.Errorf("SCHEDULER_POLL_INTERVAL must be positive, got %q", v.GetString("scheduler_poll_interval"))
	}
	backoffBase := v.GetDuration("scheduler_backoff_base")
	if backoffBase <= 0 {
		return nil, fmt.Errorf("SCHEDULER_BACKOFF_BASE must be positive, got %q", v.GetString("scheduler_backoff_base"))
	}
	maxAttempts := v.GetInt("scheduler_max_attempts")
	if maxAttempts <= 0 {
		return nil, fmt.Errorf("SCHEDULER_MAX_ATTEMPTS must be positive, got %d", maxAttempts)
	}

	cfg := &Config{
		App: AppConfig{
			Version:            "v0.1.0",
			Port:               v.GetString("app_port"),
			Debug:              v.GetBool("app_debug"),
			Environment:        v.GetString("app_env"),
			BasicAuth:          basicAuth,
			CorsAllowedOrigins: strings.Split(v.GetString("app_cors_allowed_origins"), ","),
		},
		Database: DatabaseConfig{
			Driver:   v.GetString("db_driver"),
			Host:     v.GetString("db_host"),
			Port:     v.GetInt("db_port"),
			User:     v.GetString("db_user"),
			Password: v.GetString("db_password"),
			Name:     v.GetString("db_name"),
		},
		Scheduler: SchedulerConfig{
			PollInterval: pollInterval,
			MaxAttempts:  maxAttempts,
			BackoffBase:  backoffBase,
		},
		Worker: WorkerConfig{
			PoolSize:  v.GetInt("worker_pool_size"),
			QueueSize: v.GetInt("worker_queue_size"),
		},
		Security: SecurityConfig{
			SecretKey: v.GetString("app_secret_key"),
		},
	}

	Global = cfg
	return cfg, nil
}
