package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// DriverMemory keeps accounts in process memory.
	DriverMemory = "memory"
	// DriverPostgres stores accounts in PostgreSQL via pgx.
	DriverPostgres = "postgres"
	// DriverMySQL stores accounts in MySQL via gorm.
	DriverMySQL = "mysql"

	defaultAppName         = "SimpleBank"
	defaultAppEnv          = "development"
	defaultPort            = "8080"
	defaultLogLevel        = "info"
	defaultShutdownDelay   = 10 * time.Second
	defaultIdempotencyTTL  = 24 * time.Hour
	defaultSessionTTL      = 30 * time.Minute
	defaultLoginAttempts   = 5
	defaultIdentifierTries = 1000
	configFileEnvVar       = "CONFIG_FILE"
	dotenvFile             = ".env"
)

// Config captures application runtime configuration.
type Config struct {
	AppName                string        `mapstructure:"app_name"`
	AppEnv                 string        `mapstructure:"app_env"`
	Port                   string        `mapstructure:"port"`
	LogLevel               string        `mapstructure:"log_level"`
	StoreDriver            string        `mapstructure:"store_driver"`
	DatabaseURL            string        `mapstructure:"database_url"`
	RedisURL               string        `mapstructure:"redis_url"`
	ShutdownPeriod         time.Duration `mapstructure:"shutdown_timeout"`
	IdempotencyTTL         time.Duration `mapstructure:"idempotency_ttl"`
	SessionTTL             time.Duration `mapstructure:"session_ttl"`
	LoginAttemptsPerMinute int           `mapstructure:"login_attempts_per_minute"`
	IdentifierMaxAttempts  int           `mapstructure:"identifier_max_attempts"`
}

// Load reads configuration from a .env file (when present), an optional
// config file named by CONFIG_FILE, and the environment, in increasing order
// of precedence.
func Load() (Config, error) {
	if err := godotenv.Load(dotenvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", dotenvFile, err)
	}

	v := viper.New()
	v.SetDefault("app_name", defaultAppName)
	v.SetDefault("app_env", defaultAppEnv)
	v.SetDefault("port", defaultPort)
	v.SetDefault("log_level", defaultLogLevel)
	v.SetDefault("store_driver", DriverMemory)
	v.SetDefault("database_url", "")
	v.SetDefault("redis_url", "")
	v.SetDefault("shutdown_timeout", defaultShutdownDelay)
	v.SetDefault("idempotency_ttl", defaultIdempotencyTTL)
	v.SetDefault("session_ttl", defaultSessionTTL)
	v.SetDefault("login_attempts_per_minute", defaultLoginAttempts)
	v.SetDefault("identifier_max_attempts", defaultIdentifierTries)
	v.AutomaticEnv()

	if path := v.GetString(configFileEnvVar); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.StoreDriver = strings.ToLower(cfg.StoreDriver)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case DriverMemory:
	case DriverPostgres, DriverMySQL:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL must be set for STORE_DRIVER=%s", c.StoreDriver)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.IdempotencyTTL <= 0 {
		return fmt.Errorf("IDEMPOTENCY_TTL must be positive")
	}
	if c.IdentifierMaxAttempts <= 0 {
		return fmt.Errorf("IDENTIFIER_MAX_ATTEMPTS must be positive")
	}
	return nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether the app runs in a development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}
