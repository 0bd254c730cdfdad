package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	// Storage
	StorageDriver string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Security
	JWTSecret     string
	TokenTTLHours int

	// Application
	AppEnv        string
	AppPort       string
	LogLevel      string
	SeedDemoUsers bool

	// Metrics endpoint basic auth
	MetricsUser string
	MetricsPass string

	// Rate Limiting (requests per minute)
	RateLimitPerUser int
	RateLimitPerIP   int

	// Swaps
	MaxPendingOutgoing int

	// Telegram (optional)
	BotToken string
}

func LoadConfig() (*Config, error) {
	env := &envReader{}
	cfg := &Config{
		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverPostgres)),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "skillswap"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "skillswap_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:     getEnv("JWT_SECRET_KEY", ""),
		TokenTTLHours: env.intVar("TOKEN_TTL_HOURS", 24),

		AppEnv:        getEnv("APP_ENV", "development"),
		AppPort:       getEnv("APP_PORT", "8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		SeedDemoUsers: env.boolVar("SEED_DEMO_USERS", false),

		MetricsUser: getEnv("METRICS_USER", ""),
		MetricsPass: getEnv("METRICS_PASS", ""),

		RateLimitPerUser: env.intVar("RATE_LIMIT_PER_USER", 60),
		RateLimitPerIP:   env.intVar("RATE_LIMIT_PER_IP", 300),

		MaxPendingOutgoing: env.intVar("MAX_PENDING_OUTGOING", 5),

		BotToken: getEnv("BOT_TOKEN", ""),
	}

	if err := env.err(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageDriverPostgres:
		if c.DBPassword == "" {
			return fmt.Errorf("DB_PASSWORD is required for the postgres storage driver")
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StorageDriverPostgres, StorageDriverMemory, c.StorageDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET_KEY must be at least 32 characters")
	}
	if c.MaxPendingOutgoing < 1 {
		return fmt.Errorf("MAX_PENDING_OUTGOING must be at least 1")
	}
	if c.TokenTTLHours < 1 {
		return fmt.Errorf("TOKEN_TTL_HOURS must be at least 1")
	}
	if c.RateLimitPerUser < 1 || c.RateLimitPerIP < 1 {
		return fmt.Errorf("rate limits must be positive")
	}
	return nil
}

func (c *Config) ValidateProductionSecurity() error {
	if c.AppEnv != "production" {
		return nil
	}

	if c.StorageDriver != StorageDriverPostgres {
		return fmt.Errorf("STORAGE_DRIVER must be 'postgres' in production")
	}
	if c.DBSSLMode != "require" {
		return fmt.Errorf("DB_SSLMODE must be 'require' in production")
	}
	if c.JWTSecret == "your_jwt_secret_minimum_32_chars_here_change_this" {
		return fmt.Errorf("JWT_SECRET_KEY must be changed from default in production")
	}
	if c.SeedDemoUsers {
		return fmt.Errorf("SEED_DEMO_USERS must be disabled in production")
	}
	if c.MetricsUser == "" || c.MetricsPass == "" {
		return fmt.Errorf("METRICS_USER and METRICS_PASS must be set in production")
	}

	return nil
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) GetTokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// envReader parses typed variables and remembers the ones that are set but
// malformed, so a typo never silently turns into the default.
type envReader struct {
	invalid []string
}

func (r *envReader) intVar(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		r.invalid = append(r.invalid, fmt.Sprintf("%s=%q is not an integer", key, value))
		return defaultValue
	}
	return intVal
}

func (r *envReader) boolVar(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolVal, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		r.invalid = append(r.invalid, fmt.Sprintf("%s=%q is not a boolean", key, value))
		return defaultValue
	}
	return boolVal
}

func (r *envReader) err() error {
	if len(r.invalid) == 0 {
		return nil
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(r.invalid, "; "))
}
