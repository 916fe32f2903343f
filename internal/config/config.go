package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"cepas/pkg/logger"
)

type Config struct {
	HTTPPort       string
	Env            string
	AllowedOrigins []string
	MetricsEnabled bool
	DB             DBConfig
	Auth           AuthConfig
	Family         FamilyConfig
	Interviews     InterviewsConfig
}

type DBConfig struct {
	DSN             string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	TimeZone        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogSQL          bool
}

type AuthConfig struct {
	JWTSecret         string
	AccessTTL         time.Duration
	RefreshTTL        time.Duration
	MaxFailedAttempts int
	LockDuration      time.Duration
	LoginRateRPS      float64
	LoginRateBurst    int
	AdminUsername     string
	AdminPassword     string
}

type FamilyConfig struct {
	StrictTransactions bool
	CacheTTL           time.Duration
}

type InterviewsConfig struct {
	RecentDays int
}

func Load(log logger.Logger) (Config, error) {
	err := loadDotEnv(log)
	if err != nil {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	env := getEnv("ENV", "development")
	cfg := Config{
		HTTPPort:       getEnv("HTTP_PORT", "3001"),
		Env:            env,
		AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
		DB: DBConfig{
			DSN:             getEnv("DB_DSN", ""),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "cepas"),
			Password:        getEnv("DB_PASSWORD", "cepas"),
			Name:            getEnv("DB_NAME", "cepas"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			TimeZone:        getEnv("DB_TIMEZONE", "UTC"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			LogSQL:          getEnvBool("DB_LOG_SQL", false),
		},
		Auth: AuthConfig{
			JWTSecret:         getEnv("JWT_SECRET", "cepas-dev-secret"),
			AccessTTL:         getEnvDuration("JWT_ACCESS_TTL", 15*time.Minute),
			RefreshTTL:        getEnvDuration("JWT_REFRESH_TTL", 7*24*time.Hour),
			MaxFailedAttempts: getEnvInt("AUTH_MAX_FAILED_ATTEMPTS", 5),
			LockDuration:      getEnvDuration("AUTH_LOCK_DURATION", 15*time.Minute),
			LoginRateRPS:      getEnvFloat("LOGIN_RATE_RPS", 1),
			LoginRateBurst:    getEnvInt("LOGIN_RATE_BURST", 5),
			AdminUsername:     getEnv("ADMIN_USERNAME", ""),
			AdminPassword:     getEnv("ADMIN_PASSWORD", ""),
		},
		Family: FamilyConfig{
			StrictTransactions: getEnvBool("FAMILY_STRICT_TRANSACTIONS", false),
			CacheTTL:           getEnvDuration("FAMILY_CACHE_TTL", 0),
		},
		Interviews: InterviewsConfig{
			RecentDays: getEnvInt("CALENDAR_RECENT_DAYS", 30),
		},
	}

	if env != "development" && cfg.Auth.JWTSecret == "cepas-dev-secret" {
		log.Warn("config: JWT_SECRET not set, using development fallback", "env", env)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var result []string
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}

func (c DBConfig) GetDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.TimeZone
}
