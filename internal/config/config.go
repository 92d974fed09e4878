package config

import (
	"os"
	"strconv"
	"time"

	"attendly/internal/cache"
	"attendly/internal/database"
	"attendly/internal/messaging"
)

// Config holds the application configuration
type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration

	// Engine policy. Feedback is not gated on attendance by default; the
	// observed product behavior accepts feedback from anyone.
	FeedbackRequireAttendance bool

	// Sweep settings for the sweeper binary.
	SweepInterval   time.Duration
	SweepHoursAhead int

	Database database.Config
	NATS     messaging.Config
	Cache    cache.Config
}

// Load reads the configuration from environment variables
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,

		FeedbackRequireAttendance: getEnv("FEEDBACK_REQUIRE_ATTENDANCE", "false") == "true",

		SweepInterval:   time.Duration(getEnvInt("SWEEP_INTERVAL_SEC", 60)) * time.Second,
		SweepHoursAhead: getEnvInt("SWEEP_HOURS_AHEAD", 48),

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "attendly"),
			Password:           getEnv("DB_PASSWORD", "attendly123"),
			DBName:             getEnv("DB_NAME", "attendly"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		NATS: messaging.Config{
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "attendly"),
			ClientID:  getEnv("NATS_CLIENT_ID", "attendly-api"),
		},

		Cache: cache.Config{
			Addr:     getEnv("CACHE_ADDR", "localhost:6379"),
			Password: getEnv("CACHE_PASSWORD", ""),
			TTL:      time.Duration(getEnvInt("CACHE_TTL_SEC", 30)) * time.Second,
		},
	}
}

// getEnv returns the value of an environment variable or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
