package config

import (
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"karyoscore/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Batch    BatchConfig
	Database DatabaseConfig
	Metrics  MetricsConfig
	Log      LogConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port           string
	GinMode        string
	UploadMaxBytes int64
	ReadTimeout    time.Duration
}

// BatchConfig holds table analysis settings
type BatchConfig struct {
	Workers int
	MaxRows int
}

// DatabaseConfig holds run history settings
type DatabaseConfig struct {
	Enabled bool
	Driver  string // sqlite or postgres
	URL     string
}

// MetricsConfig holds prometheus settings
type MetricsConfig struct {
	Enabled bool
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string
}

// Supported history drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:   *loadServerConfig(),
		Batch:    *loadBatchConfig(),
		Database: *loadDatabaseConfig(),
		Metrics:  MetricsConfig{Enabled: getEnvBoolOrDefault("METRICS_ENABLED", true)},
		Log: LogConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "INFO"),
			Format: getEnvOrDefault("LOG_FORMAT", "console"),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:           getEnvOrDefault("PORT", "8080"),
		GinMode:        getEnvOrDefault("GIN_MODE", "release"),
		UploadMaxBytes: int64(getEnvIntOrDefault("UPLOAD_MAX_BYTES", 10<<20)),
		ReadTimeout:    getEnvDurationOrDefault("READ_TIMEOUT", 30*time.Second),
	}
}

func loadBatchConfig() *BatchConfig {
	return &BatchConfig{
		Workers: getEnvIntOrDefault("BATCH_WORKERS", runtime.NumCPU()),
		MaxRows: getEnvIntOrDefault("BATCH_MAX_ROWS", 10000),
	}
}

func loadDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		Enabled: getEnvBoolOrDefault("HISTORY_ENABLED", true),
		Driver:  strings.ToLower(getEnvOrDefault("DATABASE_DRIVER", DriverSQLite)),
		URL:     getEnvOrDefault("DATABASE_URL", "karyoscore.db"),
	}
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	if config.Batch.Workers < 1 {
		return errors.ConfigInvalid("BATCH_WORKERS must be at least 1")
	}
	if config.Batch.MaxRows < 1 {
		return errors.ConfigInvalid("BATCH_MAX_ROWS must be at least 1")
	}
	if config.Server.UploadMaxBytes < 1 {
		return errors.ConfigInvalid("UPLOAD_MAX_BYTES must be positive")
	}
	if config.Database.Enabled {
		switch config.Database.Driver {
		case DriverSQLite, DriverPostgres:
		default:
			return errors.ConfigInvalid("DATABASE_DRIVER must be sqlite or postgres")
		}
		if config.Database.URL == "" {
			return errors.ConfigInvalid("DATABASE_URL is required when HISTORY_ENABLED is set")
		}
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
