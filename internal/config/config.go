// Package config reads service configuration from environment
// variables, with an optional YAML file for draft timing overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds everything the server binary needs to start.
type Config struct {
	HTTPAddr string
	NATSURL  string

	// StoreBackend selects "postgres" or "memory".
	StoreBackend string
	Database     DatabaseConfig

	Timing TimingConfig
}

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// TimingConfig holds the draft clock knobs, all in milliseconds except
// the presence TTL which is whole seconds.
type TimingConfig struct {
	GraceTimeMs        int64 `yaml:"grace_time_ms"`
	ReserveTimeMs      int64 `yaml:"reserve_time_ms"`
	PresenceTTLSeconds int   `yaml:"presence_ttl_seconds"`
}

// DSN returns the Postgres connection URL.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

// FromEnv builds a Config from environment variables (with defaults).
// If DRAFT_CONFIG_FILE is set, timing overrides are read from it.
func FromEnv() (Config, error) {
	cfg := Config{
		HTTPAddr:     getEnv("HTTP_ADDR", ":8080"),
		NATSURL:      getEnv("NATS_URL", "nats://localhost:4222"),
		StoreBackend: getEnv("STORE_BACKEND", "postgres"),
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Database: getEnv("DB_NAME", "drafts"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Timing: TimingConfig{
			GraceTimeMs:        int64(getEnvAsInt("DRAFT_GRACE_TIME_MS", 30000)),
			ReserveTimeMs:      int64(getEnvAsInt("DRAFT_RESERVE_TIME_MS", 90000)),
			PresenceTTLSeconds: getEnvAsInt("PRESENCE_TTL_SECONDS", 45),
		},
	}

	if path := os.Getenv("DRAFT_CONFIG_FILE"); path != "" {
		timing, err := loadTimingFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg.Timing = timing
	}

	return cfg, nil
}

func loadTimingFile(path string) (TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return TimingConfig{}, fmt.Errorf("failed to read config file: %w", err)
	}

	timing := TimingConfig{
		GraceTimeMs:        30000,
		ReserveTimeMs:      90000,
		PresenceTTLSeconds: 45,
	}
	if err := yaml.Unmarshal(data, &timing); err != nil {
		return TimingConfig{}, fmt.Errorf("failed to parse config: %w", err)
	}

	return timing, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
