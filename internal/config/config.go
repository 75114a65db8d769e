// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"parkledger/pkg/db"
)

// AppConfig holds all application-wide configuration.
type AppConfig struct {
	ServerPort      string
	DB              db.Config
	RedisAddr       string // empty disables the active-session cache
	RedisDB         int
	SessionCacheTTL time.Duration
}

// LoadConfig loads configuration from a .env file (when present) and the
// environment. Environment variables always win over .env values.
func LoadConfig() (*AppConfig, error) {
	_ = godotenv.Load() // missing .env is fine

	serverPort := getEnv("SERVER_PORT", "8080")

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	cacheTTL, err := time.ParseDuration(getEnv("SESSION_CACHE_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_CACHE_TTL: %w", err)
	}

	return &AppConfig{
		ServerPort: serverPort,
		DB: db.Config{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			DBName:   getEnv("DB_NAME", "parkledger"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisDB:         redisDB,
		SessionCacheTTL: cacheTTL,
	}, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
