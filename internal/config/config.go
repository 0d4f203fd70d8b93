package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultAppSecret = "change-me-in-prod"

type Config struct {
	ServerPort  string
	DatabaseURL string
	// RedisURL is optional; empty means the render cache stays
	// in-process.
	RedisURL    string
	AppSecret   string
	Environment string

	PairTTL    time.Duration
	SessionTTL time.Duration
	// DeviceTokenTTL of zero means device tokens never expire and are
	// invalidated only by rotation on re-pair.
	DeviceTokenTTL time.Duration

	AllowedOrigins []string
}

func LoadConfig() (*Config, error) {
	pairTTLSeconds, err := getEnvInt("PAIR_TTL_SECONDS", 300)
	if err != nil {
		return nil, err
	}
	sessionTTLMinutes, err := getEnvInt("SESSION_TTL_MINUTES", 30)
	if err != nil {
		return nil, err
	}
	deviceTokenTTLHours, err := getEnvInt("DEVICE_TOKEN_TTL_HOURS", 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		AppSecret:      getEnv("APP_SECRET", defaultAppSecret),
		Environment:    getEnv("ENVIRONMENT", "development"),
		PairTTL:        time.Duration(pairTTLSeconds) * time.Second,
		SessionTTL:     time.Duration(sessionTTLMinutes) * time.Minute,
		DeviceTokenTTL: time.Duration(deviceTokenTTLHours) * time.Hour,
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.Environment == "production" && cfg.AppSecret == defaultAppSecret {
		return nil, errors.New("APP_SECRET must be set in production")
	}

	return cfg, nil
}

// Helper: get env with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
