package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	DatabaseURL    string
	LogLevel       string
	LogFormat      string
	PrometheusPort string
	Port           string

	JWTSecret string
	TokenTTL  time.Duration

	CORSAllowedOrigins []string
	BcryptCost         int

	// RevokeOnLogout keeps logged-out token ids in memory until they expire.
	RevokeOnLogout bool
	// ConcealForeign answers 404 for lists and items owned by another user.
	ConcealForeign bool
}

// Load loads configuration from environment variables. Values from a .env
// file in the working directory are applied first when the file exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{
		DatabaseURL:        getEnvOrDefault("DATABASE_URL", "sqlite://todotree.db"),
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          getEnvOrDefault("LOG_FORMAT", "text"),
		PrometheusPort:     os.Getenv("PROMETHEUS_PORT"),
		Port:               getEnvOrDefault("PORT", "8080"),
		CORSAllowedOrigins: splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
	}
	if _, set := os.LookupEnv("PROMETHEUS_PORT"); !set {
		cfg.PrometheusPort = "9090"
	}

	// Required environment variables
	if cfg.JWTSecret = os.Getenv("JWT_SECRET_KEY"); cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is required")
	}

	var err error
	if cfg.TokenTTL, err = getDuration("JWT_ACCESS_TOKEN_EXPIRES", time.Hour); err != nil {
		return nil, err
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("JWT_ACCESS_TOKEN_EXPIRES must be positive")
	}
	if cfg.BcryptCost, err = getInt("BCRYPT_COST", 10); err != nil {
		return nil, err
	}
	if cfg.RevokeOnLogout, err = getBool("REVOKE_ON_LOGOUT", false); err != nil {
		return nil, err
	}
	if cfg.ConcealForeign, err = getBool("CONCEAL_FOREIGN_RESOURCES", true); err != nil {
		return nil, err
	}

	return cfg, nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
