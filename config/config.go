package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the UI server and the stand-in API
type Config struct {
	// UI server configuration
	ServerPort string
	ServerHost string

	// Remote recipe API
	APIBaseURL string

	// Browser session
	SessionCookie  string
	IdentityCookie string
	SignInPath     string

	// Stand-in API configuration
	StubPort  string
	StubHost  string
	UIOrigins []string

	// Database configuration (stand-in API only)
	DBDriver   string
	DBPath     string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT configuration
	JWTSecret string

	// Redis configuration, empty URL disables rate limiting
	RedisURL      string
	RedisPassword string
	RateLimit     int
	RateWindow    time.Duration

	// Session views held by the UI server
	ViewLimit   int
	ViewIdleTTL time.Duration
}

const defaultJWTSecret = "dev-secret-change-me"

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	env := GetEnvironment()
	cfg := &Config{}

	switch env {
	case CI:
		if err := loadCIConfig(cfg); err != nil {
			return nil, fmt.Errorf("failed to load CI configuration: %w", err)
		}
	case Development, Test:
		loadDevConfig(cfg)
	case Production:
		loadProdConfig(cfg)
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadCommon reads the non-secret settings shared by every environment
func loadCommon(cfg *Config) {
	cfg.ServerPort = getEnv("SERVER_PORT", "3000")
	cfg.ServerHost = getEnv("SERVER_HOST", "0.0.0.0")
	cfg.APIBaseURL = strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:5000"), "/")

	cfg.SessionCookie = getEnv("SESSION_COOKIE", "access_token")
	cfg.IdentityCookie = getEnv("IDENTITY_COOKIE", "userID")
	cfg.SignInPath = getEnv("SIGNIN_PATH", "/signin")

	cfg.StubPort = getEnv("STUB_PORT", "5000")
	cfg.StubHost = getEnv("STUB_HOST", "0.0.0.0")
	cfg.UIOrigins = splitList(getEnv("UI_ORIGINS", "http://localhost:3000"))

	cfg.DBDriver = getEnv("DB_DRIVER", "sqlite")
	cfg.DBPath = getEnv("DB_PATH", "recipes.db")
	cfg.DBHost = getEnv("DB_HOST", "localhost")
	cfg.DBPort = getEnv("DB_PORT", "5432")
	cfg.DBUser = getEnv("DB_USER", "postgres")
	cfg.DBName = getEnv("DB_NAME", "recipes")
	cfg.DBSSLMode = getEnv("DB_SSL_MODE", "disable")

	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.RateLimit = getEnvInt("RATE_LIMIT", 30)
	cfg.RateWindow = getEnvDuration("RATE_WINDOW", time.Minute)

	cfg.ViewLimit = getEnvInt("VIEW_LIMIT", 1000)
	cfg.ViewIdleTTL = getEnvDuration("VIEW_IDLE_TTL", 30*time.Minute)
}

// loadCIConfig loads configuration for CI environment using ONLY environment variables
func loadCIConfig(cfg *Config) error {
	loadCommon(cfg)

	cfg.JWTSecret = os.Getenv("TEST_JWT_SECRET")
	if cfg.JWTSecret == "" {
		return fmt.Errorf("TEST_JWT_SECRET environment variable is required in CI environment")
	}
	cfg.DBPassword = os.Getenv("TEST_DB_PASSWORD")
	cfg.RedisPassword = os.Getenv("TEST_REDIS_PASSWORD")

	return nil
}

// loadDevConfig loads configuration for development, secrets fall back to env vars and defaults
func loadDevConfig(cfg *Config) {
	loadCommon(cfg)

	cfg.JWTSecret = secretOrEnv("jwt_secret", "JWT_SECRET", defaultJWTSecret)
	cfg.DBPassword = secretOrEnv("db_password", "DB_PASSWORD", "postgres")
	cfg.RedisPassword = secretOrEnv("redis_password", "REDIS_PASSWORD", "")
}

// loadProdConfig loads configuration for production, secrets come ONLY from Docker secrets
func loadProdConfig(cfg *Config) {
	loadCommon(cfg)

	cfg.JWTSecret = readSecret("jwt_secret")
	cfg.DBPassword = readSecret("db_password")
	cfg.RedisPassword = readSecret("redis_password")
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func secretOrEnv(secret, envKey, fallback string) string {
	if v := readSecret(secret); v != "" {
		return v
	}
	return getEnv(envKey, fallback)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// PostgresDSN builds the connection string for the postgres driver
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// Addr returns the UI server listen address
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

// StubAddr returns the stand-in API listen address
func (c *Config) StubAddr() string {
	return c.StubHost + ":" + c.StubPort
}
