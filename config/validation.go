package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks if the configuration meets the requirements for the current environment
func ValidateConfig(cfg *Config) error {
	var errs []ValidationError

	if u, err := url.Parse(cfg.APIBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, ValidationError{Field: "API_BASE_URL", Message: "must be an absolute URL"})
	}

	for field, port := range map[string]string{"SERVER_PORT": cfg.ServerPort, "STUB_PORT": cfg.StubPort} {
		if _, err := strconv.Atoi(port); err != nil {
			errs = append(errs, ValidationError{Field: field, Message: "must be numeric"})
		}
	}

	if cfg.SessionCookie == "" {
		errs = append(errs, ValidationError{Field: "SESSION_COOKIE", Message: "must not be empty"})
	}
	if !strings.HasPrefix(cfg.SignInPath, "/") && !strings.HasPrefix(cfg.SignInPath, "http") {
		errs = append(errs, ValidationError{Field: "SIGNIN_PATH", Message: "must be a path or URL"})
	}

	switch cfg.DBDriver {
	case "sqlite":
		if cfg.DBPath == "" {
			errs = append(errs, ValidationError{Field: "DB_PATH", Message: "required for sqlite"})
		}
	case "postgres":
		if cfg.DBHost == "" || cfg.DBName == "" || cfg.DBUser == "" {
			errs = append(errs, ValidationError{Field: "DB_HOST", Message: "host, name and user are required for postgres"})
		}
	default:
		errs = append(errs, ValidationError{Field: "DB_DRIVER", Message: fmt.Sprintf("unsupported driver %q", cfg.DBDriver)})
	}

	if cfg.JWTSecret == "" {
		errs = append(errs, ValidationError{Field: "jwt_secret", Message: "secret is required"})
	} else if GetEnvironment() == Production && cfg.JWTSecret == defaultJWTSecret {
		errs = append(errs, ValidationError{Field: "jwt_secret", Message: "default secret is not allowed in production"})
	}

	if cfg.RedisURL != "" && (cfg.RateLimit <= 0 || cfg.RateWindow <= 0) {
		errs = append(errs, ValidationError{Field: "RATE_LIMIT", Message: "limit and window must be positive"})
	}

	if cfg.ViewLimit <= 0 || cfg.ViewIdleTTL <= 0 {
		errs = append(errs, ValidationError{Field: "VIEW_LIMIT", Message: "view limit and idle TTL must be positive"})
	}

	if len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(msgs, "\n"))
	}

	return nil
}
