// ABOUTME: Configuration loader for the Drive web tier
// ABOUTME: Loads settings from environment variables (and an optional .env file) with defaults

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// minSecretLength is the shortest SESSION_SECRET accepted in production
const minSecretLength = 32

type Config struct {
	// Server
	Port               string
	Environment        string   // development, production (default: development)
	CookieSecure       bool     // Set Secure flag on session cookies (default: true in production)
	CORSAllowedOrigins []string // allowed CORS origins (empty = block all cross-origin)
	SessionSecret      string   // key material for sealing session cookies
	UploadMaxBytes     int64    // request body cap for upload routes (default 1 GiB)
	ProfileCacheTTL    int      // seconds a refreshed profile is reused (default 60)

	// Rate Limiting
	RateLimitEnabled bool // Enable rate limiting (default: true)
	RateLimitAuth    int  // Requests per minute for login/logout (default: 5)
	RateLimitUpload  int  // Requests per minute for upload routes (default: 60)
	RateLimitDefault int  // Requests per minute for all other endpoints (default: 300)

	// Drive backend API
	DriveAPIURL      string
	DriveAPITimeout  time.Duration
	DriveAPIAllProxy string // ssh+socks5://user@host:port?private-key=/path (optional)
}

// IsProduction reports whether the web tier runs with production hardening
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// LoadDotEnv reads KEY=VALUE pairs from the given files (default ".env") into
// the process environment. Missing files are ignored; existing variables win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
		slog.Debug("Loaded environment file", "path", p)
	}
	return nil
}

func Load() (*Config, error) {
	env := strings.ToLower(getEnv("APP_ENV", "development"))

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		Environment:        env,
		CookieSecure:       getEnvBool("COOKIE_SECURE", env == "production"),
		CORSAllowedOrigins: getEnvStringList("CORS_ALLOWED_ORIGINS"),
		SessionSecret:      os.Getenv("SESSION_SECRET"),
		UploadMaxBytes:     getEnvInt64("UPLOAD_MAX_BYTES", 1<<30),
		ProfileCacheTTL:    getEnvInt("PROFILE_CACHE_TTL", 60),

		RateLimitEnabled: getEnvBool("RATE_LIMIT_ENABLED", true),
		RateLimitAuth:    getEnvInt("RATE_LIMIT_AUTH", 5),
		RateLimitUpload:  getEnvInt("RATE_LIMIT_UPLOAD", 60),
		RateLimitDefault: getEnvInt("RATE_LIMIT_DEFAULT", 300),

		DriveAPIURL:      strings.TrimRight(ensureScheme(os.Getenv("DRIVE_API_URL")), "/"),
		DriveAPITimeout:  getEnvDuration("DRIVE_API_TIMEOUT", 60*time.Second),
		DriveAPIAllProxy: os.Getenv("DRIVE_API_ALL_PROXY"),
	}

	// Validate required fields
	if cfg.DriveAPIURL == "" {
		return nil, fmt.Errorf("DRIVE_API_URL is required")
	}
	if cfg.Environment != "development" && cfg.Environment != "production" && cfg.Environment != "test" {
		return nil, fmt.Errorf("APP_ENV must be development, test, or production, got %q", cfg.Environment)
	}
	if cfg.IsProduction() && len(cfg.SessionSecret) < minSecretLength {
		return nil, fmt.Errorf("SESSION_SECRET must be at least %d characters in production", minSecretLength)
	}
	if cfg.UploadMaxBytes <= 0 {
		return nil, fmt.Errorf("UPLOAD_MAX_BYTES must be positive, got %d", cfg.UploadMaxBytes)
	}
	if cfg.DriveAPITimeout <= 0 {
		return nil, fmt.Errorf("DRIVE_API_TIMEOUT must be positive, got %s", cfg.DriveAPITimeout)
	}

	// Validate rate limit values
	for _, rl := range []struct {
		name  string
		value int
	}{
		{"RATE_LIMIT_AUTH", cfg.RateLimitAuth},
		{"RATE_LIMIT_UPLOAD", cfg.RateLimitUpload},
		{"RATE_LIMIT_DEFAULT", cfg.RateLimitDefault},
	} {
		if rl.value < 1 || rl.value > 10000 {
			return nil, fmt.Errorf("%s must be between 1 and 10000, got %d", rl.name, rl.value)
		}
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("90s") or a bare number of seconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvStringList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// ensureScheme adds https:// prefix if the URL has no scheme
func ensureScheme(url string) string {
	if url == "" {
		return url
	}
	if !strings.Contains(url, "://") {
		return "https://" + url
	}
	return url
}
