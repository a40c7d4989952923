package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Env       string
	LogLevel  string
	LogFormat string

	// Backend access
	APIBaseURL      string
	HTTPTimeout     time.Duration
	CacheKeepUnused time.Duration

	// Session persistence
	SessionBackend string
	SessionDir     string
	SessionKey     string
	SoftLogout     bool

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Mock backend
	MockAPIPort        string
	MockJWTSecret      string
	MockSeedFake       int
	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Env:       getEnv("ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),

		APIBaseURL:      strings.TrimRight(getEnv("HMS_API_BASE_URL", "http://localhost:5000/api/v1"), "/"),
		HTTPTimeout:     getEnvAsDuration("HMS_HTTP_TIMEOUT", 15*time.Second),
		CacheKeepUnused: getEnvAsDuration("HMS_CACHE_KEEP_UNUSED", 60*time.Second),

		SessionBackend: strings.ToLower(strings.TrimSpace(getEnv("HMS_SESSION_BACKEND", "file"))),
		SessionDir:     getEnv("HMS_SESSION_DIR", defaultSessionDir()),
		SessionKey:     getEnv("HMS_SESSION_KEY", "persist:auth"),
		SoftLogout:     getEnvAsBool("HMS_SOFT_LOGOUT", false),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		MockAPIPort:        getEnv("MOCK_API_PORT", "5000"),
		MockJWTSecret:      getEnv("MOCK_JWT_SECRET", "dev-secret"),
		MockSeedFake:       getEnvAsInt("MOCK_SEED_FAKE", 0),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
	}
}

func defaultSessionDir() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return filepath.Join(os.TempDir(), "hms")
	}
	return filepath.Join(dir, "hms")
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
