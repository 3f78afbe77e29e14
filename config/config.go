// Package config holds all application configuration in a structured way,
// loaded from environment variables with explicit defaults.
package config

import (
	"strings"
	"time"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Provider ProviderConfig
	Realtime RealtimeConfig
	AI       AIConfig
}

type AppConfig struct {
	Version            string
	Port               string
	Debug              bool
	Environment        string
	BasePath           string
	BaseURL            string
	BasicAuth          []string
	CorsAllowedOrigins []string
	TrustedProxies     []string
	ServerID           string
}

type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            int
	User            string
	Password        string
	Name            string // File path for SQLite, DB name for Postgres
	ValkeyEnabled   bool
	ValkeyAddress   string
	ValkeyPassword  string
	ValkeyDB        int
	ValkeyKeyPrefix string
}

// ProviderConfig tunes the WhatsApp provider client. The upstream API never
// documented timeouts; these are deliberate configuration, not guesses
// hidden in call sites.
type ProviderConfig struct {
	BaseURL string
	Timeout time.Duration
	// StatusNotFoundLimit stops status probing after this many consecutive
	// not-found answers.
	StatusNotFoundLimit int
}

type RealtimeConfig struct {
	// PingInterval is how often every live connection is pinged; the sweep
	// that evicts dead connections runs offset by SweepOffset.
	PingInterval   time.Duration
	SweepOffset    time.Duration
	TypingDebounce time.Duration
	StatsInterval  time.Duration
}

type AIConfig struct {
	// ConfidenceThreshold gates auto-reply: decisions below it are never
	// acted on.
	ConfidenceThreshold float64
}

// LoadConfig loads configuration from environment variables or defaults.
func LoadConfig() (*Config, error) {
	var basicAuth []string
	if v := getEnv("APP_BASIC_AUTH", ""); v != "" {
		basicAuth = strings.Split(v, ",")
	}

	corsOrigins := []string{"http://localhost:3000", "http://localhost:5173"}
	if v := getEnv("APP_CORS_ALLOWED_ORIGINS", ""); v != "" {
		corsOrigins = strings.Split(v, ",")
	}

	var trustedProxies []string
	if v := getEnv("APP_TRUSTED_PROXIES", ""); v != "" {
		trustedProxies = strings.Split(v, ",")
	}

	cfg := &Config{
		App: AppConfig{
			Version:            "v1.2.0",
			Port:               getEnv("APP_PORT", "3000"),
			Debug:              getEnvBool("APP_DEBUG", false),
			Environment:        getEnv("APP_ENV", "development"),
			BasePath:           getEnv("APP_BASE_PATH", ""),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			BasicAuth:          basicAuth,
			CorsAllowedOrigins: corsOrigins,
			TrustedProxies:     trustedProxies,
			ServerID:           getEnv("SERVER_ID", ""),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "sqlite"),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Name:            getEnv("DB_NAME", "convodesk.db"),
			ValkeyEnabled:   getEnvBool("VALKEY_ENABLED", false),
			ValkeyAddress:   getEnv("VALKEY_ADDRESS", "localhost:6379"),
			ValkeyPassword:  getEnv("VALKEY_PASSWORD", ""),
			ValkeyDB:        getEnvInt("VALKEY_DB", 0),
			ValkeyKeyPrefix: getEnv("VALKEY_KEY_PREFIX", "convodesk:"),
		},
		Provider: ProviderConfig{
			BaseURL:             getEnv("PROVIDER_BASE_URL", "https://api.z-whats.example"),
			Timeout:             getEnvDuration("PROVIDER_TIMEOUT", 10*time.Second),
			StatusNotFoundLimit: getEnvInt("PROVIDER_STATUS_NOT_FOUND_LIMIT", 3),
		},
		Realtime: RealtimeConfig{
			PingInterval:   getEnvDuration("WS_PING_INTERVAL", 30*time.Second),
			SweepOffset:    getEnvDuration("WS_SWEEP_OFFSET", 15*time.Second),
			TypingDebounce: getEnvDuration("WS_TYPING_DEBOUNCE", 1*time.Second),
			StatsInterval:  getEnvDuration("WS_STATS_INTERVAL", 60*time.Second),
		},
		AI: AIConfig{
			ConfidenceThreshold: getEnvFloat("AI_CONFIDENCE_THRESHOLD", 0.75),
		},
	}

	return cfg, nil
}
