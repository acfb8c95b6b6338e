// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Inference InferenceConfig
	Remote    RemoteConfig
	Gemini    GeminiConfig
	Rate      RateLimitConfig
	Security  SecurityConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing response (default: 2m)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"2m"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 90s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"90s"`
}

// DatabaseConfig holds database connection settings.
// Without a URL, runs are kept in memory and SQL sources are unavailable.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// InferenceConfig holds type inference settings.
type InferenceConfig struct {
	// Classifier is the backend used when a request names none (default: default)
	Classifier string `env:"INFERENCE_CLASSIFIER" default:"default"`

	// MaxFileSize is the maximum accepted CSV size in bytes (default: 50MB)
	MaxFileSize int64 `env:"INFERENCE_MAX_FILE_SIZE" default:"52428800"`

	// MaxRows caps the rows read from a CSV or query; 0 is unlimited (default: 1000000)
	MaxRows int `env:"INFERENCE_MAX_ROWS" default:"1000000"`

	// MaxConcurrent is the maximum number of parallel inferences (default: 4)
	MaxConcurrent int `env:"INFERENCE_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for an inference slot (default: 30s)
	MaxWaitTime time.Duration `env:"INFERENCE_MAX_WAIT_TIME" default:"30s"`

	// Timeout is the maximum duration of a single inference (default: 2m)
	Timeout time.Duration `env:"INFERENCE_TIMEOUT" default:"2m"`

	// HistorySize is the number of runs kept by the in-memory store (default: 500)
	HistorySize int `env:"INFERENCE_HISTORY_SIZE" default:"500"`
}

// RemoteConfig holds settings for the HTTP model server backend.
type RemoteConfig struct {
	// URL is the model server root, e.g. http://sortinghat:8501
	URL string `env:"CLASSIFIER_REMOTE_URL"`

	// APIKey is sent as a bearer token when set
	APIKey string `env:"CLASSIFIER_REMOTE_API_KEY"`

	// Timeout bounds a single prediction call (default: 60s)
	Timeout time.Duration `env:"CLASSIFIER_REMOTE_TIMEOUT" default:"60s"`
}

// GeminiConfig holds settings for the Gemini backend.
type GeminiConfig struct {
	// APIKey is the Google AI Studio key
	APIKey string `env:"GEMINI_API_KEY" envAlt:"GOOGLE_API_KEY"`

	// Model is the Gemini model name (default: gemini-2.0-flash)
	Model string `env:"GEMINI_MODEL" default:"gemini-2.0-flash"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// InferLimit is requests per minute for the inference endpoint (default: 20)
	InferLimit int `env:"RATE_LIMIT_INFER" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey enables X-API-Key checks on /api routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
