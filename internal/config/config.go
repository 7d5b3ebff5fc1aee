// Package config loads the server's settings from environment variables,
// applies defaults and validates everything on startup.
package config

import (
	"strconv"
	"time"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Import   ImportConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" envDefault:"8080"`

	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"30s"`

	// WriteTimeout stays 0 so progress streams are not cut off.
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"0s"`

	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// StoreConfig selects and tunes the record store.
type StoreConfig struct {
	// Backend is one of memory, postgres, mongo.
	Backend string `env:"STORE_BACKEND" envDefault:"postgres"`

	DatabaseURL     string        `env:"DATABASE_URL"`
	MaxConns        int           `env:"DB_MAX_CONNS" envDefault:"20"`
	MinConns        int           `env:"DB_MIN_CONNS" envDefault:"2"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`

	// Migrate applies the embedded schema on startup.
	Migrate bool `env:"DB_MIGRATE" envDefault:"true"`

	MongoURI         string        `env:"MONGO_URI"`
	MongoDatabase    string        `env:"MONGO_DATABASE" envDefault:"gereecole"`
	MongoMaxPoolSize uint64        `env:"MONGO_MAX_POOL_SIZE" envDefault:"50"`
	ConnectTimeout   time.Duration `env:"STORE_CONNECT_TIMEOUT" envDefault:"10s"`
}

// ImportConfig bounds import runs.
type ImportConfig struct {
	// MaxFileSize is the largest accepted upload in bytes (default: 10MB).
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" envDefault:"10485760"`

	MaxConcurrent int           `env:"IMPORT_MAX_CONCURRENT" envDefault:"4"`
	MaxWait       time.Duration `env:"IMPORT_MAX_WAIT" envDefault:"15s"`

	// Retention is how long finished runs stay queryable.
	Retention time.Duration `env:"IMPORT_RETENTION" envDefault:"30m"`

	// DefaultEnrollmentYear overrides the year derived from the run date,
	// e.g. 2025-2026.
	DefaultEnrollmentYear string `env:"IMPORT_DEFAULT_ENROLLMENT_YEAR"`
}

// RateLimitConfig holds per-IP rate limits.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" envDefault:"120"`

	// ImportLimit applies to upload endpoints only.
	ImportLimit int `env:"RATE_LIMIT_IMPORT" envDefault:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// APIKeys are accepted in the X-API-Key header. Empty disables auth.
	APIKeys []string `env:"API_KEYS"`

	// TrustedProxies are CIDRs whose forwarding headers are believed.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	CORSOrigins []string `env:"CORS_ORIGINS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `env:"LOG_LEVEL" envDefault:"info"`

	// Format is text or json.
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// AuthEnabled reports whether requests must carry an API key.
func (c *SecurityConfig) AuthEnabled() bool {
	return len(c.APIKeys) > 0
}
