// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server      ServerConfig
	Workbook    WorkbookConfig
	Interaction InteractionConfig
	Audit       AuditConfig
	Security    SecurityConfig
	Logging     LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// WorkbookConfig holds the served workbook settings.
type WorkbookConfig struct {
	// Path is the .xlsx file to serve (required)
	Path string `env:"WORKBOOK_PATH" envAlt:"XLTABLE_WORKBOOK" required:"true"`

	// AutoSave writes the file after every successful mutation (default: true)
	AutoSave bool `env:"WORKBOOK_AUTOSAVE" default:"true"`

	// MaxConcurrent is the number of simultaneous operations (default: 1)
	MaxConcurrent int `env:"WORKBOOK_MAX_CONCURRENT" default:"1"`

	// MaxWaitTime is how long a request waits for the workbook (default: 30s)
	MaxWaitTime time.Duration `env:"WORKBOOK_MAX_WAIT_TIME" default:"30s"`
}

// InteractionConfig bounds how long mutations wait for the host to leave
// interactive mode.
type InteractionConfig struct {
	// InitialBackoff is the first retry delay (default: 10ms)
	InitialBackoff time.Duration `env:"INTERACTION_INITIAL_BACKOFF" default:"10ms"`

	// MaxBackoff caps the retry delay (default: 500ms)
	MaxBackoff time.Duration `env:"INTERACTION_MAX_BACKOFF" default:"500ms"`

	// Timeout is the total time allowed (default: 30s)
	Timeout time.Duration `env:"INTERACTION_TIMEOUT" default:"30s"`
}

// AuditConfig holds mutation journal settings.
type AuditConfig struct {
	// Enabled records every mutation in the journal (default: true)
	Enabled bool `env:"AUDIT_ENABLED" default:"true"`

	// Path is the SQLite journal file (default: xltable-journal.db)
	Path string `env:"AUDIT_PATH" default:"xltable-journal.db"`

	// RetentionDays purges entries older than this many days; 0 keeps all (default: 0)
	RetentionDays int `env:"AUDIT_RETENTION_DAYS" default:"0"`

	// PurgeInterval is how often the retention job runs (default: 24h)
	PurgeInterval time.Duration `env:"AUDIT_PURGE_INTERVAL" default:"24h"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// RequireAPIKey rejects /api requests without a valid X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// X-Real-IP/X-Forwarded-For headers are believed
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
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
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
