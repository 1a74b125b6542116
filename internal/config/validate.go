package config

import (
	"fmt"
	"strings"
)

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	// Workbook validation
	if strings.TrimSpace(c.Workbook.Path) == "" {
		errs = append(errs, "WORKBOOK_PATH is required")
	}
	if c.Workbook.MaxConcurrent <= 0 {
		errs = append(errs, "WORKBOOK_MAX_CONCURRENT must be positive")
	}
	if c.Workbook.MaxWaitTime <= 0 {
		errs = append(errs, "WORKBOOK_MAX_WAIT_TIME must be positive")
	}

	// Interaction validation
	if c.Interaction.InitialBackoff <= 0 {
		errs = append(errs, "INTERACTION_INITIAL_BACKOFF must be positive")
	}
	if c.Interaction.MaxBackoff < c.Interaction.InitialBackoff {
		errs = append(errs, fmt.Sprintf("INTERACTION_MAX_BACKOFF (%s) must be >= INTERACTION_INITIAL_BACKOFF (%s)",
			c.Interaction.MaxBackoff, c.Interaction.InitialBackoff))
	}
	if c.Interaction.Timeout <= 0 {
		errs = append(errs, "INTERACTION_TIMEOUT must be positive")
	}

	// Audit validation
	if c.Audit.Enabled && strings.TrimSpace(c.Audit.Path) == "" {
		errs = append(errs, "AUDIT_PATH is required when AUDIT_ENABLED is true")
	}
	if c.Audit.RetentionDays < 0 {
		errs = append(errs, "AUDIT_RETENTION_DAYS must be non-negative")
	}
	if c.Audit.RetentionDays > 0 && c.Audit.PurgeInterval <= 0 {
		errs = append(errs, "AUDIT_PURGE_INTERVAL must be positive when AUDIT_RETENTION_DAYS is set")
	}

	// Security validation
	if c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0 {
		errs = append(errs, "REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// API keys are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port))
	b.WriteString(fmt.Sprintf("Workbook: {Path: %q, AutoSave: %v, MaxConcurrent: %d}, ",
		c.Workbook.Path, c.Workbook.AutoSave, c.Workbook.MaxConcurrent))
	b.WriteString(fmt.Sprintf("Interaction: {InitialBackoff: %s, MaxBackoff: %s, Timeout: %s}, ",
		c.Interaction.InitialBackoff, c.Interaction.MaxBackoff, c.Interaction.Timeout))
	b.WriteString(fmt.Sprintf("Audit: {Enabled: %v, Path: %q, RetentionDays: %d}, ", c.Audit.Enabled, c.Audit.Path, c.Audit.RetentionDays))
	b.WriteString(fmt.Sprintf("Security: {RequireAPIKey: %v, APIKeys: [%d MASKED]}, ",
		c.Security.RequireAPIKey, len(c.Security.APIKeys)))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}
