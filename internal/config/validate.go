package config

import (
	"fmt"
	"slices"
	"strings"
)

var validLogLevels = []string{"debug", "info", "warn", "error"}

// ValidationError contains all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Errors) > 0 {
		parts = append(parts, fmt.Sprintf("Errors:\n  - %s", strings.Join(e.Errors, "\n  - ")))
	}
	if len(e.Warnings) > 0 {
		parts = append(parts, fmt.Sprintf("Warnings:\n  - %s", strings.Join(e.Warnings, "\n  - ")))
	}
	return fmt.Sprintf("configuration validation failed:\n%s", strings.Join(parts, "\n"))
}

// HasErrors returns true if there are validation errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// HasWarnings returns true if there are validation warnings.
func (e *ValidationError) HasWarnings() bool {
	return len(e.Warnings) > 0
}

// Addf adds a formatted error to the validation error.
func (e *ValidationError) Addf(format string, args ...any) {
	e.Errors = append(e.Errors, fmt.Sprintf(format, args...))
}

// Warnf adds a formatted warning to the validation error.
func (e *ValidationError) Warnf(format string, args ...any) {
	e.Warnings = append(e.Warnings, fmt.Sprintf(format, args...))
}

// Validate checks the configuration for errors and warnings. The returned
// ValidationError is non-nil whenever anything was flagged; callers decide
// whether warnings alone are fatal.
func Validate(cfg *Config) *ValidationError {
	v := &ValidationError{}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		v.Addf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host == "" {
		v.Addf("server.host must not be empty")
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		v.Warnf("server.allowed_origins is empty; browser clients will be rejected")
	}

	if cfg.MCP.ClientName == "" {
		v.Addf("mcp.client_name must not be empty")
	}
	if cfg.MCP.ConnectTimeout <= 0 {
		v.Addf("mcp.connect_timeout must be positive, got %s", cfg.MCP.ConnectTimeout)
	}

	if cfg.AI.MaxTokens <= 0 {
		v.Addf("ai.max_tokens must be positive, got %d", cfg.AI.MaxTokens)
	}
	if cfg.AI.Temperature < 0 || cfg.AI.Temperature > 2 {
		v.Addf("ai.temperature must be between 0 and 2, got %g", cfg.AI.Temperature)
	}
	if cfg.AI.RateLimitRPM < 0 {
		v.Addf("ai.rate_limit_rpm must not be negative, got %d", cfg.AI.RateLimitRPM)
	}
	if cfg.AI.RetryAttempts < 0 {
		v.Addf("ai.retry_attempts must not be negative, got %d", cfg.AI.RetryAttempts)
	}

	if !slices.Contains(validLogLevels, cfg.Log.Level) {
		v.Addf("log.level must be one of %s, got %q", strings.Join(validLogLevels, ", "), cfg.Log.Level)
	}
	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		v.Addf("log.format must be \"text\" or \"json\", got %q", cfg.Log.Format)
	}

	if len(v.Errors) == 0 && len(v.Warnings) == 0 {
		return nil
	}
	return v
}
