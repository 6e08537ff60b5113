// Package config provides configuration management for the reader backend.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the root configuration for the reader backend.
type Config struct {
	// Server configures the HTTP API server.
	Server ServerConfig `mapstructure:"server" json:"server"`
	// Storage configures on-disk state locations.
	Storage StorageConfig `mapstructure:"storage" json:"storage"`
	// MCP configures the MCP client side of sessions.
	MCP MCPConfig `mapstructure:"mcp" json:"mcp"`
	// AI configures the AI completion proxy.
	AI AIConfig `mapstructure:"ai" json:"ai"`
	// Log configures logging output.
	Log LogConfig `mapstructure:"log" json:"log"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	// Host is the listen address (default: "127.0.0.1").
	Host string `mapstructure:"host" json:"host"`
	// Port is the listen port.
	Port int `mapstructure:"port" json:"port"`
	// AllowedOrigins lists CORS origins permitted to call the API.
	AllowedOrigins []string `mapstructure:"allowed_origins" json:"allowed_origins"`
	// ReadTimeout bounds reading the request, including the body.
	ReadTimeout time.Duration `mapstructure:"read_timeout" json:"read_timeout"`
	// WriteTimeout bounds writing the response.
	WriteTimeout time.Duration `mapstructure:"write_timeout" json:"write_timeout"`
	// ShutdownTimeout bounds graceful shutdown on exit.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" json:"shutdown_timeout"`
}

// StorageConfig configures where persistent state lives.
type StorageConfig struct {
	// DataDir is the directory holding server configs, usage stats,
	// and the key store. Empty means the OS user config dir.
	DataDir string `mapstructure:"data_dir" json:"data_dir"`
}

// MCPConfig configures the client identity and session behavior.
type MCPConfig struct {
	// ClientName is reported to servers during the handshake.
	ClientName string `mapstructure:"client_name" json:"client_name"`
	// ClientVersion is reported to servers during the handshake.
	ClientVersion string `mapstructure:"client_version" json:"client_version"`
	// ConnectTimeout bounds spawn plus handshake for one connect.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" json:"connect_timeout"`
}

// AIConfig configures the completion proxy.
type AIConfig struct {
	// MaxTokens is the default completion token limit when a request
	// leaves it unset.
	MaxTokens int `mapstructure:"max_tokens" json:"max_tokens"`
	// Temperature is the default sampling temperature.
	Temperature float32 `mapstructure:"temperature" json:"temperature"`
	// RateLimitRPM caps upstream requests per minute, 0 disables.
	RateLimitRPM int `mapstructure:"rate_limit_rpm" json:"rate_limit_rpm"`
	// RetryAttempts is the number of retries on transient failures.
	RetryAttempts int `mapstructure:"retry_attempts" json:"retry_attempts"`
	// CircuitBreakerEnabled toggles the upstream circuit breaker.
	CircuitBreakerEnabled bool `mapstructure:"circuit_breaker_enabled" json:"circuit_breaker_enabled"`
}

// LogConfig configures logging output.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level" json:"level"`
	// Format is "text" or "json".
	Format string `mapstructure:"format" json:"format"`
}

// DefaultConfig returns the configuration defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8720,
			AllowedOrigins:  []string{"http://localhost:1420", "tauri://localhost"},
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    10 * time.Minute,
			ShutdownTimeout: 15 * time.Second,
		},
		Storage: StorageConfig{},
		MCP: MCPConfig{
			ClientName:     "sast-readium",
			ClientVersion:  "1.0.0",
			ConnectTimeout: 30 * time.Second,
		},
		AI: AIConfig{
			MaxTokens:             4096,
			Temperature:           0.7,
			RateLimitRPM:          60,
			RetryAttempts:         3,
			CircuitBreakerEnabled: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// ResolveDataDir returns the effective data directory, falling back to
// the OS user config dir when unset.
func (c *Config) ResolveDataDir() string {
	if c.Storage.DataDir != "" {
		return c.Storage.DataDir
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(base, "sast-readium")
}

// ServersFile is the path of the MCP server registry file.
func (c *Config) ServersFile() string {
	return filepath.Join(c.ResolveDataDir(), "mcp_servers.json")
}

// UsageFile is the path of the AI usage statistics file.
func (c *Config) UsageFile() string {
	return filepath.Join(c.ResolveDataDir(), "ai_usage_stats.json")
}

// KeyringFile is the path of the file-backed API key store.
func (c *Config) KeyringFile() string {
	return filepath.Join(c.ResolveDataDir(), "keyring.json")
}
