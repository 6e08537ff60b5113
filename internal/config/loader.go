package config

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/viper"

	apperrors "github.com/NJUPT-SAST-CXX/sast-readium-web/internal/errors"
)

// Loader handles configuration loading and merging.
type Loader struct {
	v           *viper.Viper
	configPath  string
	searchPaths []string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	v := viper.New()
	v.SetEnvPrefix("READIUM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	return &Loader{
		v:           v,
		searchPaths: []string{"."},
	}
}

// WithConfigPath sets an explicit config file path.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithSearchPaths adds directories to search for config files.
func (l *Loader) WithSearchPaths(paths ...string) *Loader {
	l.searchPaths = append(l.searchPaths, paths...)
	return l
}

// Load loads the configuration from defaults, file, and environment.
func (l *Loader) Load() (*Config, error) {
	const op = "config.Load"

	l.setDefaults()

	if err := l.loadConfigFile(); err != nil {
		return nil, apperrors.ConfigWrap(err, op, "failed to load config file")
	}

	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, apperrors.ConfigWrap(err, op, "failed to unmarshal config")
	}

	return cfg, nil
}

func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	l.v.SetDefault("server.host", defaults.Server.Host)
	l.v.SetDefault("server.port", defaults.Server.Port)
	l.v.SetDefault("server.allowed_origins", defaults.Server.AllowedOrigins)
	l.v.SetDefault("server.read_timeout", defaults.Server.ReadTimeout)
	l.v.SetDefault("server.write_timeout", defaults.Server.WriteTimeout)
	l.v.SetDefault("server.shutdown_timeout", defaults.Server.ShutdownTimeout)

	l.v.SetDefault("storage.data_dir", defaults.Storage.DataDir)

	l.v.SetDefault("mcp.client_name", defaults.MCP.ClientName)
	l.v.SetDefault("mcp.client_version", defaults.MCP.ClientVersion)
	l.v.SetDefault("mcp.connect_timeout", defaults.MCP.ConnectTimeout)

	l.v.SetDefault("ai.max_tokens", defaults.AI.MaxTokens)
	l.v.SetDefault("ai.temperature", defaults.AI.Temperature)
	l.v.SetDefault("ai.rate_limit_rpm", defaults.AI.RateLimitRPM)
	l.v.SetDefault("ai.retry_attempts", defaults.AI.RetryAttempts)
	l.v.SetDefault("ai.circuit_breaker_enabled", defaults.AI.CircuitBreakerEnabled)

	l.v.SetDefault("log.level", defaults.Log.Level)
	l.v.SetDefault("log.format", defaults.Log.Format)
}

func (l *Loader) loadConfigFile() error {
	if l.configPath != "" {
		l.v.SetConfigFile(l.configPath)
		return l.v.ReadInConfig()
	}

	l.v.SetConfigName("readium")
	l.v.SetConfigType("yaml")
	for _, p := range l.searchPaths {
		l.v.AddConfigPath(p)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		l.v.AddConfigPath(dir + string(os.PathSeparator) + "sast-readium")
	}

	err := l.v.ReadInConfig()
	if err != nil {
		// A missing file is fine; defaults and env carry the config.
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}
