package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Upstream  UpstreamConfig  `toml:"upstream"`
	Storage   StorageConfig   `toml:"storage"`
	RateLimit RateLimitConfig `toml:"ratelimit"`
	Logging   LoggingConfig   `toml:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// UpstreamConfig contains settings for the upstream portfolio API.
type UpstreamConfig struct {
	URL            string `toml:"url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Timeout returns the upstream request timeout as a duration.
func (u UpstreamConfig) Timeout() time.Duration {
	if u.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(u.TimeoutSeconds) * time.Second
}

// StorageConfig contains storage layer settings.
type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig contains BadgerDB-specific settings.
type BadgerConfig struct {
	Path string `toml:"path"`
}

// RateLimitConfig contains the two named limiter configurations plus the
// shared bounded-store settings.
type RateLimitConfig struct {
	API            WindowConfig `toml:"api"`
	Strict         WindowConfig `toml:"strict"`
	MaxClients     int          `toml:"max_clients"`
	IdleTTLMinutes int          `toml:"idle_ttl_minutes"`
}

// WindowConfig describes one limiter window.
type WindowConfig struct {
	Limit         int `toml:"limit"`
	WindowSeconds int `toml:"window_seconds"`
}

// Window returns the limiter window as a duration.
func (w WindowConfig) Window() time.Duration {
	return time.Duration(w.WindowSeconds) * time.Second
}

// IdleTTL returns the idle eviction TTL for tracked clients.
func (r RateLimitConfig) IdleTTL() time.Duration {
	if r.IdleTTLMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(r.IdleTTLMinutes) * time.Minute
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies MAGNUS_* environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	if port := os.Getenv("MAGNUS_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("MAGNUS_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if url := os.Getenv("MAGNUS_UPSTREAM_URL"); url != "" {
		config.Upstream.URL = url
	}
	if badgerPath := os.Getenv("MAGNUS_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if level := os.Getenv("MAGNUS_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks mandatory configuration and returns human-readable issues.
func (c *Config) Validate() []string {
	var issues []string
	if c.Upstream.URL == "" {
		issues = append(issues, "upstream.url is required (the portfolio API base URL)")
	}
	if c.Storage.Badger.Path == "" {
		issues = append(issues, "storage.badger.path is required")
	}
	if c.RateLimit.API.Limit <= 0 || c.RateLimit.API.WindowSeconds <= 0 {
		issues = append(issues, "ratelimit.api requires a positive limit and window_seconds")
	}
	if c.RateLimit.Strict.Limit <= 0 || c.RateLimit.Strict.WindowSeconds <= 0 {
		issues = append(issues, "ratelimit.strict requires a positive limit and window_seconds")
	}
	return issues
}
