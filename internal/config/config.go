// Package config provides configuration loading and structs for the stagefinder server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ServiceKeyEnv overrides upstream.service_key when set.
const ServiceKeyEnv = "STAGEFINDER_SERVICE_KEY"

// Upstream providers.
const (
	ProviderKOPIS   = "kopis"
	ProviderCatalog = "catalog"
)

// Config holds all configuration for the application.
type Config struct {
	Debug    bool           `yaml:"debug"`
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Search   SearchConfig   `yaml:"search"`
	History  HistoryConfig  `yaml:"history"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// UpstreamConfig selects and configures the listing source.
type UpstreamConfig struct {
	Provider          string        `yaml:"provider"`
	BaseURL           string        `yaml:"base_url"`
	ServiceKey        string        `yaml:"service_key"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	CatalogPath       string        `yaml:"catalog_path"`
	WatchCatalog      bool          `yaml:"watch_catalog"`
}

// SearchConfig holds relaxation and fan-out settings.
type SearchConfig struct {
	DefaultMinCount   int `yaml:"default_min_count"`
	ResultCap         int `yaml:"result_cap"`
	DetailLimit       int `yaml:"detail_limit"`
	FanOutConcurrency int `yaml:"fan_out_concurrency"`
}

// HistoryConfig controls the search history log kept by the server.
// An empty Path disables it.
type HistoryConfig struct {
	Path      string        `yaml:"path"`
	Retention time.Duration `yaml:"retention"`
}

// Load reads and parses the config file at path, expands paths, applies defaults
// and environment overrides. Returns an error if the file cannot be read, parsed or validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	ApplyEnv(&cfg)

	if cfg.Upstream.CatalogPath != "" {
		cfg.Upstream.CatalogPath = expandPath(cfg.Upstream.CatalogPath, filepath.Dir(path))
	}
	if cfg.History.Path != "" {
		cfg.History.Path = expandPath(cfg.History.Path, filepath.Dir(path))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv applies environment overrides.
func ApplyEnv(cfg *Config) {
	if key := os.Getenv(ServiceKeyEnv); key != "" {
		cfg.Upstream.ServiceKey = key
	}
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	switch c.Upstream.Provider {
	case ProviderKOPIS:
		if c.Upstream.ServiceKey == "" {
			return fmt.Errorf("upstream.service_key (or %s) is required for provider %q", ServiceKeyEnv, ProviderKOPIS)
		}
	case ProviderCatalog:
		if c.Upstream.CatalogPath == "" {
			return fmt.Errorf("upstream.catalog_path is required for provider %q", ProviderCatalog)
		}
	default:
		return fmt.Errorf("unknown upstream.provider %q", c.Upstream.Provider)
	}
	if c.Search.DefaultMinCount < 1 {
		return fmt.Errorf("search.default_min_count must be at least 1")
	}
	return nil
}

// Addr returns host:port for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
