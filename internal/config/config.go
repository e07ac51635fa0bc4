package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultDatabase           = "botanical_library.db"
	defaultSource             = "data.js"
	defaultAddr               = ":5000"
	defaultLogMode            = "dev"
	defaultRequestTimeout     = 15 * time.Second
	defaultCacheCheckInterval = 5 * time.Second
	defaultLimit              = 100
	defaultMaxLimit           = 500
	defaultSearchLimit        = 50
	defaultStemLanguage       = "english"
)

// Load builds the configuration from an optional YAML file named by
// CATALOG_CONFIG, then applies environment overrides and defaults.
func Load() (*Config, error) {
	cfg := &Config{}

	if path := os.Getenv("CATALOG_CONFIG"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("CATALOG_DB"); v != "" {
		cfg.DatabasePath = v
	}
	if v := os.Getenv("CATALOG_SOURCE"); v != "" {
		cfg.SourcePath = v
	}
	if v := os.Getenv("CATALOG_LOG_MODE"); v != "" {
		cfg.LogMode = v
	}
	if v := os.Getenv("CATALOG_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if d, ok := envDuration("CATALOG_REQUEST_TIMEOUT"); ok {
		cfg.Server.RequestTimeout = d
	}
	if d, ok := envDuration("CATALOG_CACHE_CHECK_INTERVAL"); ok {
		cfg.Server.CacheCheckInterval = d
	}
	if n, ok := envInt("CATALOG_DEFAULT_LIMIT"); ok {
		cfg.Query.DefaultLimit = n
	}
	if n, ok := envInt("CATALOG_MAX_LIMIT"); ok {
		cfg.Query.MaxLimit = n
	}
	if n, ok := envInt("CATALOG_SEARCH_LIMIT"); ok {
		cfg.Search.Limit = n
	}
	if v := os.Getenv("CATALOG_STEM_LANGUAGE"); v != "" {
		cfg.Search.StemLanguage = strings.ToLower(v)
	}
}

func applyDefaults(cfg *Config) {
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = defaultDatabase
	}
	if cfg.SourcePath == "" {
		cfg.SourcePath = defaultSource
	}
	if cfg.LogMode == "" {
		cfg.LogMode = defaultLogMode
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultAddr
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = defaultRequestTimeout
	}
	if cfg.Server.CacheCheckInterval <= 0 {
		cfg.Server.CacheCheckInterval = defaultCacheCheckInterval
	}
	if cfg.Query.DefaultLimit <= 0 {
		cfg.Query.DefaultLimit = defaultLimit
	}
	if cfg.Query.MaxLimit <= 0 {
		cfg.Query.MaxLimit = defaultMaxLimit
	}
	if cfg.Search.Limit <= 0 {
		cfg.Search.Limit = defaultSearchLimit
	}
	if cfg.Search.StemLanguage == "" {
		cfg.Search.StemLanguage = defaultStemLanguage
	}
}

func (c *Config) validate() error {
	if c.Query.DefaultLimit > c.Query.MaxLimit {
		return fmt.Errorf("default limit %d exceeds max limit %d", c.Query.DefaultLimit, c.Query.MaxLimit)
	}
	return nil
}

func envInt(key string) (int, bool) {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// envDuration accepts Go durations ("10s") or bare seconds ("10").
func envDuration(key string) (time.Duration, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d, true
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second, true
	}
	return 0, false
}
