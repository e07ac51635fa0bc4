package config

import "time"

type Config struct {
	DatabasePath string `yaml:"database"`
	SourcePath   string `yaml:"source"`
	LogMode      string `yaml:"log_mode"`

	Server ServerConfig `yaml:"server"`
	Query  QueryConfig  `yaml:"query"`
	Search SearchConfig `yaml:"search"`
}

type ServerConfig struct {
	Addr               string        `yaml:"addr"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	CacheCheckInterval time.Duration `yaml:"cache_check_interval"`
}

type QueryConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

type SearchConfig struct {
	Limit        int    `yaml:"limit"`
	StemLanguage string `yaml:"stem_language"`
}
