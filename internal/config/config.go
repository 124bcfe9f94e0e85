package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines client and reference-server configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	DB     DBConfig     `yaml:"db"`
	Log    LogConfig    `yaml:"log"`
	Client ClientConfig `yaml:"client"`
	Cache  CacheConfig  `yaml:"cache"`
	Sync   SyncConfig   `yaml:"sync"`
	Limits LimitsConfig `yaml:"limits"`
	Auth   AuthConfig   `yaml:"auth"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DBConfig is the sqlite database: server storage for serve, the activity
// journal for client commands.
type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type ClientConfig struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

// Cache backends.
const (
	CacheFile   = "file"
	CacheSQLite = "sqlite"
	CacheRedis  = "redis"
	CacheMemory = "memory"
)

type CacheConfig struct {
	Backend    string `yaml:"backend"`
	Path       string `yaml:"path"`
	RedisURL   string `yaml:"redis_url"`
	QuotaBytes int    `yaml:"quota_bytes"`
}

type SyncConfig struct {
	ProbeInterval time.Duration `yaml:"probe_interval"`
}

// LimitsConfig caps the reference server. Zero means unlimited.
type LimitsConfig struct {
	MaxRecords int `yaml:"max_records"`
}

type AuthConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "localfirst.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Client: ClientConfig{
			BaseURL: "http://localhost:8080",
			Timeout: 10 * time.Second,
		},
		Cache: CacheConfig{
			Backend:    CacheFile,
			Path:       ".localfirst",
			QuotaBytes: 5 * 1024 * 1024,
		},
		Sync: SyncConfig{
			ProbeInterval: 15 * time.Second,
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("LOCALFIRST_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	strVars := map[string]*string{
		"LOCALFIRST_SERVER_HOST":     &cfg.Server.Host,
		"LOCALFIRST_DB_PATH":         &cfg.DB.Path,
		"LOCALFIRST_LOG_LEVEL":       &cfg.Log.Level,
		"LOCALFIRST_LOG_FILE":        &cfg.Log.File,
		"LOCALFIRST_CLIENT_BASE_URL": &cfg.Client.BaseURL,
		"LOCALFIRST_CLIENT_TOKEN":    &cfg.Client.Token,
		"LOCALFIRST_CACHE_BACKEND":   &cfg.Cache.Backend,
		"LOCALFIRST_CACHE_PATH":      &cfg.Cache.Path,
		"LOCALFIRST_CACHE_REDIS_URL": &cfg.Cache.RedisURL,
	}
	for name, dst := range strVars {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	intVars := map[string]*int{
		"LOCALFIRST_SERVER_PORT":        &cfg.Server.Port,
		"LOCALFIRST_CACHE_QUOTA_BYTES":  &cfg.Cache.QuotaBytes,
		"LOCALFIRST_LIMITS_MAX_RECORDS": &cfg.Limits.MaxRecords,
	}
	for name, dst := range intVars {
		if v := os.Getenv(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s: %w", name, err)
			}
			*dst = n
		}
	}

	durVars := map[string]*time.Duration{
		"LOCALFIRST_CLIENT_TIMEOUT":      &cfg.Client.Timeout,
		"LOCALFIRST_SYNC_PROBE_INTERVAL": &cfg.Sync.ProbeInterval,
	}
	for name, dst := range durVars {
		if v := os.Getenv(name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s: %w", name, err)
			}
			*dst = d
		}
	}

	if v := os.Getenv("LOCALFIRST_AUTH_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOCALFIRST_AUTH_ENABLED: %w", err)
		}
		cfg.Auth.Enabled = enabled
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late.
func (c Config) Validate() error {
	switch strings.ToLower(c.Cache.Backend) {
	case CacheFile, CacheSQLite, CacheMemory:
	case CacheRedis:
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("cache.redis_url is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if c.Client.Timeout <= 0 {
		return fmt.Errorf("client.timeout must be positive")
	}
	if c.Sync.ProbeInterval <= 0 {
		return fmt.Errorf("sync.probe_interval must be positive")
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
