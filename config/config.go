package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Cache backend names accepted by Config.Cache.Backend
const (
	CacheBackendFile   = "file"
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// SourceConfig represents a playlist source ingested at startup and on every
// refresh interval
type SourceConfig struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	URL    string `yaml:"url"`
	Format string `yaml:"format"`
	EPGURL string `yaml:"epg_url"`
}

// Config holds the complete application configuration
type Config struct {
	// HTTP server settings
	HTTP struct {
		Address string `yaml:"address"`
		Port    string `yaml:"port"`
	} `yaml:"http"`

	// Embedded database settings
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	// Cache settings
	Cache struct {
		Dir        string        `yaml:"dir"`
		Backend    string        `yaml:"backend"`
		RedisURL   string        `yaml:"redis_url"`
		MemorySize int           `yaml:"memory_size"`
		TTL        time.Duration `yaml:"ttl"` // lifetime of fetched copies kept by the redis backend
		RemoteTTL  time.Duration `yaml:"remote_ttl"`
	} `yaml:"cache"`

	// Outbound fetch settings
	Fetch struct {
		Timeout     time.Duration `yaml:"timeout"`
		RateLimit   int           `yaml:"rate_limit"`
		MaxBodySize int           `yaml:"max_body_size"`
		UserAgent   string        `yaml:"user_agent"`
	} `yaml:"fetch"`

	// Ingestion settings
	Ingest struct {
		Workers         int           `yaml:"workers"`
		AutoFetchEPG    bool          `yaml:"auto_fetch_epg"`
		RefreshInterval time.Duration `yaml:"refresh_interval"`
	} `yaml:"ingest"`

	// Remote config document resolving auxiliary resource URLs
	RemoteConfig struct {
		Path string `yaml:"path"`
	} `yaml:"remote_config"`

	// Playlist sources
	Sources []SourceConfig `yaml:"sources"`

	// Resilience settings (embedded)
	Resilience ResilienceConfig `yaml:"resilience"`
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	var errors []string

	// Validate HTTP settings
	if c.HTTP.Address == "" {
		errors = append(errors, "HTTP address is required")
	}
	if c.HTTP.Port == "" {
		errors = append(errors, "HTTP port is required")
	}

	// Validate database settings
	if c.Database.Path == "" {
		errors = append(errors, "Database path is required")
	}

	// Validate cache settings
	switch c.Cache.Backend {
	case CacheBackendFile:
		if c.Cache.Dir == "" {
			errors = append(errors, "Cache directory is required for the file backend")
		}
	case CacheBackendMemory:
		if c.Cache.MemorySize <= 0 {
			errors = append(errors, "Cache memory size must be positive for the memory backend")
		}
	case CacheBackendRedis:
		if c.Cache.RedisURL == "" {
			errors = append(errors, "Cache redis URL is required for the redis backend")
		}
	default:
		errors = append(errors, fmt.Sprintf("Cache backend must be one of: %s, %s, %s", CacheBackendFile, CacheBackendMemory, CacheBackendRedis))
	}
	if c.Cache.TTL <= 0 {
		errors = append(errors, "Cache TTL must be positive")
	}
	if c.Cache.RemoteTTL <= 0 {
		errors = append(errors, "Cache remote TTL must be positive")
	}

	// Validate fetch settings
	if c.Fetch.Timeout <= 0 {
		errors = append(errors, "Fetch timeout must be positive")
	}
	if c.Fetch.RateLimit <= 0 {
		errors = append(errors, "Fetch rate limit must be positive")
	}
	if c.Fetch.MaxBodySize <= 0 {
		errors = append(errors, "Fetch max body size must be positive")
	}

	// Validate ingest settings
	if c.Ingest.Workers <= 0 {
		errors = append(errors, "Ingest workers must be positive")
	}
	if c.Ingest.RefreshInterval < 0 {
		errors = append(errors, "Ingest refresh interval must not be negative")
	}

	// Validate sources
	seen := make(map[string]bool)
	for i, src := range c.Sources {
		if src.ID == "" {
			errors = append(errors, fmt.Sprintf("Source %d: id is required", i))
		} else if seen[src.ID] {
			errors = append(errors, fmt.Sprintf("Source %d: duplicate id %q", i, src.ID))
		}
		seen[src.ID] = true
		if src.URL == "" {
			errors = append(errors, fmt.Sprintf("Source %d (%s): URL is required", i, src.ID))
		}
	}

	// Validate resilience config
	if err := c.Resilience.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("Resilience config: %v", err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// Default returns a Config with sensible default values
func Default() *Config {
	cfg := &Config{}

	// HTTP defaults
	cfg.HTTP.Address = "127.0.0.1"
	cfg.HTTP.Port = "8080"

	// Database defaults
	cfg.Database.Path = "iptv-guide.db"

	// Cache defaults
	cfg.Cache.Dir = "cache"
	cfg.Cache.Backend = CacheBackendFile
	cfg.Cache.MemorySize = 1024
	cfg.Cache.TTL = time.Hour
	cfg.Cache.RemoteTTL = 300 * time.Second

	// Fetch defaults
	cfg.Fetch.Timeout = 30 * time.Second
	cfg.Fetch.RateLimit = 10
	cfg.Fetch.MaxBodySize = 64 * 1024 * 1024 // 64MB
	cfg.Fetch.UserAgent = "iptv-guide/1.0"

	// Ingest defaults
	cfg.Ingest.Workers = 4
	cfg.Ingest.AutoFetchEPG = true
	cfg.Ingest.RefreshInterval = 6 * time.Hour

	// Remote config defaults
	cfg.RemoteConfig.Path = "remote-config.yaml"

	// Resilience defaults
	cfg.Resilience = *DefaultResilienceConfig()

	return cfg
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Load reads .env files, loads configuration from a file (if present) and
// applies environment variable overrides
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *Config

	// Try to load from file if it exists
	if _, err := os.Stat(configPath); err == nil {
		cfg, err = LoadFromFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		// File doesn't exist, use defaults
		cfg = Default()
	}

	// Apply environment variable overrides
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadDotEnv loads variables from the given .env files. Missing files are
// ignored; variables already set in the environment win.
func loadDotEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the configuration
func applyEnvOverrides(cfg *Config) error {
	parser := &envParser{}

	// HTTP settings
	parser.parseString("HTTP_ADDRESS", &cfg.HTTP.Address)
	parser.parseString("HTTP_PORT", &cfg.HTTP.Port)

	// Database settings
	parser.parseString("DATABASE_PATH", &cfg.Database.Path)

	// Cache settings
	if val := os.Getenv("CACHE_DIR"); val != "" {
		absPath, err := validateCacheDir(val)
		if err != nil {
			return err
		}
		cfg.Cache.Dir = absPath
	}
	if val := os.Getenv("CACHE_BACKEND"); val != "" {
		cfg.Cache.Backend = strings.ToLower(val)
	}
	parser.parseString("CACHE_REDIS_URL", &cfg.Cache.RedisURL)
	parser.parseInt("CACHE_MEMORY_SIZE", &cfg.Cache.MemorySize)
	parser.parseDuration("CACHE_TTL", &cfg.Cache.TTL)
	parser.parseDuration("CACHE_REMOTE_TTL", &cfg.Cache.RemoteTTL)

	// Fetch settings
	parser.parseDuration("FETCH_TIMEOUT", &cfg.Fetch.Timeout)
	parser.parseInt("FETCH_RATE_LIMIT", &cfg.Fetch.RateLimit)
	parser.parseByteSize("FETCH_MAX_BODY_SIZE", &cfg.Fetch.MaxBodySize)
	parser.parseString("FETCH_USER_AGENT", &cfg.Fetch.UserAgent)

	// Ingest settings
	parser.parseInt("INGEST_WORKERS", &cfg.Ingest.Workers)
	parser.parseDuration("INGEST_REFRESH_INTERVAL", &cfg.Ingest.RefreshInterval)
	if val := os.Getenv("INGEST_AUTO_FETCH_EPG"); val != "" {
		enabled, err := strconv.ParseBool(val)
		if err != nil {
			parser.errors = append(parser.errors, "INGEST_AUTO_FETCH_EPG: must be a boolean")
		} else {
			cfg.Ingest.AutoFetchEPG = enabled
		}
	}

	// Remote config settings
	parser.parseString("REMOTE_CONFIG_PATH", &cfg.RemoteConfig.Path)

	if len(parser.errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(parser.errors, "\n  - "))
	}

	// Resilience settings
	if err := applyResilienceEnv(&cfg.Resilience); err != nil {
		return fmt.Errorf("failed to load resilience config: %w", err)
	}

	return nil
}

// validateCacheDir validates and normalizes the cache directory path
func validateCacheDir(dir string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("cache directory cannot be empty")
	}

	// Ensure cache directory is an absolute path
	if !filepath.IsAbs(dir) {
		absPath, err := filepath.Abs(dir)
		if err != nil {
			return "", fmt.Errorf("failed to resolve absolute path for cache dir: %w", err)
		}
		return absPath, nil
	}

	return dir, nil
}

// Print outputs the configuration to stdout
func (c *Config) Print() {
	fmt.Printf("httpAddress: %v\n", c.HTTP.Address)
	fmt.Printf("httpPort: %v\n", c.HTTP.Port)
	fmt.Printf("databasePath: %v\n", c.Database.Path)
	fmt.Printf("cacheBackend: %v\n", c.Cache.Backend)
	fmt.Printf("cacheDir: %v\n", c.Cache.Dir)
	fmt.Printf("cacheTTL: %v\n", c.Cache.TTL)
	fmt.Printf("cacheRemoteTTL: %v\n", c.Cache.RemoteTTL)
	fmt.Printf("fetchTimeout: %v\n", c.Fetch.Timeout)
	fmt.Printf("fetchRateLimit: %v/s\n", c.Fetch.RateLimit)
	fmt.Printf("fetchMaxBodySize: %v bytes\n", c.Fetch.MaxBodySize)
	fmt.Printf("ingestWorkers: %v\n", c.Ingest.Workers)
	fmt.Printf("ingestAutoFetchEPG: %v\n", c.Ingest.AutoFetchEPG)
	fmt.Printf("ingestRefreshInterval: %v\n", c.Ingest.RefreshInterval)
	fmt.Printf("remoteConfigPath: %v\n", c.RemoteConfig.Path)
	fmt.Printf("sources: %d\n", len(c.Sources))
	for _, src := range c.Sources {
		fmt.Printf("  - %s: %s\n", src.ID, src.URL)
	}
	fmt.Printf("logLevel: %v\n", c.Resilience.LogLevel)
}
