package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// APIKeyEnv overrides tmdb.api_key when set.
const APIKeyEnv = "TMDB_API_KEY"

// ErrMissingAPIKey is returned by RequireAPIKey when no usable key is set.
var ErrMissingAPIKey = errors.New("TMDB API key is required. Get one from https://www.themoviedb.org/settings/api")

// Config represents the application configuration
type Config struct {
	TMDB    TMDBConfig    `yaml:"tmdb"`
	Cache   CacheConfig   `yaml:"cache"`
	Storage StorageConfig `yaml:"storage"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
}

// TMDBConfig holds TMDB API configuration
type TMDBConfig struct {
	APIKey            string  `yaml:"api_key"`
	BaseURL           string  `yaml:"base_url"`
	ImageBaseURL      string  `yaml:"image_base_url"`
	Language          string  `yaml:"language"`
	TimeoutSec        int     `yaml:"timeout_sec"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialBackoffMS  int     `yaml:"initial_backoff_ms"`
}

// CacheConfig selects where TMDB responses are cached.
type CacheConfig struct {
	Backend    string `yaml:"backend"` // memory, sqlite or redis
	TTLMinutes int    `yaml:"ttl_minutes"`
	Path       string `yaml:"path"`
	RedisAddr  string `yaml:"redis_addr"`
}

// StorageConfig selects where favorites, recent searches and accounts live.
type StorageConfig struct {
	Backend string `yaml:"backend"` // file or sqlite
	Dir     string `yaml:"dir"`
}

type AuthConfig struct {
	// Required gates favorites behind a signed-in user.
	Required bool `yaml:"required"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		TMDB: TMDBConfig{
			BaseURL:           "https://api.themoviedb.org/3",
			ImageBaseURL:      "https://image.tmdb.org/t/p",
			Language:          "en-US",
			TimeoutSec:        30,
			RequestsPerSecond: 20,
			MaxAttempts:       3,
			InitialBackoffMS:  500,
		},
		Cache: CacheConfig{
			Backend:    "memory",
			TTLMinutes: 5,
			Path:       "~/.moviedeck/cache.db",
			RedisAddr:  "localhost:6379",
		},
		Storage: StorageConfig{
			Backend: "file",
			Dir:     "~/.moviedeck",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads and parses the configuration file. A missing file yields the
// defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	path, err := expandHome(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		// Expand environment variables in the YAML content
		expandedData := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if key := os.Getenv(APIKeyEnv); key != "" {
		cfg.TMDB.APIKey = key
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	if c.TMDB.Language == "" {
		c.TMDB.Language = "en-US"
	}
	tag, err := language.Parse(c.TMDB.Language)
	if err != nil {
		return fmt.Errorf("invalid tmdb.language %q: %w", c.TMDB.Language, err)
	}
	c.TMDB.Language = tag.String()

	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))

	for _, p := range []*string{&c.Cache.Path, &c.Storage.Dir, &c.Logging.File} {
		expanded, err := expandHome(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case "memory", "sqlite", "redis":
	default:
		return fmt.Errorf("unknown cache.backend %q", c.Cache.Backend)
	}
	if c.Cache.Backend == "sqlite" && c.Cache.Path == "" {
		return fmt.Errorf("cache.path is required for the sqlite cache")
	}
	if c.Cache.Backend == "redis" && c.Cache.RedisAddr == "" {
		return fmt.Errorf("cache.redis_addr is required for the redis cache")
	}
	if c.Cache.TTLMinutes < 0 {
		return fmt.Errorf("cache.ttl_minutes must not be negative")
	}

	switch c.Storage.Backend {
	case "file", "sqlite":
	default:
		return fmt.Errorf("unknown storage.backend %q", c.Storage.Backend)
	}
	if c.Storage.Dir == "" {
		return fmt.Errorf("storage.dir is required")
	}

	if c.TMDB.MaxAttempts < 0 || c.TMDB.TimeoutSec < 0 || c.TMDB.RequestsPerSecond < 0 {
		return fmt.Errorf("tmdb limits must not be negative")
	}
	return nil
}

// RequireAPIKey reports ErrMissingAPIKey unless a real key is configured.
func (c *Config) RequireAPIKey() error {
	if c.TMDB.APIKey == "" || c.TMDB.APIKey == "your_api_key_here" {
		return ErrMissingAPIKey
	}
	return nil
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TMDB.TimeoutSec) * time.Second
}

func (c *Config) InitialBackoff() time.Duration {
	return time.Duration(c.TMDB.InitialBackoffMS) * time.Millisecond
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLMinutes) * time.Minute
}

// expandHome expands a leading ~ to the home directory.
func expandHome(path string) (string, error) {
	if len(path) == 0 || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}
